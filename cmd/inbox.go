package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	inboxWatch    bool
	inboxInterval time.Duration
	sendTo        string
	sendSubject   string
	sendBody      string
	sendBroadcast bool
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read and send in-app messages",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbox messages and announcements",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleInbox})
		if message := controller.InboxError(); message != "" {
			return fmt.Errorf("%s", message)
		}
		if controller.Inputs().Token == "" {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Not logged in"))
			return nil
		}

		out := cmd.OutOrStdout()
		printInbox(out, controller.InboxMessages())

		if inboxWatch {
			fmt.Fprintln(out)
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Watching for new messages every %s (Ctrl+C to stop)", inboxInterval)))
			go controller.WatchInbox(ctx, inboxInterval)
			seen := len(controller.InboxMessages())
			ticker := time.NewTicker(inboxInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					messages := controller.InboxMessages()
					if len(messages) != seen {
						seen = len(messages)
						fmt.Fprintln(out)
						printInbox(out, messages)
					}
				}
			}
		}
		return nil
	},
}

func printInbox(out io.Writer, messages []internal.InboxMessage) {
	unread := internal.UnreadCount(messages)
	if unread > 0 {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Inbox (%d unread)", unread)))
	} else {
		fmt.Fprintln(out, headerStyle.Render("Inbox"))
	}

	announcements := internal.AnnouncementSummary(messages, 3)
	if len(announcements) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Announcements"))
		for _, msg := range announcements {
			fmt.Fprintf(out, "  %s %s\n", activeStyle.Render("▪"), msg.Subject)
			fmt.Fprintf(out, "    %s\n", dimStyle.Render(msg.Body))
		}
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("From")+"\t"+titleStyle.Render("Subject")+"\t"+titleStyle.Render("Received")+"\t")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, msg := range messages {
		if msg.Scope != internal.ScopeDirect {
			continue
		}
		sender := msg.SenderName
		if sender == "" {
			sender = msg.SenderEmail
		}
		subject := msg.Subject
		if msg.Unread() {
			subject = activeStyle.Render("● " + subject)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(msg.ID),
			sender,
			subject,
			dimStyle.Render(internal.FormatDateTime(msg.CreatedAt)),
		)
	}
	w.Flush()
}

var inboxSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a direct message or broadcast",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession})

		scope := internal.ScopeDirect
		if sendBroadcast {
			scope = internal.ScopeBroadcast
		}
		return controller.SendMessage(ctx, scope, sendTo, sendSubject, sendBody)
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <message-id>",
	Short: "Mark a message as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleInbox})
		return controller.MarkMessageRead(ctx, args[0])
	},
}

var inboxDeleteCmd = &cobra.Command{
	Use:   "delete <message-id>",
	Short: "Delete a message from the inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete this message?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleInbox})
		return controller.DeleteInboxMessage(ctx, args[0])
	},
}

func init() {
	inboxListCmd.Flags().BoolVar(&inboxWatch, "watch", false, "Poll for new messages")
	inboxListCmd.Flags().DurationVar(&inboxInterval, "interval", internal.InboxPollInterval, "Poll interval used with --watch")
	inboxSendCmd.Flags().StringVar(&sendTo, "to", "", "Recipient email (direct messages)")
	inboxSendCmd.Flags().StringVar(&sendSubject, "subject", "", "Message subject")
	inboxSendCmd.Flags().StringVar(&sendBody, "body", "", "Message body")
	inboxSendCmd.Flags().BoolVar(&sendBroadcast, "broadcast", false, "Send as a broadcast announcement")
	inboxCmd.AddCommand(inboxListCmd)
	inboxCmd.AddCommand(inboxSendCmd)
	inboxCmd.AddCommand(inboxReadCmd)
	inboxCmd.AddCommand(inboxDeleteCmd)
	rootCmd.AddCommand(inboxCmd)
}
