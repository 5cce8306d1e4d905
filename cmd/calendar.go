package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	calendarMonth string
	eventDate     string
	eventTime     string
	eventTitle    string
	eventNote     string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage calendar events",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession})
		if calendarMonth != "" {
			controller.SetMonth(ctx, calendarMonth)
		}
		controller.Apply(ctx, []internal.Rule{internal.RuleCalendar})
		if message := controller.CalendarError(); message != "" {
			return fmt.Errorf("%s", message)
		}
		if controller.Inputs().Token == "" {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Not logged in"))
			return nil
		}

		out := cmd.OutOrStdout()
		events := controller.CalendarEvents()
		month := controller.Inputs().Month
		if len(events) == 0 {
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("No events in %s", month)))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d event(s) in %s", len(events), month)))
		fmt.Fprintln(out)

		byDay := internal.EventsByDay(events)
		days := make([]string, 0, len(byDay))
		for day := range byDay {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			fmt.Fprintln(out, titleStyle.Render(day))
			for _, event := range byDay[day] {
				when := event.Time
				if when == "" {
					when = "all day"
				}
				fmt.Fprintf(out, "  %s  %s  %s\n", dimStyle.Render(when), event.Title, idStyle.Render(event.ID))
				if event.Note != "" {
					fmt.Fprintf(out, "         %s\n", dimStyle.Render(event.Note))
				}
			}
		}

		today := time.Now().Format("2006-01-02")
		upcoming := internal.UpcomingEvents(events, today, 5)
		if len(upcoming) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, titleStyle.Render("Next up"))
			for _, event := range upcoming {
				fmt.Fprintf(out, "  %s %s %s\n", event.Date, event.Time, event.Title)
			}
		}
		return nil
	},
}

var calendarAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a calendar event",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleCalendar})
		event := internal.CalendarEvent{
			Date:  eventDate,
			Time:  eventTime,
			Title: eventTitle,
			Note:  eventNote,
		}
		created, err := controller.CreateCalendarEvent(ctx, event)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created event %s\n", idStyle.Render(created.ID))
		return nil
	},
}

var calendarEditCmd = &cobra.Command{
	Use:   "edit <event-id>",
	Short: "Update a calendar event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleCalendar})
		patch := internal.CalendarEvent{
			Date:  eventDate,
			Time:  eventTime,
			Title: eventTitle,
			Note:  eventNote,
		}
		updated, err := controller.UpdateCalendarEvent(ctx, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated event %s\n", idStyle.Render(updated.ID))
		return nil
	},
}

var calendarRemoveCmd = &cobra.Command{
	Use:   "rm <event-id>",
	Short: "Delete a calendar event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete this event?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession, internal.RuleCalendar})
		return controller.DeleteCalendarEvent(ctx, args[0])
	},
}

func init() {
	calendarListCmd.Flags().StringVar(&calendarMonth, "month", "", "Month to list (YYYY-MM, default current)")
	for _, c := range []*cobra.Command{calendarAddCmd, calendarEditCmd} {
		c.Flags().StringVar(&eventDate, "date", "", "Event date (YYYY-MM-DD)")
		c.Flags().StringVar(&eventTime, "time", "", "Event time (HH:MM)")
		c.Flags().StringVar(&eventTitle, "title", "", "Event title")
		c.Flags().StringVar(&eventNote, "note", "", "Optional note")
	}
	calendarAddCmd.MarkFlagRequired("date")
	calendarAddCmd.MarkFlagRequired("title")
	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarAddCmd)
	calendarCmd.AddCommand(calendarEditCmd)
	calendarCmd.AddCommand(calendarRemoveCmd)
	rootCmd.AddCommand(calendarCmd)
}
