package internal

import (
	"context"
	"sync"
	"time"
)

// Rule identifies one dependency-triggered fetch rule of the controller
type Rule int

const (
	RuleDirectory Rule = iota
	RuleDocuments
	RuleOverview
	RuleWorkspaceAnalytics
	RuleSession
	RuleInbox
	RuleCalendar

	ruleCount
)

func (r Rule) String() string {
	switch r {
	case RuleDirectory:
		return "directory"
	case RuleDocuments:
		return "documents"
	case RuleOverview:
		return "overview"
	case RuleWorkspaceAnalytics:
		return "workspace-analytics"
	case RuleSession:
		return "session"
	case RuleInbox:
		return "inbox"
	case RuleCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

// AllRules returns every rule, for the initial load burst
func AllRules() []Rule {
	rules := make([]Rule, 0, int(ruleCount))
	for r := Rule(0); r < ruleCount; r++ {
		rules = append(rules, r)
	}
	return rules
}

// Inputs are the externally-editable values the synchronizer watches.
// Each rule declares which of these it depends on; a change to any declared
// input re-fires the rule.
type Inputs struct {
	BaseURL  string
	APIKey   string
	Token    string
	ActiveKB string
	Range    string // dashboard date range, e.g. "7d"
	Month    string // displayed calendar month, "YYYY-MM"
}

// ruleInputs reports whether a rule depends on the inputs that differ
// between prev and next.
func ruleFires(r Rule, prev, next Inputs) bool {
	connection := prev.BaseURL != next.BaseURL || prev.APIKey != next.APIKey || prev.Token != next.Token
	token := prev.Token != next.Token || prev.BaseURL != next.BaseURL
	switch r {
	case RuleDirectory:
		return connection
	case RuleDocuments:
		return connection || prev.ActiveKB != next.ActiveKB
	case RuleOverview:
		return connection || prev.Range != next.Range
	case RuleWorkspaceAnalytics:
		return connection || prev.ActiveKB != next.ActiveKB || prev.Range != next.Range
	case RuleSession, RuleInbox:
		return token
	case RuleCalendar:
		return token || prev.Month != next.Month
	default:
		return false
	}
}

// Plan is the pure dispatcher: given an input transition, it returns the
// rules that must re-fire. Guards are evaluated at fire time, not here, so
// a rule whose inputs changed but whose guard fails still fires and clears
// its slice.
func Plan(prev, next Inputs) []Rule {
	var rules []Rule
	for r := Rule(0); r < ruleCount; r++ {
		if ruleFires(r, prev, next) {
			rules = append(rules, r)
		}
	}
	return rules
}

// InboxPollInterval is the fixed re-poll cadence while authenticated
const InboxPollInterval = 15 * time.Second

// Controller is the workspace session controller: it owns the remote
// resource views and keeps them consistent with the watched inputs.
type Controller struct {
	store    Store
	notifier *Notifier

	Session   *SessionResolver
	Directory *Directory

	mu     sync.Mutex
	inputs Inputs
	gens   [ruleCount]uint64

	documents     []Document
	docsErr       string
	kbErr         string
	overview      *Overview
	queryVolume   []QueryVolumePoint
	recentQueries []RecentQuery
	recentIngests []RecentIngest
	inbox         []InboxMessage
	inboxErr      string
	calendar      []CalendarEvent
	calendarErr   string
	adminUsers    []UserProfile
}

// NewController assembles the controller from persisted settings. The date
// range defaults to the dashboard's 7-day window and the calendar month to
// the current one.
func NewController(store Store, notifier *Notifier) *Controller {
	session := NewSessionResolver(store, notifier)
	directory := NewDirectory(store)
	cfg := LoadConnection(store)
	return &Controller{
		store:     store,
		notifier:  notifier,
		Session:   session,
		Directory: directory,
		inputs: Inputs{
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			Token:    session.Token(),
			ActiveKB: directory.ActiveID(),
			Range:    "7d",
			Month:    MonthKey(time.Now()),
		},
	}
}

// OverrideConnection replaces the connection inputs for this invocation
// only, without persisting or firing rules. Meant for command-line flag
// overrides applied before the first Apply.
func (c *Controller) OverrideConnection(baseURL, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if baseURL != "" {
		c.inputs.BaseURL = baseURL
	}
	if apiKey != "" {
		c.inputs.APIKey = apiKey
	}
}

// Inputs returns a copy of the currently watched inputs
func (c *Controller) Inputs() Inputs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs
}

// Notifier exposes the toast channel
func (c *Controller) Notifier() *Notifier {
	return c.notifier
}

// client builds an API client for the current inputs
func (c *Controller) client() *Client {
	c.mu.Lock()
	in := c.inputs
	c.mu.Unlock()
	return NewClient(ConnectionConfig{BaseURL: in.BaseURL, APIKey: in.APIKey}, in.Token)
}

// SetInputs replaces the watched inputs and fires exactly the rules whose
// declared dependencies changed. Mirrored settings are persisted first.
func (c *Controller) SetInputs(ctx context.Context, next Inputs) {
	c.mu.Lock()
	prev := c.inputs
	c.inputs = next
	c.mu.Unlock()

	if prev.BaseURL != next.BaseURL {
		if err := c.store.Set(KeyBaseURL, next.BaseURL); err != nil {
			LogWarn("failed to persist base url: %v", err)
		}
	}
	if prev.APIKey != next.APIKey {
		if err := c.store.Set(KeyAPIKey, next.APIKey); err != nil {
			LogWarn("failed to persist api key: %v", err)
		}
	}
	c.Apply(ctx, Plan(prev, next))
}

// SetRange changes the dashboard date range
func (c *Controller) SetRange(ctx context.Context, dateRange string) {
	next := c.Inputs()
	next.Range = dateRange
	c.SetInputs(ctx, next)
}

// SetMonth changes the displayed calendar month
func (c *Controller) SetMonth(ctx context.Context, month string) {
	next := c.Inputs()
	next.Month = month
	c.SetInputs(ctx, next)
}

// Bootstrap runs the initial load burst, firing every rule
func (c *Controller) Bootstrap(ctx context.Context) {
	c.Apply(ctx, AllRules())
}

// Apply fires a set of rules concurrently and waits for the burst to
// settle. Results land as each fetch resolves; a caller that reads state
// mid-burst observes partially updated views, as the load screen does.
func (c *Controller) Apply(ctx context.Context, rules []Rule) {
	var wg sync.WaitGroup
	for _, rule := range rules {
		wg.Add(1)
		go func(r Rule) {
			defer wg.Done()
			c.fire(ctx, r)
		}(rule)
	}
	wg.Wait()
}

// begin advances a rule's generation and returns the new value. A fetch
// launched at generation g assigns its result only while g is still
// current; a newer firing supersedes it and the stale response is dropped.
func (c *Controller) begin(r Rule) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[r]++
	return c.gens[r]
}

func (c *Controller) current(r Rule, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[r] == gen
}

// fire evaluates one rule: guard unsatisfied clears the owned state to its
// empty value (never stale data), guard satisfied re-fetches it.
func (c *Controller) fire(ctx context.Context, r Rule) {
	in := c.Inputs()
	switch r {
	case RuleDirectory:
		c.fireDirectory(ctx, in)
	case RuleDocuments:
		c.fireDocuments(ctx, in)
	case RuleOverview:
		c.fireOverview(ctx, in)
	case RuleWorkspaceAnalytics:
		c.fireWorkspaceAnalytics(ctx, in)
	case RuleSession:
		c.fireSession(ctx, in)
	case RuleInbox:
		c.fireInbox(ctx, in)
	case RuleCalendar:
		c.fireCalendar(ctx, in)
	}
}

func (c *Controller) fireDirectory(ctx context.Context, in Inputs) {
	gen := c.begin(RuleDirectory)
	cfg := ConnectionConfig{BaseURL: in.BaseURL, APIKey: in.APIKey}
	if in.BaseURL == "" || !cfg.AuthReady(in.Token) {
		return
	}
	_, err := c.Directory.Refresh(ctx, c.client())
	if !c.current(RuleDirectory, gen) {
		LogDebug("discarding stale directory refresh")
		return
	}
	c.mu.Lock()
	if err != nil {
		c.kbErr = err.Error()
	} else {
		c.kbErr = ""
	}
	active := c.Directory.ActiveID()
	changed := err == nil && active != c.inputs.ActiveKB
	c.mu.Unlock()
	if changed {
		// Auto-selection moved the active workspace; cascade to the
		// rules that depend on it.
		next := c.Inputs()
		next.ActiveKB = active
		c.SetInputs(ctx, next)
	}
}

func (c *Controller) fireDocuments(ctx context.Context, in Inputs) {
	gen := c.begin(RuleDocuments)
	cfg := ConnectionConfig{BaseURL: in.BaseURL, APIKey: in.APIKey}
	if in.BaseURL == "" || !cfg.AuthReady(in.Token) || in.ActiveKB == "" {
		c.mu.Lock()
		c.documents = nil
		c.docsErr = ""
		c.mu.Unlock()
		return
	}
	docs, err := c.client().ListDocuments(ctx, in.ActiveKB)
	if !c.current(RuleDocuments, gen) {
		LogDebug("discarding stale documents refresh")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.docsErr = err.Error()
		return
	}
	c.documents = docs
	c.docsErr = ""
}

func (c *Controller) fireOverview(ctx context.Context, in Inputs) {
	gen := c.begin(RuleOverview)
	cfg := ConnectionConfig{BaseURL: in.BaseURL, APIKey: in.APIKey}
	if in.BaseURL == "" || !cfg.AuthReady(in.Token) {
		c.mu.Lock()
		c.overview = nil
		c.mu.Unlock()
		return
	}
	overview, err := c.client().Overview(ctx, in.Range)
	if !c.current(RuleOverview, gen) {
		LogDebug("discarding stale overview refresh")
		return
	}
	if err != nil {
		c.notifier.Error(err.Error())
		return
	}
	c.mu.Lock()
	c.overview = overview
	c.mu.Unlock()
}

func (c *Controller) fireWorkspaceAnalytics(ctx context.Context, in Inputs) {
	gen := c.begin(RuleWorkspaceAnalytics)
	cfg := ConnectionConfig{BaseURL: in.BaseURL, APIKey: in.APIKey}
	if in.BaseURL == "" || !cfg.AuthReady(in.Token) || in.ActiveKB == "" {
		c.mu.Lock()
		c.queryVolume = nil
		c.recentQueries = nil
		c.recentIngests = nil
		c.mu.Unlock()
		return
	}
	client := c.client()
	volume, volumeErr := client.QueryVolume(ctx, in.ActiveKB, in.Range)
	queries, queriesErr := client.RecentQueries(ctx, in.ActiveKB, 10)
	ingests, ingestsErr := client.RecentIngests(ctx, in.ActiveKB, 10)
	if !c.current(RuleWorkspaceAnalytics, gen) {
		LogDebug("discarding stale analytics refresh")
		return
	}
	for _, err := range []error{volumeErr, queriesErr, ingestsErr} {
		if err != nil {
			c.notifier.Error(err.Error())
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if volumeErr == nil {
		c.queryVolume = volume
	}
	if queriesErr == nil {
		c.recentQueries = queries
	}
	if ingestsErr == nil {
		c.recentIngests = ingests
	}
}

func (c *Controller) fireSession(ctx context.Context, in Inputs) {
	gen := c.begin(RuleSession)
	if in.Token == "" {
		c.Session.Clear()
		c.mu.Lock()
		c.inbox = nil
		c.adminUsers = nil
		c.mu.Unlock()
		return
	}
	user, err := c.Session.Resolve(ctx, c.client())
	if !c.current(RuleSession, gen) {
		LogDebug("discarding stale session resolution")
		return
	}
	if err != nil {
		// Token was discarded by the resolver; cascade the cleared
		// credential through the dependent rules.
		next := c.Inputs()
		next.Token = ""
		c.SetInputs(ctx, next)
		return
	}
	if user != nil {
		c.refreshAdminUsers(ctx)
	}
}

func (c *Controller) refreshAdminUsers(ctx context.Context) {
	users, err := c.client().ListUsers(ctx)
	if err != nil {
		LogDebug("admin user list unavailable: %v", err)
		return
	}
	c.mu.Lock()
	c.adminUsers = users
	c.mu.Unlock()
}

func (c *Controller) fireInbox(ctx context.Context, in Inputs) {
	gen := c.begin(RuleInbox)
	if in.Token == "" {
		c.mu.Lock()
		c.inbox = nil
		c.inboxErr = ""
		c.mu.Unlock()
		return
	}
	messages, err := c.client().Inbox(ctx)
	if !c.current(RuleInbox, gen) {
		LogDebug("discarding stale inbox refresh")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.inboxErr = err.Error()
		return
	}
	c.inbox = messages
	c.inboxErr = ""
}

func (c *Controller) fireCalendar(ctx context.Context, in Inputs) {
	gen := c.begin(RuleCalendar)
	if in.Token == "" || in.BaseURL == "" {
		c.mu.Lock()
		c.calendar = nil
		c.calendarErr = ""
		c.mu.Unlock()
		return
	}
	events, err := c.client().ListEvents(ctx, in.Month)
	if !c.current(RuleCalendar, gen) {
		LogDebug("discarding stale calendar refresh")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.calendarErr = err.Error()
		return
	}
	SortEvents(events)
	c.calendar = events
	c.calendarErr = ""
}

// WatchInbox re-polls the inbox on a fixed interval until the context is
// cancelled or the session ends.
func (c *Controller) WatchInbox(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = InboxPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in := c.Inputs()
			if in.Token == "" {
				return
			}
			c.fireInbox(ctx, in)
		}
	}
}

// --- State accessors ---

// Documents returns the current document list for the active workspace
func (c *Controller) Documents() []Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs := make([]Document, len(c.documents))
	copy(docs, c.documents)
	return docs
}

// DocumentsError returns the field-level error of the documents slice
func (c *Controller) DocumentsError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docsErr
}

// DirectoryError returns the field-level error of the workspace directory
func (c *Controller) DirectoryError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kbErr
}

// Overview returns the aggregate counters, nil before the first fetch
func (c *Controller) Overview() *Overview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overview
}

// QueryVolume returns the day-bucketed query counts
func (c *Controller) QueryVolume() []QueryVolumePoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	points := make([]QueryVolumePoint, len(c.queryVolume))
	copy(points, c.queryVolume)
	return points
}

// RecentQueries returns the per-workspace query history
func (c *Controller) RecentQueries() []RecentQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]RecentQuery, len(c.recentQueries))
	copy(rows, c.recentQueries)
	return rows
}

// RecentIngests returns the per-workspace ingestion history
func (c *Controller) RecentIngests() []RecentIngest {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]RecentIngest, len(c.recentIngests))
	copy(rows, c.recentIngests)
	return rows
}

// InboxMessages returns the current inbox
func (c *Controller) InboxMessages() []InboxMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]InboxMessage, len(c.inbox))
	copy(messages, c.inbox)
	return messages
}

// InboxError returns the field-level error of the inbox slice
func (c *Controller) InboxError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inboxErr
}

// CalendarEvents returns the displayed month's events sorted by (date, time)
func (c *Controller) CalendarEvents() []CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]CalendarEvent, len(c.calendar))
	copy(events, c.calendar)
	return events
}

// CalendarError returns the field-level error of the calendar slice
func (c *Controller) CalendarError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calendarErr
}

// Usage returns the persisted local query counters
func (c *Controller) Usage() UsageCounters {
	return LoadUsage(c.store)
}

// AdminUsers returns the cached account list (empty unless the session
// resolved for an admin)
func (c *Controller) AdminUsers() []UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]UserProfile, len(c.adminUsers))
	copy(users, c.adminUsers)
	return users
}
