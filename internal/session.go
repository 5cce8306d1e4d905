package internal

import (
	"context"
	"sync"
)

// SessionState tracks the auth state machine:
// LoggedOut -> Resolving -> LoggedIn, with any resolution failure
// collapsing back to LoggedOut.
type SessionState int

const (
	LoggedOut SessionState = iota
	Resolving
	LoggedIn
)

func (s SessionState) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case LoggedIn:
		return "logged-in"
	default:
		return "logged-out"
	}
}

// SessionResolver owns the token/user pair. Token and user are kept
// consistent: both set after a successful resolution, both nil otherwise,
// modulo the in-flight Resolving window.
type SessionResolver struct {
	store    Store
	notifier *Notifier

	mu    sync.Mutex
	state SessionState
	token string
	user  *UserProfile
}

// NewSessionResolver restores the persisted token, if any. The user is not
// restored: a token always implies a fresh resolution attempt.
func NewSessionResolver(store Store, notifier *Notifier) *SessionResolver {
	r := &SessionResolver{store: store, notifier: notifier}
	r.token = store.Get(KeyToken, "")
	return r
}

// Token returns the current token, empty when logged out
func (r *SessionResolver) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// CurrentUser returns the resolved profile, nil unless logged in
func (r *SessionResolver) CurrentUser() *UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}

// State returns the current machine state
func (r *SessionResolver) State() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetToken stores a freshly issued token (login success) and persists it.
// The caller is expected to resolve the session afterwards.
func (r *SessionResolver) SetToken(token string) error {
	r.mu.Lock()
	r.token = token
	r.user = nil
	r.state = LoggedOut
	r.mu.Unlock()
	return r.store.Set(KeyToken, token)
}

// Resolve fetches the current user for the held token. On any failure,
// network or non-2xx, the token is discarded from the settings store, the
// user is cleared atomically and a "session expired" notification is raised.
func (r *SessionResolver) Resolve(ctx context.Context, client *Client) (*UserProfile, error) {
	r.mu.Lock()
	token := r.token
	if token == "" {
		r.state = LoggedOut
		r.user = nil
		r.mu.Unlock()
		return nil, nil
	}
	r.state = Resolving
	r.mu.Unlock()

	client.Token = token
	user, err := client.Me(ctx)
	if err != nil {
		r.mu.Lock()
		r.token = ""
		r.user = nil
		r.state = LoggedOut
		r.mu.Unlock()
		if storeErr := r.store.Delete(KeyToken); storeErr != nil {
			LogWarn("failed to discard expired token: %v", storeErr)
		}
		message := err.Error()
		if message == "" {
			message = "Session expired"
		}
		r.notifier.Error(message)
		return nil, err
	}

	r.mu.Lock()
	r.user = user
	r.state = LoggedIn
	r.mu.Unlock()
	return user, nil
}

// Clear resets the session silently; the synchronizer uses it when the
// token guard fails so a cleared credential never leaves a stale user.
func (r *SessionResolver) Clear() {
	r.mu.Lock()
	r.token = ""
	r.user = nil
	r.state = LoggedOut
	r.mu.Unlock()
}

// Logout clears the token and user unconditionally. It never touches the
// network, so it succeeds even when the backend is unreachable.
func (r *SessionResolver) Logout() {
	r.mu.Lock()
	r.token = ""
	r.user = nil
	r.state = LoggedOut
	r.mu.Unlock()
	if err := r.store.Delete(KeyToken); err != nil {
		LogWarn("failed to clear token: %v", err)
	}
	r.notifier.Success("Logged out.")
}
