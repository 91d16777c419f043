package auth

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

// State is the session manager's lifecycle state.
type State string

const (
	// StateUninitialized is the state before Init runs.
	StateUninitialized State = "uninitialized"
	// StateLoading is entered exactly once while the stored session is read.
	StateLoading State = "loading"
	// StateAnonymous means no valid session exists.
	StateAnonymous State = "anonymous"
	// StateAuthenticated means a session is active.
	StateAuthenticated State = "authenticated"
)

// Backend is the Auth Backend collaborator. The session manager is the only
// component permitted to call it.
type Backend interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Listener receives session state transitions.
type Listener func(State)

// Manager is the stateful authority for "who is logged in right now". It
// exclusively owns the in-memory session; the durable copy is only touched
// through the store. Construct one per process and inject it into every
// consumer rather than sharing a global.
type Manager struct {
	mu        sync.RWMutex
	state     State
	session   *domain.Session
	store     *Store
	inspector *Inspector
	backend   Backend
	logger    *slog.Logger

	refreshGroup singleflight.Group

	listenerMu   sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// NewManager creates a session manager in the uninitialized state.
func NewManager(store *Store, inspector *Inspector, backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		state:     StateUninitialized,
		store:     store,
		inspector: inspector,
		backend:   backend,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Init reads the durable store once and settles into Anonymous or
// Authenticated. A stored token that is already expired is cleared rather
// than trusted; the same check runs again at request dispatch time to cover
// clock drift between process start and first use.
func (m *Manager) Init() {
	m.mu.Lock()
	m.state = StateLoading
	m.mu.Unlock()
	m.notify(StateLoading)

	session := m.store.Read()
	if session != nil && m.inspector.IsExpired(session.Token) {
		m.logger.Info("stored session expired, discarding")
		m.store.Clear()
		session = nil
	}

	m.mu.Lock()
	if session != nil {
		m.session = session
		m.state = StateAuthenticated
	} else {
		m.session = nil
		m.state = StateAnonymous
	}
	next := m.state
	m.mu.Unlock()
	m.notify(next)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a session is active.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Token returns the current access token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// CurrentUser returns a copy of the current user profile, or nil.
func (m *Manager) CurrentUser() *domain.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.User == nil {
		return nil
	}
	user := *m.session.User
	user.Permissions = append([]string(nil), m.session.User.Permissions...)
	return &user
}

// Login authenticates against the Auth Backend. On success the new session
// is committed to memory and the durable store before Login returns. On
// failure any stale state is cleared and the original error is rethrown so
// the login screen can display it.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (*domain.UserProfile, error) {
	resp, err := m.backend.Login(ctx, creds)
	if err != nil {
		m.clearSession()
		return nil, err
	}

	user := resp.User
	session := &domain.Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         &user,
	}

	m.mu.Lock()
	m.session = session
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.store.Write(session)
	m.notify(StateAuthenticated)

	return m.CurrentUser(), nil
}

// Logout notifies the Auth Backend best-effort and always completes the
// local logout. Safe to call when already anonymous.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.RLock()
	refreshToken := ""
	if m.session != nil {
		refreshToken = m.session.RefreshToken
	}
	m.mu.RUnlock()

	if refreshToken != "" {
		if err := m.backend.Logout(ctx, refreshToken); err != nil {
			m.logger.Warn("backend logout failed, continuing local logout", "error", err)
		}
	}

	m.clearSession()
}

// Refresh exchanges the refresh token for a fresh session. Concurrent
// callers are coalesced into a single backend call; each receives the same
// result. A failed refresh forces a full logout before the error is
// rethrown, so a half-valid session can never survive.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	token, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (m *Manager) refreshOnce(ctx context.Context) (interface{}, error) {
	m.mu.RLock()
	refreshToken := ""
	if m.session != nil {
		refreshToken = m.session.RefreshToken
	}
	m.mu.RUnlock()

	if refreshToken == "" {
		return "", domain.NewAuthenticationError("NO_REFRESH_TOKEN", "No refresh token available")
	}

	resp, err := m.backend.Refresh(ctx, refreshToken)
	if err != nil {
		m.Logout(ctx)
		return "", err
	}

	// Wholesale replacement, not a merge: the backend-issued record is the
	// truth for token, refresh token and profile alike.
	user := resp.User
	session := &domain.Session{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         &user,
	}

	m.mu.Lock()
	m.session = session
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.store.Write(session)
	m.notify(StateAuthenticated)

	return resp.AccessToken, nil
}

// UpdateUser shallow-merges a partial profile update into the current user,
// in memory and in the durable store. A no-op when anonymous.
func (m *Manager) UpdateUser(update domain.UserUpdate) {
	m.mu.Lock()
	if m.session == nil || m.session.User == nil {
		m.mu.Unlock()
		return
	}
	merged := m.session.User.Merge(update)
	m.session.User = &merged
	session := *m.session
	m.mu.Unlock()

	m.store.Write(&session)
	m.notify(StateAuthenticated)
}

// AdoptUser replaces the current user profile with the backend-returned
// record, in memory and in the durable store. After a profile write the
// backend copy is authoritative, so this is a replacement rather than a
// merge. A no-op when anonymous.
func (m *Manager) AdoptUser(user domain.UserProfile) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.User = &user
	session := *m.session
	m.mu.Unlock()

	m.store.Write(&session)
	m.notify(StateAuthenticated)
}

// HasPermission reports whether the current user holds the named permission.
// False for every permission when no session exists.
func (m *Manager) HasPermission(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.User == nil {
		return false
	}
	return m.session.User.HasPermission(name)
}

// ExpireLocally drops the session without a backend round trip. Used by the
// request gateway when it detects an expired token or receives a 401.
func (m *Manager) ExpireLocally() {
	m.clearSession()
}

// AdoptStored re-reads the durable store and adopts its content, used when
// another process changed the session file. An empty or invalid store logs
// the current session out.
func (m *Manager) AdoptStored() {
	session := m.store.Read()
	if session == nil || m.inspector.IsExpired(session.Token) {
		m.clearSession()
		return
	}

	m.mu.Lock()
	m.session = session
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.notify(StateAuthenticated)
}

// Subscribe registers a listener for state transitions and returns its
// unsubscribe function. Listeners fire after each committed transition,
// including self-loops that carry new session data.
func (m *Manager) Subscribe(fn Listener) func() {
	m.listenerMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

func (m *Manager) clearSession() {
	m.mu.Lock()
	alreadyAnonymous := m.state == StateAnonymous && m.session == nil
	m.session = nil
	m.state = StateAnonymous
	m.mu.Unlock()

	m.store.Clear()
	if !alreadyAnonymous {
		m.notify(StateAnonymous)
	}
}

func (m *Manager) notify(state State) {
	m.listenerMu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
