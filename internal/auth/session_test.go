package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

// fakeBackend implements Backend with injectable behavior per call.
type fakeBackend struct {
	loginFn   func(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error)
	refreshFn func(ctx context.Context, refreshToken string) (*domain.LoginResponse, error)
	logoutFn  func(ctx context.Context, refreshToken string) error

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
}

func (f *fakeBackend) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	f.loginCalls.Add(1)
	if f.loginFn == nil {
		return nil, errors.New("login not configured")
	}
	return f.loginFn(ctx, creds)
}

func (f *fakeBackend) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	f.refreshCalls.Add(1)
	if f.refreshFn == nil {
		return nil, errors.New("refresh not configured")
	}
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeBackend) Logout(ctx context.Context, refreshToken string) error {
	f.logoutCalls.Add(1)
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx, refreshToken)
}

func loginResponse(username, token string) *domain.LoginResponse {
	return &domain.LoginResponse{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		User: domain.UserProfile{
			ID:          "user-1",
			Username:    username,
			Email:       username + "@example.com",
			AccountType: domain.ClientAccount,
			ClientID:    "client-1",
			Active:      true,
			Permissions: []string{"demands:read"},
		},
	}
}

func newTestManager(t *testing.T, backend Backend) (*Manager, *Store) {
	t.Helper()
	store := NewStoreAt(filepath.Join(t.TempDir(), "debrief_auth.json"), testLogger())
	manager := NewManager(store, NewInspector(), backend, testLogger())
	return manager, store
}

func TestManager_InitWithEmptyStore(t *testing.T) {
	manager, _ := newTestManager(t, &fakeBackend{})

	assert.Equal(t, StateUninitialized, manager.State())
	manager.Init()

	assert.Equal(t, StateAnonymous, manager.State())
	assert.False(t, manager.IsAuthenticated())
	assert.Empty(t, manager.Token())
	assert.Nil(t, manager.CurrentUser())
}

func TestManager_InitRestoresStoredSession(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	store.Write(&domain.Session{
		Token: "mock-access-token",
		User:  &domain.UserProfile{ID: "user-1", Username: "ana", AccountType: domain.MasterAccount},
	})

	manager.Init()

	assert.Equal(t, StateAuthenticated, manager.State())
	assert.Equal(t, "mock-access-token", manager.Token())
	require.NotNil(t, manager.CurrentUser())
	assert.Equal(t, "ana", manager.CurrentUser().Username)
}

func TestManager_InitDiscardsExpiredSession(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStoreAt(filepath.Join(t.TempDir(), "debrief_auth.json"), testLogger())
	expired := signedToken(t, map[string]interface{}{"exp": float64(time.Now().Add(-time.Hour).Unix())})
	store.Write(&domain.Session{
		Token: expired,
		User:  &domain.UserProfile{ID: "user-1", Username: "ana"},
	})

	manager := NewManager(store, NewInspector(), backend, testLogger())
	manager.Init()

	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, store.Read(), "expired session should be cleared from the store")
}

func TestManager_InitNotifiesLoadingThenSettled(t *testing.T) {
	manager, _ := newTestManager(t, &fakeBackend{})

	var mu sync.Mutex
	var states []State
	manager.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	manager.Init()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateLoading, StateAnonymous}, states)
}

func TestManager_LoginSuccess(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
			assert.Equal(t, "ana", creds.Username)
			return loginResponse("ana", "mock-token-1"), nil
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()

	user, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, manager.IsAuthenticated())

	// The durable copy is committed before Login returns.
	stored := store.Read()
	require.NotNil(t, stored)
	assert.Equal(t, "mock-token-1", stored.Token)
	assert.Equal(t, "refresh-mock-token-1", stored.RefreshToken)
}

func TestManager_LoginSurvivesRestart(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()

	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	// A fresh manager over the same store simulates a process restart.
	restarted := NewManager(store, NewInspector(), backend, testLogger())
	restarted.Init()

	assert.True(t, restarted.IsAuthenticated())
	assert.Equal(t, "mock-token-1", restarted.Token())
}

func TestManager_LoginFailureClearsSession(t *testing.T) {
	loginErr := domain.NewAuthenticationError("INVALID_CREDENTIALS", "Invalid username or password")
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return nil, loginErr
		},
	}
	manager, store := newTestManager(t, backend)
	store.Write(&domain.Session{
		Token: "mock-stale-token",
		User:  &domain.UserProfile{ID: "user-1", Username: "old"},
	})
	manager.Init()
	require.True(t, manager.IsAuthenticated())

	user, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "wrong"})

	// The original error is rethrown untouched for the login screen.
	assert.Same(t, loginErr, err)
	assert.Nil(t, user)
	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, store.Read())
}

func TestManager_LogoutCompletesDespiteBackendFailure(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
		logoutFn: func(_ context.Context, _ string) error {
			return errors.New("backend unavailable")
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	manager.Logout(context.Background())

	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, store.Read())
	assert.Equal(t, int32(1), backend.logoutCalls.Load())
}

func TestManager_LogoutWhenAnonymousIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	manager, _ := newTestManager(t, backend)
	manager.Init()

	manager.Logout(context.Background())

	assert.Equal(t, StateAnonymous, manager.State())
	assert.Equal(t, int32(0), backend.logoutCalls.Load(), "no refresh token means no backend call")
}

func TestManager_RefreshWithoutToken(t *testing.T) {
	manager, _ := newTestManager(t, &fakeBackend{})
	manager.Init()

	_, err := manager.Refresh(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsErrorType(err, domain.AuthenticationError))
}

func TestManager_RefreshReplacesSessionWholesale(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
		refreshFn: func(_ context.Context, refreshToken string) (*domain.LoginResponse, error) {
			assert.Equal(t, "refresh-mock-token-1", refreshToken)
			resp := loginResponse("ana", "mock-token-2")
			resp.User.FullName = "Ana Updated"
			return resp, nil
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	token, err := manager.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock-token-2", token)
	assert.Equal(t, "mock-token-2", manager.Token())
	assert.Equal(t, "Ana Updated", manager.CurrentUser().FullName)

	stored := store.Read()
	require.NotNil(t, stored)
	assert.Equal(t, "refresh-mock-token-2", stored.RefreshToken)
}

func TestManager_RefreshFailureForcesLogout(t *testing.T) {
	refreshErr := domain.NewAuthenticationError("REFRESH_FAILED", "Invalid or expired refresh token")
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
		refreshFn: func(_ context.Context, _ string) (*domain.LoginResponse, error) {
			return nil, refreshErr
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	_, err = manager.Refresh(context.Background())

	assert.Same(t, refreshErr, err)
	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, store.Read())
}

func TestManager_ConcurrentRefreshCoalesces(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
		refreshFn: func(_ context.Context, _ string) (*domain.LoginResponse, error) {
			<-gate
			return loginResponse("ana", "mock-token-2"), nil
		},
	}
	manager, _ := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	const callers = 5
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = manager.Refresh(context.Background())
		}(i)
	}

	// Release the backend once the callers have had a chance to pile up on
	// the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "mock-token-2", tokens[i])
	}
	assert.Equal(t, int32(1), backend.refreshCalls.Load(), "concurrent refreshes should share one backend call")
}

func TestManager_UpdateUserMergesAndPersists(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	fullName := "Ana Silva"
	manager.UpdateUser(domain.UserUpdate{FullName: &fullName})

	user := manager.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Ana Silva", user.FullName)
	assert.Equal(t, "ana", user.Username, "untouched fields survive the merge")

	stored := store.Read()
	require.NotNil(t, stored)
	assert.Equal(t, "Ana Silva", stored.User.FullName)
}

func TestManager_AdoptUserReplacesProfile(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
	}
	manager, store := newTestManager(t, backend)
	manager.Init()
	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	manager.AdoptUser(domain.UserProfile{
		ID:          "user-1",
		Username:    "ana",
		Email:       "ana.silva@example.com",
		FullName:    "Ana Silva",
		AccountType: domain.ClientAccount,
	})

	user := manager.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "Ana Silva", user.FullName)
	assert.Empty(t, user.Permissions, "the adopted record replaces the old one wholesale")

	stored := store.Read()
	require.NotNil(t, stored)
	assert.Equal(t, "Ana Silva", stored.User.FullName)
	assert.Equal(t, "mock-token-1", stored.Token, "tokens are untouched by a profile adoption")
}

func TestManager_AdoptUserWhenAnonymousIsNoOp(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	manager.Init()

	manager.AdoptUser(domain.UserProfile{ID: "user-1", Username: "ghost"})

	assert.Nil(t, manager.CurrentUser())
	assert.Nil(t, store.Read())
}

func TestManager_UpdateUserWhenAnonymousIsNoOp(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	manager.Init()

	name := "ghost"
	manager.UpdateUser(domain.UserUpdate{Username: &name})

	assert.Nil(t, manager.CurrentUser())
	assert.Nil(t, store.Read())
}

func TestManager_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.UserProfile
		permission string
		want       bool
	}{
		{
			name:       "master holds everything",
			user:       &domain.UserProfile{AccountType: domain.MasterAccount},
			permission: "anything:at-all",
			want:       true,
		},
		{
			name:       "client holds listed permission",
			user:       &domain.UserProfile{AccountType: domain.ClientAccount, Permissions: []string{"demands:read"}},
			permission: "demands:read",
			want:       true,
		},
		{
			name:       "client lacks unlisted permission",
			user:       &domain.UserProfile{AccountType: domain.ClientAccount, Permissions: []string{"demands:read"}},
			permission: "demands:delete",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, store := newTestManager(t, &fakeBackend{})
			store.Write(&domain.Session{Token: "mock-token", User: tt.user})
			manager.Init()

			assert.Equal(t, tt.want, manager.HasPermission(tt.permission))
		})
	}
}

func TestManager_HasPermissionWhenAnonymous(t *testing.T) {
	manager, _ := newTestManager(t, &fakeBackend{})
	manager.Init()

	assert.False(t, manager.HasPermission("demands:read"))
}

func TestManager_SubscribeAndUnsubscribe(t *testing.T) {
	backend := &fakeBackend{
		loginFn: func(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
			return loginResponse("ana", "mock-token-1"), nil
		},
	}
	manager, _ := newTestManager(t, backend)
	manager.Init()

	var mu sync.Mutex
	var states []State
	unsubscribe := manager.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	_, err := manager.Login(context.Background(), domain.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)

	unsubscribe()
	manager.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateAuthenticated}, states, "nothing observed after unsubscribe")
}

func TestManager_ExpireLocally(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	store.Write(&domain.Session{
		Token: "mock-token",
		User:  &domain.UserProfile{ID: "user-1", Username: "ana"},
	})
	manager.Init()
	require.True(t, manager.IsAuthenticated())

	manager.ExpireLocally()

	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, store.Read())
}

func TestManager_AdoptStored(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	manager.Init()
	require.False(t, manager.IsAuthenticated())

	store.Write(&domain.Session{
		Token: "mock-token",
		User:  &domain.UserProfile{ID: "user-1", Username: "ana"},
	})
	manager.AdoptStored()
	assert.True(t, manager.IsAuthenticated())

	store.Clear()
	manager.AdoptStored()
	assert.Equal(t, StateAnonymous, manager.State())
}

func TestManager_CurrentUserReturnsCopy(t *testing.T) {
	manager, store := newTestManager(t, &fakeBackend{})
	store.Write(&domain.Session{
		Token: "mock-token",
		User:  &domain.UserProfile{ID: "user-1", Username: "ana", Permissions: []string{"demands:read"}},
	})
	manager.Init()

	user := manager.CurrentUser()
	user.Username = "mutated"
	user.Permissions[0] = "mutated:perm"

	assert.Equal(t, "ana", manager.CurrentUser().Username)
	assert.True(t, manager.HasPermission("demands:read"))
}
