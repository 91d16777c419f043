package cli

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/debriefapp/debrief-cli/internal/auth"
	"github.com/debriefapp/debrief-cli/internal/config"
	"github.com/debriefapp/debrief-cli/internal/gateway"
	"github.com/debriefapp/debrief-cli/internal/guard"
	"github.com/spf13/viper"
)

// App wires the client components together: one session manager per process,
// injected into the gateway and every guard.
type App struct {
	Config    *config.AppConfig
	Store     *auth.Store
	Inspector *auth.Inspector
	Session   *auth.Manager
	Watcher   *auth.StoreWatcher
	Gateway   *gateway.Client
	API       *APIClient
	Navigator *consoleNavigator
	ServerURL string
}

var (
	appOnce sync.Once
	appInst *App
	appErr  error
)

// getApp initializes the application once per process.
func getApp() (*App, error) {
	appOnce.Do(func() {
		appInst, appErr = newApp()
	})
	return appInst, appErr
}

func newApp() (*App, error) {
	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)

	serverURL, err := resolveServerURL(cfg)
	if err != nil {
		return nil, err
	}

	store := auth.NewStore(logger)
	inspector := auth.NewInspector()
	authClient := gateway.NewAuthClient(serverURL, cfg.GetRequestTimeout())

	session := auth.NewManager(store, inspector, authClient, logger)
	session.Init()

	// Another debrief process sharing the session file may sign in or out
	// while this one runs; follow along instead of trusting a stale copy.
	watcher, err := auth.WatchStore(store, session, logger)
	if err != nil {
		logger.Warn("session store watcher unavailable", "error", err)
	}

	navigator := &consoleNavigator{}
	gw := gateway.New(gateway.Options{
		BaseURL:       serverURL,
		Timeout:       cfg.GetRequestTimeout(),
		RedirectDelay: cfg.GetRedirectDelay(),
		Session:       session,
		Inspector:     inspector,
		Notifier:      newConsoleNotifier(),
		Navigator:     navigator,
		Logger:        logger,
	})

	return &App{
		Config:    cfg,
		Store:     store,
		Inspector: inspector,
		Session:   session,
		Watcher:   watcher,
		Gateway:   gw,
		API:       NewAPIClient(gw),
		Navigator: navigator,
		ServerURL: serverURL,
	}, nil
}

// resolveServerURL picks the backend URL: explicit flag, then the active
// profile, then the environment default.
func resolveServerURL(cfg *config.AppConfig) (string, error) {
	if flagURL := viper.GetString("server"); flagURL != "" {
		return flagURL, nil
	}

	profile, err := GetCurrentProfile()
	if err == nil && profile.ServerURL != "" {
		return profile.ServerURL, nil
	}

	return cfg.GetAPIBaseURL(), nil
}

func newLogger(cfg *config.AppConfig) *slog.Logger {
	level := slog.LevelWarn
	if verbose || cfg.GetLogLevel() == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// consoleNotifier renders transient notices on stderr. Consecutive
// duplicates are suppressed so one underlying failure produces one notice.
type consoleNotifier struct {
	mu   sync.Mutex
	last string
}

func newConsoleNotifier() *consoleNotifier {
	return &consoleNotifier{}
}

func (n *consoleNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if message == n.last {
		return
	}
	n.last = message
	fmt.Fprintf(os.Stderr, "✗ %s\n", message)
}

// consoleNavigator maps screen navigation onto the terminal: "going to the
// login screen" becomes telling the user how to sign back in.
type consoleNavigator struct {
	mu      sync.Mutex
	atLogin bool
}

func (n *consoleNavigator) SetAtLogin(v bool) {
	n.mu.Lock()
	n.atLogin = v
	n.mu.Unlock()
}

func (n *consoleNavigator) AtLogin() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.atLogin
}

func (n *consoleNavigator) ToLogin() {
	fmt.Fprintln(os.Stderr, "Run 'debrief auth login' to sign in again.")
}

// requireScreen resolves a guard decision for a CLI screen, translating the
// non-Allow outcomes into actionable errors.
func requireScreen(g *guard.Guard, route string) error {
	decision := g.Resolve(route)
	switch decision.Kind {
	case guard.Allow:
		return nil
	case guard.Waiting:
		return fmt.Errorf("session is still loading, try again")
	case guard.Redirect:
		return fmt.Errorf("not signed in: run 'debrief auth login' first (you will land back on %s)", decision.From)
	case guard.AccessDenied:
		return fmt.Errorf("access denied: this screen is not available to your account type")
	case guard.MissingPermissions:
		return fmt.Errorf("insufficient permissions: missing %v", decision.Missing)
	default:
		return fmt.Errorf("unexpected guard decision %q", decision.Kind)
	}
}
