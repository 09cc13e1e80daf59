// ABOUTME: Terminal chat client for the lexdesk backend
// ABOUTME: Wires config, credentials, the REST client, the push listener, and the session

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexdesk/lexdesk/internal/api"
	"github.com/lexdesk/lexdesk/internal/config"
	"github.com/lexdesk/lexdesk/internal/credentials"
	"github.com/lexdesk/lexdesk/internal/push"
	"github.com/lexdesk/lexdesk/internal/session"
)

func main() {
	configPath := flag.String("config", defaultPath("config.yaml"), "Config file path")
	prefsPath := flag.String("prefs", defaultPath("prefs.toml"), "Preferences file path")
	userFlag := flag.String("user", "", "User id (defaults to the stored credential)")
	contextFlag := flag.String("context", "", "Assistant context: general, legal, technical, business, academic")
	flag.Parse()

	if err := run(*configPath, *prefsPath, *userFlag, *contextFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, prefsPath, userFlag, contextFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	prefs, err := loadPrefs(prefsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if contextFlag != "" {
		if !session.ContextTag(contextFlag).Valid() {
			return fmt.Errorf("invalid context %q", contextFlag)
		}
		if contextFlag != prefs.Context {
			// The flag choice becomes the default for the next run.
			prefs.Context = contextFlag
			if err := savePrefs(prefsPath, prefs); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save preferences: %v\n", err)
			}
		}
	}

	// The terminal belongs to the TUI; logs go to a file beside the config.
	logger, closeLog := setupLogger(cfg.Logging)
	defer closeLog()

	store, err := credentials.Open(cfg.Credentials.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	userID, token, err := resolveIdentity(store, userFlag)
	if err != nil {
		return err
	}
	if info, err := credentials.InspectToken(token); err == nil && info.Expired(time.Now()) {
		fmt.Fprintf(os.Stderr, "Warning: stored token expired %s; requests will fail until you log in again\n",
			info.ExpiresAt.Format(time.RFC3339))
	}

	client := api.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, func() string { return token }, logger)
	sess := session.New(client, userID, session.ContextTag(prefs.Context), logger)
	defer sess.Close()

	listener, err := push.NewListener(cfg.Push.SocketURL, userID, sess, push.ReconnectPolicy{
		Min:        cfg.Push.MinBackoff,
		Max:        cfg.Push.MaxBackoff,
		MaxRetries: cfg.Push.MaxRetries,
	}, logger)
	if err != nil {
		return fmt.Errorf("push listener: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("push listener stopped", "error", err)
		}
	}()

	if err := sess.Rehydrate(ctx); err != nil {
		// The conversation list loads lazily once the backend is back.
		logger.Warn("initial conversation load failed", "error", err)
	}

	changes, _ := sess.Notifier().Subscribe(ctx)

	p := tea.NewProgram(newModel(sess, prefs, changes), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// loadConfig reads the config file, falling back to local-development
// defaults when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.Config{
			Backend: config.BackendConfig{
				BaseURL:        "http://localhost:8080/api",
				RequestTimeout: config.DefaultRequestTimeout,
			},
			Push: config.PushConfig{
				SocketURL:  "ws://localhost:8080/socket",
				MinBackoff: config.DefaultMinBackoff,
				MaxBackoff: config.DefaultMaxBackoff,
				MaxRetries: config.DefaultMaxRetries,
			},
			Credentials: config.CredentialsConfig{
				Path: defaultPath("credentials.db"),
			},
		}, nil
	}
	return config.Load(path)
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".lexdesk", name)
}

func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func()) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = io.Discard
	closeLog := func() {}
	if f, err := os.OpenFile(defaultPath("lexdesk-tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		out = f
		closeLog = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closeLog
}

// resolveIdentity picks the user id and bearer token from the flag, the
// environment, and the credential store.
func resolveIdentity(store *credentials.Store, userFlag string) (userID, token string, err error) {
	token = os.Getenv("LEXDESK_TOKEN")
	userID = userFlag

	cred, loadErr := store.Load(context.Background(), credentials.DefaultProfile)
	if loadErr == nil {
		if token == "" {
			token = cred.Token
		}
		if userID == "" {
			userID = cred.UserID
		}
	}

	if token == "" {
		return "", "", fmt.Errorf("no token: run 'lexdesk-admin login' or set LEXDESK_TOKEN")
	}
	if userID == "" {
		if info, err := credentials.InspectToken(token); err == nil && info.Subject != "" {
			userID = info.Subject
		} else {
			userID = "user"
		}
	}
	return userID, token, nil
}
