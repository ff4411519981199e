package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"todolists/internal/config"
	"todolists/internal/store"
	"todolists/internal/web"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var (
		addr         string
		sessionStore string
		sessionTTL   time.Duration
		noCSRF       bool
		markdown     bool
		open         bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo lists web app",
		Long: strings.TrimSpace(`
Serve the todo lists web app from a local HTTP server.

Server-rendered HTML + CSS only. Every visitor gets their own lists, kept in
a signed-cookie session that expires after --session-ttl of inactivity.
`),
		Example: strings.TrimSpace(`
todolists serve --addr 127.0.0.1:4567
todolists serve --session-store sqlite --data-dir ./data
todolists --config todolists.toml serve
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = strings.TrimSpace(addr)
			}
			if flags.Changed("session-store") {
				cfg.SessionStore = strings.TrimSpace(sessionStore)
			}
			if flags.Changed("session-ttl") {
				cfg.SessionTTL = sessionTTL
			}
			if noCSRF {
				cfg.CSRF = false
			}
			if flags.Changed("markdown") {
				cfg.RenderMarkdown = markdown
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runServer(ctx, cmd, app, cfg, logger, open); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&sessionStore, "session-store", config.DefaultSessionStore, "Session store (memory|sqlite)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", config.DefaultSessionTTL, "Idle time after which a session expires")
	cmd.Flags().BoolVar(&noCSRF, "no-csrf", false, "Disable CSRF protection on forms")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render list and todo names as inline Markdown")
	cmd.Flags().BoolVar(&open, "open", false, "Open the app in your default browser")
	return cmd
}

// serverDeps is everything a running server owns.
type serverDeps struct {
	handler  http.Handler
	sessions *store.Manager
	backend  store.Backend
}

func (d *serverDeps) Close() error {
	if d == nil || d.backend == nil {
		return nil
	}
	return d.backend.Close()
}

func buildServer(ctx context.Context, cfg *config.Config, logger *log.Logger) (*serverDeps, error) {
	path := ""
	if cfg.SessionStore == store.BackendSQLite {
		path = cfg.SessionDBPath()
	}
	backend, err := store.Open(ctx, cfg.SessionStore, path)
	if err != nil {
		return nil, err
	}
	secret, err := resolveSecret(cfg)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("session secret: %w", err)
	}
	sessions := store.NewManager(backend, cfg.SessionTTL)
	srv, err := web.NewServer(web.ServerConfig{
		Sessions:       sessions,
		Secret:         secret,
		CSRF:           cfg.CSRF,
		SecureCookies:  cfg.SecureCookies,
		RenderMarkdown: cfg.RenderMarkdown,
		Logger:         logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &serverDeps{handler: srv.Handler(), sessions: sessions, backend: backend}, nil
}

// resolveSecret prefers the configured secret. Otherwise sqlite sessions get a
// persisted key so cookies survive restarts, and memory sessions a fresh one.
func resolveSecret(cfg *config.Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.SessionSecret); s != "" {
		return []byte(s), nil
	}
	if cfg.SessionStore == store.BackendSQLite {
		return web.LoadOrInitSecretKey(cfg.SecretKeyPath())
	}
	return web.NewSecretKey()
}

func runServer(ctx context.Context, cmd *cobra.Command, app *App, cfg *config.Config, logger *log.Logger, open bool) error {
	deps, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	actualAddr := ln.Addr().String()
	url := "http://" + actualAddr + "/"

	opened := false
	openErr := ""
	if open {
		if err := openBrowser(url); err != nil {
			openErr = err.Error()
		} else {
			opened = true
		}
	}
	_ = writeOut(cmd, app, map[string]any{
		"data": map[string]any{
			"addr":         actualAddr,
			"url":          url,
			"sessionStore": cfg.SessionStore,
			"sessionTTL":   cfg.SessionTTL.String(),
			"csrf":         cfg.CSRF,
			"opened":       opened,
			"openError":    openErr,
			"startedAt":    time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	logger.Info("todolists web running", "url", url, "session_store", cfg.SessionStore)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go deps.sessions.Run(sweepCtx, cfg.SweepInterval, logger)

	httpSrv := &http.Server{
		Handler:           deps.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openBrowser(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Run()
	default:
		return exec.Command("xdg-open", url).Run()
	}
}
