package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"todolists/internal/config"
	"todolists/internal/format"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	LogFormat  string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "todolists",
		Short:        "Session-scoped todo lists served over HTTP",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Serve on localhost with in-memory sessions
  todolists serve

  # Keep sessions across restarts
  todolists serve --session-store sqlite

  # Inspect stored sessions
  todolists sessions list --format table
  todolists sessions show <session-id>
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr(config.EnvPrefix+"CONFIG", ""), "Config file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Data directory for the sqlite session store and generated secret")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", "", "Log format (text|json|logfmt)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr(config.EnvPrefix+"FORMAT", "json"), "Output format (json|yaml; sessions list also accepts table)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSessionsCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// loadConfig resolves configuration with precedence flags > env > file > defaults.
// Command-specific flags are applied by the caller.
func loadConfig(app *App) (*config.Config, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(app.DataDir); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(app.LogFormat); v != "" {
		cfg.Log.Format = v
	}
	return cfg, nil
}

func newLogger(w io.Writer, lc config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(lc.Level)))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	formatter, err := parseLogFormatter(lc.Format)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "todolists",
	}), nil
}

func parseLogFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format: %s", format)
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
