package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"todolists/internal/publish"
	"todolists/internal/statusutil"
	"todolists/internal/store"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

type sessionNotFoundError struct {
	id string
}

func (e sessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.id)
}

type sessionSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Lists     int       `json:"lists" yaml:"lists"`
	Todos     int       `json:"todos" yaml:"todos"`
	Remaining int       `json:"remaining" yaml:"remaining"`
	ListNames []string  `json:"listNames" yaml:"listNames"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

func summarize(rec store.Record, now time.Time) sessionSummary {
	s := sessionSummary{
		ID:        rec.ID,
		Lists:     len(rec.Data.Lists),
		ListNames: []string{},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		ExpiresAt: rec.ExpiresAt,
		Expired:   rec.Expired(now),
	}
	for _, l := range rec.Data.Lists {
		s.Todos += statusutil.TodosCount(l)
		s.Remaining += statusutil.TodosRemainingCount(l)
		s.ListNames = append(s.ListNames, l.Name)
	}
	return s
}

// openSessionDB opens the sqlite session store named by the resolved config.
// Memory sessions live inside the server process and cannot be inspected.
func openSessionDB(cmd *cobra.Command, app *App) (*store.SQLiteBackend, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return nil, err
	}
	path := cfg.SessionDBPath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no session database at %s (run `todolists serve --session-store sqlite` first)", path)
		}
		return nil, err
	}
	return store.OpenSQLite(cmd.Context(), path)
}

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain stored sessions (sqlite store)",
	}
	cmd.AddCommand(newSessionsListCmd(app))
	cmd.AddCommand(newSessionsShowCmd(app))
	cmd.AddCommand(newSessionsExportCmd(app))
	cmd.AddCommand(newSessionsPurgeCmd(app))
	return cmd
}

func newSessionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSessionDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			recs, err := db.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().UTC()
			rows := make([]sessionSummary, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, summarize(rec, now))
			}

			if strings.EqualFold(strings.TrimSpace(app.Format), "table") {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderSessionTable(rows))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
}

const (
	maxIDWidth    = 36
	maxListsWidth = 32
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableMutedStyle  = tableCellStyle.Faint(true)
)

func renderSessionTable(rows []sessionSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "LISTS", "TODOS", "LEFT", "NAMES", "UPDATED", "EXPIRES").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row >= 0 && row < len(rows) && rows[row].Expired:
				return tableMutedStyle
			default:
				return tableCellStyle
			}
		})
	for _, s := range rows {
		expires := s.ExpiresAt.Local().Format("2006-01-02 15:04")
		if s.Expired {
			expires += " (expired)"
		}
		t.Row(
			ansi.Truncate(s.ID, maxIDWidth, "…"),
			strconv.Itoa(s.Lists),
			strconv.Itoa(s.Todos),
			strconv.Itoa(s.Remaining),
			ansi.Truncate(strings.Join(s.ListNames, ", "), maxListsWidth, "…"),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			expires,
		)
	}
	return t.Render()
}

func newSessionsShowCmd(app *App) *cobra.Command {
	var raw bool
	var width int

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's lists as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSessionDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			id := strings.TrimSpace(args[0])
			rec, err := db.Load(cmd.Context(), id)
			if errors.Is(err, store.ErrSessionNotFound) {
				return writeErr(cmd, sessionNotFoundError{id: id})
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			md := publish.RenderSessionMarkdown(rec, publish.RenderOptions{IncludeMeta: true})
			if raw {
				_, err := io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			out, err := renderTerminalMarkdown(md, width)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print Markdown source instead of rendering it")
	cmd.Flags().IntVar(&width, "width", 80, "Word-wrap width for rendered output")
	return cmd
}

func renderTerminalMarkdown(md string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	style := styles.DarkStyle
	if termenv.EnvColorProfile() == termenv.Ascii {
		style = styles.NoTTYStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func newSessionsExportCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a session's lists to <to>/sessions/<id>.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				return writeErr(cmd, errors.New("missing --to"))
			}
			db, err := openSessionDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			id := strings.TrimSpace(args[0])
			rec, err := db.Load(cmd.Context(), id)
			if errors.Is(err, store.ErrSessionNotFound) {
				return writeErr(cmd, sessionNotFoundError{id: id})
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteSession(rec, toDir, publish.WriteOptions{Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing export")
	return cmd
}

func newSessionsPurgeCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions (or every session with --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSessionDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			ctx := cmd.Context()
			deleted := 0
			if all {
				recs, err := db.List(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				for _, rec := range recs {
					if err := db.Delete(ctx, rec.ID); err != nil {
						return writeErr(cmd, err)
					}
					deleted++
				}
			} else {
				deleted, err = db.DeleteExpired(ctx, time.Now().UTC())
				if err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"deleted": deleted, "all": all},
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every session, not only expired ones")
	return cmd
}
