package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todolists/internal/config"
	"todolists/internal/model"
	"todolists/internal/store"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// seedSessions writes two live sessions and one expired one into a fresh
// sqlite store under dir.
func seedSessions(t *testing.T, dir string) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = dir

	ctx := context.Background()
	db, err := store.OpenSQLite(ctx, cfg.SessionDBPath())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	recs := []store.Record{
		{
			ID: "sess-home",
			Data: model.Session{Lists: []model.List{{Name: "Home", Todos: []model.Todo{
				{Name: "Milk"},
				{Name: "Eggs", Completed: true},
				{Name: "Bread"},
			}}}},
			CreatedAt: now.Add(-2 * time.Hour),
			UpdatedAt: now.Add(-time.Hour),
			ExpiresAt: now.Add(23 * time.Hour),
		},
		{
			ID:        "sess-empty",
			Data:      model.Session{Lists: []model.List{}},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		},
		{
			ID:        "sess-old",
			Data:      model.Session{Lists: []model.List{{Name: "Old"}}},
			CreatedAt: now.Add(-72 * time.Hour),
			UpdatedAt: now.Add(-48 * time.Hour),
			ExpiresAt: now.Add(-24 * time.Hour),
		},
	}
	for _, rec := range recs {
		if err := db.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", rec.ID, err)
		}
	}
}

type listEnvelope struct {
	Data []sessionSummary `json:"data"`
}

func TestSessionsList_JSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)

	stdout, stderr, err := runCLI(t, []string{"--data-dir", dir, "sessions", "list"})
	if err != nil {
		t.Fatalf("sessions list: %v\nstderr:\n%s", err, stderr)
	}
	var env listEnvelope
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	if len(env.Data) != 3 {
		t.Fatalf("want 3 sessions, got %d", len(env.Data))
	}
	// Most recently updated first.
	if env.Data[0].ID != "sess-empty" || env.Data[1].ID != "sess-home" || env.Data[2].ID != "sess-old" {
		t.Fatalf("order: got %s, %s, %s", env.Data[0].ID, env.Data[1].ID, env.Data[2].ID)
	}
	home := env.Data[1]
	if home.Lists != 1 || home.Todos != 3 || home.Remaining != 2 || home.Expired {
		t.Fatalf("home summary: %+v", home)
	}
	if !env.Data[2].Expired {
		t.Fatalf("expected sess-old to be reported expired")
	}
}

func TestSessionsList_YAMLAndTable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)

	stdout, stderr, err := runCLI(t, []string{"--data-dir", dir, "--format", "yaml", "sessions", "list"})
	if err != nil {
		t.Fatalf("sessions list yaml: %v\nstderr:\n%s", err, stderr)
	}
	var env struct {
		Data []map[string]any `yaml:"data"`
	}
	if err := yaml.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal yaml: %v\nstdout:\n%s", err, stdout)
	}
	if len(env.Data) != 3 {
		t.Fatalf("want 3 sessions, got %d", len(env.Data))
	}

	stdout, stderr, err = runCLI(t, []string{"--data-dir", dir, "--format", "table", "sessions", "list"})
	if err != nil {
		t.Fatalf("sessions list table: %v\nstderr:\n%s", err, stderr)
	}
	out := string(stdout)
	for _, want := range []string{"ID", "sess-home", "sess-old", "(expired)", "Home"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSessionsList_NoDatabase(t *testing.T) {
	t.Parallel()
	_, stderr, err := runCLI(t, []string{"--data-dir", t.TempDir(), "sessions", "list"})
	if err == nil {
		t.Fatalf("expected error without a session database")
	}
	if !strings.Contains(string(stderr), "no session database") {
		t.Fatalf("stderr: %s", stderr)
	}
}

func TestSessionsShow(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)

	stdout, stderr, err := runCLI(t, []string{"--data-dir", dir, "sessions", "show", "sess-home", "--raw"})
	if err != nil {
		t.Fatalf("show --raw: %v\nstderr:\n%s", err, stderr)
	}
	md := string(stdout)
	for _, want := range []string{"# Todo Lists", "- Session: sess-home", "## Home", "- [ ] Milk", "- [x] Eggs"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	stdout, stderr, err = runCLI(t, []string{"--data-dir", dir, "sessions", "show", "sess-home"})
	if err != nil {
		t.Fatalf("show: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(string(stdout), "Milk") {
		t.Fatalf("rendered output missing todo:\n%s", stdout)
	}

	_, stderr, err = runCLI(t, []string{"--data-dir", dir, "sessions", "show", "nope"})
	if err == nil || !strings.Contains(string(stderr), "session not found: nope") {
		t.Fatalf("want not found error, got err=%v stderr=%s", err, stderr)
	}
}

func TestSessionsExport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)
	to := t.TempDir()

	_, stderr, err := runCLI(t, []string{"--data-dir", dir, "sessions", "export", "sess-home", "--to", to})
	if err != nil {
		t.Fatalf("export: %v\nstderr:\n%s", err, stderr)
	}
	b, err := os.ReadFile(filepath.Join(to, "sessions", "sess-home.md"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), "- [ ] Bread") {
		t.Fatalf("export content:\n%s", b)
	}

	if _, _, err := runCLI(t, []string{"--data-dir", dir, "sessions", "export", "sess-home", "--to", to}); err == nil {
		t.Fatalf("expected error when export exists without --overwrite")
	}
}

func TestSessionsPurge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)

	purged := func(args ...string) int {
		t.Helper()
		stdout, stderr, err := runCLI(t, append([]string{"--data-dir", dir, "sessions", "purge"}, args...))
		if err != nil {
			t.Fatalf("purge %v: %v\nstderr:\n%s", args, err, stderr)
		}
		var env struct {
			Data struct {
				Deleted int `json:"deleted"`
			} `json:"data"`
		}
		if err := json.Unmarshal(stdout, &env); err != nil {
			t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
		}
		return env.Data.Deleted
	}

	if n := purged(); n != 1 {
		t.Fatalf("expired purge: want 1, got %d", n)
	}
	if n := purged(); n != 0 {
		t.Fatalf("second purge: want 0, got %d", n)
	}
	if n := purged("--all"); n != 2 {
		t.Fatalf("purge --all: want 2, got %d", n)
	}
}

func TestConfigFile_SetsDataDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seedSessions(t, dir)

	cfgPath := filepath.Join(t.TempDir(), "todolists.toml")
	if err := os.WriteFile(cfgPath, []byte("data_dir = "+tomlString(dir)+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	stdout, stderr, err := runCLI(t, []string{"--config", cfgPath, "sessions", "list"})
	if err != nil {
		t.Fatalf("sessions list: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(string(stdout), "sess-home") {
		t.Fatalf("stdout:\n%s", stdout)
	}
}

func tomlString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestBuildServer_Memory(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	deps, err := buildServer(context.Background(), cfg, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer deps.Close()

	rr := httptest.NewRecorder()
	deps.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: want 200, got %d", rr.Code)
	}
	if _, err := os.Stat(cfg.SecretKeyPath()); !os.IsNotExist(err) {
		t.Fatalf("memory store should not persist a secret key (stat err=%v)", err)
	}
}

func TestBuildServer_SQLitePersistsSecret(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SessionStore = store.BackendSQLite

	deps, err := buildServer(context.Background(), cfg, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer deps.Close()

	if _, err := os.Stat(cfg.SecretKeyPath()); err != nil {
		t.Fatalf("expected generated secret at %s: %v", cfg.SecretKeyPath(), err)
	}
	if _, err := os.Stat(cfg.SessionDBPath()); err != nil {
		t.Fatalf("expected session db at %s: %v", cfg.SessionDBPath(), err)
	}

	rr := httptest.NewRecorder()
	deps.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lists", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("lists: want 200, got %d", rr.Code)
	}
	recs, err := deps.backend.List(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("want one persisted session, got %d (err=%v)", len(recs), err)
	}
}

func TestResolveSecret_PrefersConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.SessionSecret = "  configured  "
	got, err := resolveSecret(cfg)
	if err != nil || string(got) != "configured" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("request", "status", 200)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line logged at info level: %s", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("want one JSON line, got %q: %v", out, err)
	}
	if line["msg"] != "request" {
		t.Fatalf("msg: got %v", line["msg"])
	}

	if _, err := newLogger(&buf, config.LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := newLogger(&buf, config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, []string{"docs"})
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	if !strings.Contains(string(stdout), `"sessions"`) {
		t.Fatalf("topics: %s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"docs", "routes", "--raw"})
	if err != nil {
		t.Fatalf("docs routes: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "# Routes") {
		t.Fatalf("raw body: %s", stdout)
	}

	if _, stderr, err := runCLI(t, []string{"docs", "nope"}); err == nil || !strings.Contains(string(stderr), "unknown docs topic") {
		t.Fatalf("want unknown topic error, got err=%v stderr=%s", err, stderr)
	}
}
