package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todolists/internal/model"
	"todolists/internal/store"
)

func sampleRecord() store.Record {
	now := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	return store.Record{
		ID:        "sess-1",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
		Data: model.Session{Lists: []model.List{
			{Name: "Done", Todos: []model.Todo{{Name: "Ship", Completed: true}}},
			{Name: "Home", Todos: []model.Todo{
				{Name: "Milk"},
				{Name: "Eggs", Completed: true},
				{Name: "Bread"},
			}},
			{Name: "Empty"},
		}},
	}
}

func TestRenderSessionMarkdown(t *testing.T) {
	t.Parallel()

	md := RenderSessionMarkdown(sampleRecord(), RenderOptions{})
	if !strings.HasPrefix(md, "# Todo Lists\n") {
		t.Fatalf("expected title header, got:\n%s", md)
	}
	if strings.Contains(md, "Session: sess-1") {
		t.Fatalf("meta rendered without IncludeMeta:\n%s", md)
	}

	// Incomplete lists first, then complete ones.
	home, empty, done := strings.Index(md, "## Home"), strings.Index(md, "## Empty"), strings.Index(md, "## Done (complete)")
	if home < 0 || empty < 0 || done < 0 || !(home < empty && empty < done) {
		t.Fatalf("list order wrong (home=%d empty=%d done=%d):\n%s", home, empty, done, md)
	}

	milk, bread, eggs := strings.Index(md, "- [ ] Milk"), strings.Index(md, "- [ ] Bread"), strings.Index(md, "- [x] Eggs")
	if milk < 0 || bread < 0 || eggs < 0 || !(milk < bread && bread < eggs) {
		t.Fatalf("todo order wrong:\n%s", md)
	}
	if !strings.Contains(md, "2 of 3 remaining") {
		t.Fatalf("expected counts, got:\n%s", md)
	}
	if !strings.Contains(md, "_No todos._") {
		t.Fatalf("expected empty-list marker, got:\n%s", md)
	}
}

func TestRenderSessionMarkdown_Empty(t *testing.T) {
	t.Parallel()
	md := RenderSessionMarkdown(store.Record{ID: "x"}, RenderOptions{IncludeMeta: true})
	if !strings.Contains(md, "- Session: x") || !strings.Contains(md, "_No lists._") {
		t.Fatalf("got:\n%s", md)
	}
}

func TestWriteSession(t *testing.T) {
	t.Parallel()

	to := t.TempDir()
	res, err := WriteSession(sampleRecord(), to, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	want := filepath.Join(to, "sessions", "sess-1.md")
	if len(res.Written) != 1 || res.Written[0] != want {
		t.Fatalf("written: want [%s], got %v", want, res.Written)
	}
	b, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "- Session: sess-1") {
		t.Fatalf("expected meta in export, got:\n%s", b)
	}

	if _, err := WriteSession(sampleRecord(), to, WriteOptions{}); err == nil {
		t.Fatalf("expected error when file exists without overwrite")
	}
	if _, err := WriteSession(sampleRecord(), to, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
