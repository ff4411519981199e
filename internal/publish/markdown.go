package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"todolists/internal/statusutil"
	"todolists/internal/store"
)

type RenderOptions struct {
	// IncludeMeta adds the session id and timestamps under the title.
	IncludeMeta bool
}

// RenderSessionMarkdown renders every list of the session as a Markdown
// checklist, in the same order the web view shows them.
func RenderSessionMarkdown(rec store.Record, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# Todo Lists")
	writeLn("")

	if opt.IncludeMeta {
		writeLn("- Session: " + rec.ID)
		if !rec.UpdatedAt.IsZero() {
			writeLn("- Updated: " + rec.UpdatedAt.UTC().Format(time.RFC3339))
		}
		if !rec.ExpiresAt.IsZero() {
			writeLn("- Expires: " + rec.ExpiresAt.UTC().Format(time.RFC3339))
		}
		writeLn("")
	}

	lists := statusutil.SortListsForDisplay(rec.Data.Lists)
	if len(lists) == 0 {
		writeLn("_No lists._")
		return buf.String()
	}

	for _, it := range lists {
		l := it.Value
		title := strings.TrimSpace(l.Name)
		if statusutil.IsListComplete(l) {
			title += " (complete)"
		}
		writeLn(fmt.Sprintf("## %s", title))
		writeLn("")
		writeLn(fmt.Sprintf("%d of %d remaining", statusutil.TodosRemainingCount(l), statusutil.TodosCount(l)))
		writeLn("")
		todos := statusutil.SortTodosForDisplay(l.Todos)
		if len(todos) == 0 {
			writeLn("_No todos._")
			writeLn("")
			continue
		}
		for _, t := range todos {
			box := "[ ]"
			if t.Value.Completed {
				box = "[x]"
			}
			writeLn(fmt.Sprintf("- %s %s", box, strings.TrimSpace(t.Value.Name)))
		}
		writeLn("")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}
