package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"todolists/internal/store"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteSession writes the session's Markdown export to <toDir>/sessions/<id>.md.
func WriteSession(rec store.Record, toDir string, opt WriteOptions) (WriteResult, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return WriteResult{}, errors.New("missing session id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	outDir := filepath.Join(toDir, "sessions")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, id+".md")
	md := RenderSessionMarkdown(rec, RenderOptions{IncludeMeta: true})
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
