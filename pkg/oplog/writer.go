package oplog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/domain"
)

// DefaultDir is where reports land when no directory is configured
const DefaultDir = "./logs"

// Writer persists rendered reports to a directory
type Writer struct {
	dir string
}

// NewWriter creates a writer for the given directory, falling back to
// DefaultDir when dir is empty
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir}
}

// Write renders the finalized log and writes it to
// <dir>/<operation>-<sanitized-ISO-timestamp>.log, returning the path
func (w *Writer) Write(l *domain.OperationLog) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, Filename(l.Kind, l.StartedAt))
	if err := os.WriteFile(path, []byte(Render(l)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write operation log %s: %w", path, err)
	}
	return path, nil
}

// Filename builds the report filename for an operation started at ts.
// Colons in the ISO timestamp are replaced so the name is safe on every
// filesystem.
func Filename(kind domain.OperationKind, ts time.Time) string {
	stamp := strings.ReplaceAll(ts.UTC().Format(time.RFC3339), ":", "-")
	return fmt.Sprintf("%s-%s.log", kind, stamp)
}
