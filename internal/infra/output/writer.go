// Package output writes the rendered digest page to disk.
package output

import (
	"fmt"
	"log/slog"
	"os"
)

// DefaultPath is where the page is written when no path is configured.
const DefaultPath = "index.html"

// FileMode is the permission used for the page file.
const FileMode os.FileMode = 0o644

// FileWriter writes the page to Path, replacing any existing content.
type FileWriter struct {
	Path string
}

// NewFileWriter creates a FileWriter for path, or DefaultPath when path is empty.
func NewFileWriter(path string) *FileWriter {
	if path == "" {
		path = DefaultPath
	}
	return &FileWriter{Path: path}
}

// Write stores content as UTF-8, truncating the file. The write is not atomic.
func (w *FileWriter) Write(content string) error {
	if err := os.WriteFile(w.Path, []byte(content), FileMode); err != nil {
		return fmt.Errorf("write %s: %w", w.Path, err)
	}
	slog.Info("digest written",
		slog.String("path", w.Path),
		slog.Int("bytes", len(content)))
	return nil
}
