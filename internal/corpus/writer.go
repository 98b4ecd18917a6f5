package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Writer persists the finalized corpus. File names follow the layout the
// downstream statistics tooling reads.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}
}

// EnsureDir verifies the output directory is creatable and writable. This
// runs before any fetching: an unwritable output dir is the one error that
// fails a run up front.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	probe := filepath.Join(w.dir, ".write-check")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return fmt.Errorf("output dir not writable: %w", err)
	}
	_ = os.Remove(probe)

	return nil
}

// Write emits the combined corpus and its summary as indented JSON.
func (w *Writer) Write(result *Result) error {
	if err := w.writeJSON("combined_corpus.json", result.Passages); err != nil {
		return err
	}
	if err := w.writeJSON("corpus_stats.json", result.Summary); err != nil {
		return err
	}

	w.logger.Info("corpus written",
		zap.String("dir", w.dir),
		zap.Int("passages", result.Summary.Total),
	)

	return nil
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}
