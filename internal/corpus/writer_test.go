package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rkalinin/corpora/internal/model"
)

func TestWriter_EnsureDirCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	w := NewWriter(dir, nil)
	if err := w.EnsureDir(); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("output dir missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-check")); !os.IsNotExist(err) {
		t.Error("probe file left behind")
	}
}

func TestWriter_EnsureDirUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file modes")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0500); err != nil {
		t.Fatal(err)
	}

	if err := NewWriter(dir, nil).EnsureDir(); err == nil {
		t.Error("expected error for unwritable dir")
	}
}

func TestWriter_WriteFiles(t *testing.T) {
	dir := t.TempDir()
	x := NewIndex()
	x.Add("s", []model.Passage{passage("s:1", "s", "body text")})

	w := NewWriter(dir, nil)
	if err := w.Write(x.Finalize()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var passages []model.Passage
	data, err := os.ReadFile(filepath.Join(dir, "combined_corpus.json"))
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	if err := json.Unmarshal(data, &passages); err != nil {
		t.Fatalf("corpus not valid JSON: %v", err)
	}
	if len(passages) != 1 || passages[0].ID != "s:1" {
		t.Errorf("corpus content = %+v", passages)
	}

	var summary model.Summary
	data, err = os.ReadFile(filepath.Join(dir, "corpus_stats.json"))
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("stats not valid JSON: %v", err)
	}
	if summary.Total != 1 || summary.PerSource["s"] != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
