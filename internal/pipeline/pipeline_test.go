package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rkalinin/corpora/internal/model"
)

func testConfig(t *testing.T, srv *httptest.Server) *model.Config {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Rate.MinInterval = time.Millisecond
	cfg.Rate.Burst = 100
	cfg.HTTP.Retries = 1
	cfg.Output.Dir = t.TempDir()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestExecute_NoSources(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Output.Dir = t.TempDir()

	if _, err := New(cfg, nil).Execute(context.Background()); err == nil {
		t.Fatal("expected error for empty source list")
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"ref": "ref for %s", "text": "body text served for page %s"}`, r.URL.Path, r.URL.Path)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.Sources = []model.SourceSpec{
		{
			Name:      "one",
			ProbeURLs: []string{srv.URL + "/one/1"},
			Pages:     model.PageSpec{Template: srv.URL + "/one/{n}", Start: 1, Count: 2},
		},
		{
			Name:      "two",
			ProbeURLs: []string{srv.URL + "/two/1"},
			Pages:     model.PageSpec{Template: srv.URL + "/two/{n}", Start: 1, Count: 1},
		},
	}

	run, err := New(cfg, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if run.Corpus.Summary.Total != 3 {
		t.Errorf("total = %d, want 3", run.Corpus.Summary.Total)
	}
	if run.Corpus.Summary.PerSource["one"] != 2 || run.Corpus.Summary.PerSource["two"] != 1 {
		t.Errorf("per-source = %v", run.Corpus.Summary.PerSource)
	}
	if len(run.Sources) != 2 {
		t.Errorf("source results = %d, want 2", len(run.Sources))
	}

	// The corpus file on disk must agree with the in-memory result.
	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "combined_corpus.json"))
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	var passages []model.Passage
	if err := json.Unmarshal(data, &passages); err != nil {
		t.Fatalf("corpus not valid JSON: %v", err)
	}
	if len(passages) != 3 {
		t.Errorf("written passages = %d, want 3", len(passages))
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "corpus_stats.json")); err != nil {
		t.Errorf("stats file missing: %v", err)
	}
}

func TestExecute_CachePersistsAcrossRuns(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"text": "a page body that should be cached on disk"}`)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.Sources = []model.SourceSpec{{
		Name:      "cached",
		ProbeURLs: []string{srv.URL + "/p/1"},
		Pages:     model.PageSpec{Template: srv.URL + "/p/{n}", Start: 1, Count: 1},
	}}

	if _, err := New(cfg, nil).Execute(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := hits
	if first == 0 {
		t.Fatal("no upstream requests at all")
	}

	if _, err := New(cfg, nil).Execute(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if hits != first {
		t.Errorf("second run hit upstream %d more times, want 0", hits-first)
	}
}

func TestExecute_FailingSourceDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/bad") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"text": "the good source still produces a passage"}`)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.Cache.Enabled = false
	cfg.Sources = []model.SourceSpec{
		{
			Name:      "good",
			ProbeURLs: []string{srv.URL + "/good/1"},
			Pages:     model.PageSpec{Template: srv.URL + "/good/{n}", Start: 1, Count: 1},
		},
		{
			Name:      "bad",
			ProbeURLs: []string{srv.URL + "/bad/1"},
			Pages:     model.PageSpec{Template: srv.URL + "/bad/{n}", Start: 1, Count: 1},
		},
	}

	run, err := New(cfg, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if run.Corpus.Summary.Total != 1 {
		t.Errorf("total = %d, want 1 passage from the good source", run.Corpus.Summary.Total)
	}
	for _, r := range run.Sources {
		if r.Source == "bad" && r.Stats.Errors == 0 {
			t.Error("failing source reported no errors")
		}
	}
}

func TestExecute_UnwritableOutputDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file modes")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(parent, 0700) }()

	cfg := model.DefaultConfig()
	cfg.Output.Dir = filepath.Join(parent, "out")
	cfg.Sources = []model.SourceSpec{{Name: "s", Pages: model.PageSpec{Template: "http://127.0.0.1:0/{n}", Count: 1}}}

	if _, err := New(cfg, nil).Execute(context.Background()); err == nil {
		t.Fatal("expected error before any fetching")
	}
}
