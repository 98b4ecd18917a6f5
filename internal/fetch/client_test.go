package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rkalinin/corpora/internal/cache"
)

func testOptions() Options {
	return Options{
		Timeout:     5 * time.Second,
		UserAgent:   "corpora-test/1.0",
		MinInterval: time.Millisecond,
		Retries:     3,
	}
}

func TestClient_GetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "hello"}`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(), nil, nil)
	doc, err := client.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	v, ok := doc.Field("text")
	if !ok || v.Str() != "hello" {
		t.Errorf("text = %q, %v", v.Str(), ok)
	}
}

func TestClient_CacheShortCircuitsNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"n": 1}`))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore(time.Minute, time.Minute)
	client := NewClient(testOptions(), store, nil)
	ctx := context.Background()

	if _, err := client.Get(ctx, srv.URL, true); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if _, err := client.Get(ctx, srv.URL, true); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
	if client.CacheHits() != 1 {
		t.Errorf("cache hits = %d, want 1", client.CacheHits())
	}
}

func TestClient_NoCacheBypassesStore(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore(time.Minute, time.Minute)
	client := NewClient(testOptions(), store, nil)
	ctx := context.Background()

	_, _ = client.Get(ctx, srv.URL, true)
	_, _ = client.Get(ctx, srv.URL, false)

	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(), nil, nil)
	doc, err := client.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("Get failed after retries: %v", err)
	}
	if v, _ := doc.Field("ok"); !v.Bool() {
		t.Error("unexpected body")
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testOptions(), nil, nil)
	_, err := client.Get(context.Background(), srv.URL, true)

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *fetch.Error", err)
	}
	if fe.Kind != ErrStatus || fe.Status != http.StatusNotFound {
		t.Errorf("kind = %s, status = %d", fe.Kind, fe.Status)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (no retry)", hits.Load())
	}
}

func TestClient_NonJSONBodyIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := NewClient(testOptions(), nil, nil)
	_, err := client.Get(context.Background(), srv.URL, true)

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *fetch.Error", err)
	}
	if fe.Kind != ErrDecode {
		t.Errorf("kind = %s, want decode", fe.Kind)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.BearerToken = "secret-token"
	client := NewClient(opts, nil, nil)

	if _, err := client.Get(context.Background(), srv.URL, true); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestClient_WritesCacheAfterFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cached": true}`))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore(time.Minute, time.Minute)
	client := NewClient(testOptions(), store, nil)

	if _, err := client.Get(context.Background(), srv.URL, true); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if _, ok := store.Get(cache.Key(srv.URL)); !ok {
		t.Error("successful fetch was not written to the cache")
	}
}

func TestClient_InFlightFetchCompletesAfterCancel(t *testing.T) {
	headerSent := make(chan struct{})
	release := make(chan struct{})
	var serverCompleted atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "the body arrives `))
		w.(http.Flusher).Flush()
		close(headerSent)
		<-release
		_, _ = w.Write([]byte(`in two chunks"}`))
		serverCompleted.Store(true)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel strictly between the first and second body chunk, so the round
	// trip is in flight when the run stops.
	go func() {
		<-headerSent
		cancel()
		close(release)
	}()

	client := NewClient(testOptions(), nil, nil)
	doc, err := client.Get(ctx, srv.URL, true)
	if err != nil {
		t.Fatalf("in-flight fetch aborted: %v", err)
	}
	if !serverCompleted.Load() {
		t.Error("server did not finish serving the body")
	}
	if v, _ := doc.Field("text"); v.Str() != "the body arrives in two chunks" {
		t.Errorf("text = %q", v.Str())
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testOptions(), nil, nil)
	if _, err := client.Get(ctx, srv.URL, true); err == nil {
		t.Error("expected error with canceled context")
	}
}
