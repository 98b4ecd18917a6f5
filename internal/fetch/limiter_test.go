package fetch

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	if l.defaultBurst != 1 {
		t.Errorf("burst = %d, want 1", l.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(time.Millisecond, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "http://example.com/a"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := l.Wait(ctx, "http://other.com/b"); err != nil {
		t.Errorf("wait failed for second host: %v", err)
	}
}

func TestLimiter_ExhaustsBurst(t *testing.T) {
	l := NewLimiter(time.Minute, 1)

	if !l.Allow("http://example.com") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("http://example.com") {
		t.Error("second immediate request should be limited")
	}

	// Unrelated hosts have independent clocks.
	if !l.Allow("http://other.com") {
		t.Error("other host should be allowed")
	}
}

func TestLimiter_EnforcesGap(t *testing.T) {
	l := NewLimiter(50*time.Millisecond, 1)
	ctx := context.Background()
	url := "http://example.com"

	if err := l.Wait(ctx, url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, url); err != nil {
		t.Fatalf("second wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gap = %v, want >= ~50ms", elapsed)
	}
}

func TestLimiter_WaitCancellation(t *testing.T) {
	l := NewLimiter(time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())

	_ = l.Wait(ctx, "http://example.com")
	cancel()

	if err := l.Wait(ctx, "http://example.com"); err == nil {
		t.Error("expected error after cancellation")
	}
}

func TestLimiter_SetHostInterval(t *testing.T) {
	l := NewLimiter(time.Millisecond, 5)
	l.SetHostInterval("slow.com", time.Minute)

	if !l.Allow("http://slow.com/x") {
		t.Fatal("first request should pass")
	}
	if l.Allow("http://slow.com/x") {
		t.Error("slow host should now be limited")
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(time.Millisecond, 1)
	if err := l.Wait(context.Background(), "://bad"); err == nil {
		t.Error("expected error for unparseable URL")
	}
}
