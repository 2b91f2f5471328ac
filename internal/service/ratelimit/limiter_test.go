package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("ip", 2, 1) {
			t.Fatalf("token %d should be allowed", i)
		}
	}
	if l.Allow("ip", 2, 1) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatal("keys must not share a bucket")
	}
	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("ip", 2, 1) {
		t.Fatal("bucket should have refilled one token")
	}
	if l.Allow("ip", 2, 1) {
		t.Fatal("only half a token left")
	}
}

func TestLimiterSweepsRefilledBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for _, ip := range []string{"a", "b", "c"} {
		l.Allow(ip, 2, 1)
	}
	l.Allow("a", 2, 1)
	l.Allow("a", 2, 1)
	if l.Len() != 3 {
		t.Fatalf("want 3 buckets, got %d", l.Len())
	}

	now = now.Add(time.Second)
	if n := l.Sweep(); n != 2 || l.Len() != 1 {
		t.Fatalf("only refilled buckets should go: swept=%d left=%d", n, l.Len())
	}
	if !l.Allow("a", 2, 1) || l.Allow("a", 2, 1) {
		t.Fatal("kept bucket must keep its level")
	}

	now = now.Add(2 * sweepEvery)
	l.Allow("d", 2, 1)
	if l.Len() != 1 {
		t.Fatalf("Allow should sweep idle buckets, got %d left", l.Len())
	}
}
