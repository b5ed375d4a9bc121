// Copyright (c) 2025 BVK Chaitanya

package trust

import (
	"context"
	"testing"
	"time"

	"github.com/bvk/barterbot/economy"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		input string
		want  economy.DupeVerdict
		fails bool
	}{
		{"clean", economy.DupeClean, false},
		{"duplicate", economy.DupeConfirmed, false},
		{"unknown", economy.DupeIndeterminate, false},
		{"", economy.DupeIndeterminate, false},
		{"bogus", economy.DupeIndeterminate, true},
	}
	for _, test := range tests {
		v, err := parseVerdict(test.input)
		if test.fails {
			if err == nil {
				t.Fatalf("verdict %q must fail", test.input)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if v != test.want {
			t.Fatalf("verdict %q: want %v, got %v", test.input, test.want, v)
		}
	}
}

func TestDupeCheckRateLimit(t *testing.T) {
	c, err := New(&Options{DupeChecksPerSecond: 100})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// The first token is available immediately; the second waits one
	// limiter interval.
	start := time.Now()
	if err := c.limiter.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.limiter.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(start); d < 5*time.Millisecond {
		t.Fatalf("second dupe check must be paced, took %s", d)
	}
}

func TestCanceledDupeCheck(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Exhaust the initial token so Wait must block and observe the
	// canceled context.
	c.limiter.Allow()
	if _, err := c.CheckDuplicate(ctx, "i-1", "ctx-1"); err == nil {
		t.Fatalf("canceled check must fail")
	}
}
