package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestULID_Format(t *testing.T) {
	id := generateULID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Errorf("unexpected character %q in %q", c, id)
		}
	}
	if id[0] > '7' {
		t.Errorf("expected leading character to hold 3 bits, got %q", id[0])
	}
}

func TestULID_KnownTimestamp(t *testing.T) {
	// 2^47 ms sets only the top timestamp bit: leading group 0b100.
	id := newULID(time.UnixMilli(1 << 47))
	if !strings.HasPrefix(id, "4000000000") {
		t.Errorf("expected time prefix 4000000000, got %q", id[:10])
	}
}

func TestULID_SortsWithinMillisecond(t *testing.T) {
	now := time.Now()
	prev := newULID(now)
	for i := 0; i < 100; i++ {
		next := newULID(now)
		if next <= prev {
			t.Fatalf("expected %q > %q", next, prev)
		}
		prev = next
	}
}
