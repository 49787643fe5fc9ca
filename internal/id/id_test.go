package id

import (
	"strings"
	"testing"
	"time"
)

func TestUUIDFormat(t *testing.T) {
	u := UUID()
	if len(u) != 36 {
		t.Fatalf("expected 36 characters, got %d (%s)", len(u), u)
	}
	parts := strings.Split(u, "-")
	if len(parts) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(parts))
	}
	if parts[2][0] != '4' {
		t.Errorf("expected version 4, got %c", parts[2][0])
	}
}

func TestUUIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		u := UUID()
		if seen[u] {
			t.Fatalf("duplicate UUID: %s", u)
		}
		seen[u] = true
	}
}

func TestULIDFormat(t *testing.T) {
	u := ULID()
	if len(u) != 26 {
		t.Fatalf("expected 26 characters, got %d (%s)", len(u), u)
	}
	for i := 0; i < len(u); i++ {
		if strings.IndexByte(ulidEncoding, u[i]) < 0 {
			t.Fatalf("character %c outside the ULID alphabet: %s", u[i], u)
		}
	}
}

func TestULIDSortable(t *testing.T) {
	first := ULID()
	time.Sleep(2 * time.Millisecond)
	second := ULID()
	if first >= second {
		t.Errorf("expected %s < %s", first, second)
	}
}

func TestULIDUniquenessSameMillisecond(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		u := ULID()
		if seen[u] {
			t.Fatalf("duplicate ULID: %s", u)
		}
		seen[u] = true
	}
}

