package ids

import (
	"strings"
	"testing"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("id %q not greater than %q", next, prev)
		}
		prev = next
	}
}

func TestNewPrefixed(t *testing.T) {
	id := NewPrefixed("trn_")
	if !strings.HasPrefix(id, "trn_") || len(id) != len("trn_")+26 {
		t.Fatalf("unexpected id %q", id)
	}
	if got := NewPrefixed(""); len(got) != 26 {
		t.Fatalf("unexpected unprefixed id %q", got)
	}
}
