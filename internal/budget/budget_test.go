package budget

import "testing"

func TestBytes_ExceededOnlyPastLimit(t *testing.T) {
	b := NewBytes(1)
	b.Add(MiB)
	if b.Exceeded() {
		t.Fatalf("reaching the limit exactly must not count as exceeded")
	}
	b.Add(1)
	if !b.Exceeded() {
		t.Fatalf("expected exceeded after going one past limit")
	}
	if b.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", b.Remaining())
	}
}

func TestBytes_AddTextCountsRunes(t *testing.T) {
	b := NewBytes(1)
	n := b.AddText("ÁáČč")
	if n != 4 {
		t.Fatalf("AddText returned %d, want 4", n)
	}
	if b.Used() != 4 {
		t.Fatalf("used = %d, want 4", b.Used())
	}
}

func TestBytes_Monotonic(t *testing.T) {
	b := NewBytes(1)
	b.Add(10)
	b.Add(-5)
	b.Add(0)
	if b.Used() != 10 {
		t.Fatalf("used = %d, want 10", b.Used())
	}
}

func TestBytes_ZeroBudget(t *testing.T) {
	b := NewBytes(0)
	if b.Exceeded() {
		t.Fatalf("empty budget should not be exceeded before any text")
	}
	b.AddText("a")
	if !b.Exceeded() {
		t.Fatalf("expected exceeded")
	}
}
