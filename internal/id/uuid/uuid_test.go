package uuid

import "testing"

func TestNewIDProducesUniqueSortableIDs(t *testing.T) {
	gen := NewGenerator()

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}

	if first == second {
		t.Fatal("expected distinct IDs")
	}
	if len(first) != 36 {
		t.Fatalf("expected canonical UUID length, got %d", len(first))
	}
}
