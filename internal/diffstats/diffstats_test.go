package diffstats

import "testing"

func TestEmptyOldContent(t *testing.T) {
	stats := Calculate("", "a\nb\nc")

	if stats.Added != 3 || stats.Removed != 0 || stats.Modified != 0 {
		t.Errorf("Expected {3 0 0}, got %+v", stats)
	}
}

func TestEmptyNewContent(t *testing.T) {
	stats := Calculate("a\nb", "")

	if stats.Removed != 2 || stats.Added != 0 || stats.Modified != 0 {
		t.Errorf("Expected {0 2 0}, got %+v", stats)
	}
}

func TestIdenticalContent(t *testing.T) {
	stats := Calculate("same\ncontent", "same\ncontent")

	if !stats.IsZero() {
		t.Errorf("Identical content should produce zero stats, got %+v", stats)
	}
}

func TestPureAddition(t *testing.T) {
	stats := Calculate("a\nb", "a\nb\nc\nd")

	if stats.Added != 2 {
		t.Errorf("Expected 2 added lines, got %+v", stats)
	}
	if stats.Removed != 0 || stats.Modified != 0 {
		t.Errorf("Pure addition should not remove or modify, got %+v", stats)
	}
}

func TestPureRemoval(t *testing.T) {
	stats := Calculate("a\nb\nc", "a\nc")

	if stats.Removed != 1 {
		t.Errorf("Expected 1 removed line, got %+v", stats)
	}
	if stats.Added != 0 || stats.Modified != 0 {
		t.Errorf("Pure removal should not add or modify, got %+v", stats)
	}
}

func TestModification(t *testing.T) {
	stats := Calculate("a\nmiddle\nc", "a\nMIDDLE\nc")

	if stats.Modified != 1 {
		t.Errorf("Expected 1 modified line, got %+v", stats)
	}
	if stats.Added != 0 || stats.Removed != 0 {
		t.Errorf("In-place change should count only as modified, got %+v", stats)
	}
}

func TestModificationWithOverhang(t *testing.T) {
	// One line replaced by three: one modified, two added.
	stats := Calculate("a\nx\nz", "a\n1\n2\n3\nz")

	if stats.Modified != 1 || stats.Added != 2 || stats.Removed != 0 {
		t.Errorf("Expected {2 0 1}, got %+v", stats)
	}
}

func TestPlus(t *testing.T) {
	total := Stats{Added: 1, Removed: 2}.Plus(Stats{Added: 3, Modified: 4})

	if total.Added != 4 || total.Removed != 2 || total.Modified != 4 {
		t.Errorf("Plus incorrect: %+v", total)
	}
}
