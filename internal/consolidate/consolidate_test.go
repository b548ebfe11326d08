package consolidate

import (
	"strings"
	"testing"

	"github.com/editledger/editledger/internal/lineops"
)

func TestSingleChangePassesThrough(t *testing.T) {
	changes := []FileChange{
		{Path: "./src/main.go", Content: "package main"},
	}

	result := Consolidate(changes)

	if len(result.Changes) != 1 {
		t.Fatalf("Expected 1 change, got %d", len(result.Changes))
	}
	if result.Changes[0].Path != "src/main.go" {
		t.Errorf("Path not normalized: %q", result.Changes[0].Path)
	}
	if len(result.MergedFiles) != 0 {
		t.Errorf("Nothing should have been merged: %v", result.MergedFiles)
	}
	if result.Stats.InputChanges != 1 || result.Stats.OutputChanges != 1 {
		t.Errorf("Stats incorrect: %+v", result.Stats)
	}
}

func TestPathNormalizationGroups(t *testing.T) {
	changes := []FileChange{
		{Path: "./main.ts", LineOperations: []lineops.Operation{{Type: lineops.OpDelete, Line: 1}}},
		{Path: "main.ts", LineOperations: []lineops.Operation{{Type: lineops.OpDelete, Line: 2}}},
		{Path: "\\other.ts", Content: "x"},
	}

	result := Consolidate(changes)

	if len(result.Changes) != 2 {
		t.Fatalf("Expected 2 consolidated changes, got %d", len(result.Changes))
	}
	if len(result.MergedFiles) != 1 || result.MergedFiles[0] != "main.ts" {
		t.Errorf("Expected main.ts to be merged, got %v", result.MergedFiles)
	}
}

func TestDeleteBeatsReplace(t *testing.T) {
	changes := []FileChange{
		{Path: "main.ts", LineOperations: []lineops.Operation{
			{Type: lineops.OpReplace, Line: 3, NewContent: "replaced"},
		}},
		{Path: "main.ts", LineOperations: []lineops.Operation{
			{Type: lineops.OpDelete, Line: 3},
		}},
	}

	result := Consolidate(changes)

	ops := result.Changes[0].LineOperations
	if len(ops) != 1 {
		t.Fatalf("Expected exactly 1 operation, got %d", len(ops))
	}
	if ops[0].Type != lineops.OpDelete || ops[0].Line != 3 {
		t.Errorf("Expected a single delete at line 3, got %+v", ops[0])
	}
}

func TestLastReplaceWins(t *testing.T) {
	changes := []FileChange{
		{Path: "a.go", LineOperations: []lineops.Operation{
			{Type: lineops.OpReplace, Line: 7, NewContent: "first"},
		}},
		{Path: "a.go", LineOperations: []lineops.Operation{
			{Type: lineops.OpReplace, Line: 7, NewContent: "second"},
		}},
	}

	result := Consolidate(changes)

	ops := result.Changes[0].LineOperations
	if len(ops) != 1 || ops[0].NewContent != "second" {
		t.Errorf("Last submitted replace should win, got %+v", ops)
	}
}

func TestInsertsCombine(t *testing.T) {
	changes := []FileChange{
		{Path: "main.ts", LineOperations: []lineops.Operation{
			{Type: lineops.OpInsertAfter, Line: 5, NewContent: "A"},
		}},
		{Path: "main.ts", LineOperations: []lineops.Operation{
			{Type: lineops.OpInsertAfter, Line: 5, NewContent: "B"},
		}},
	}

	result := Consolidate(changes)

	ops := result.Changes[0].LineOperations
	if len(ops) != 1 {
		t.Fatalf("Expected 1 combined insert, got %d", len(ops))
	}
	if !strings.Contains(ops[0].NewContent, "A") || !strings.Contains(ops[0].NewContent, "B") {
		t.Errorf("Combined insert should contain both contents: %q", ops[0].NewContent)
	}
	if strings.Index(ops[0].NewContent, "A") > strings.Index(ops[0].NewContent, "B") {
		t.Errorf("Insert contents should keep submission order: %q", ops[0].NewContent)
	}
}

func TestOperationsSortedDescending(t *testing.T) {
	changes := []FileChange{
		{Path: "f.go", LineOperations: []lineops.Operation{
			{Type: lineops.OpDelete, Line: 2},
			{Type: lineops.OpDelete, Line: 9},
		}},
		{Path: "f.go", LineOperations: []lineops.Operation{
			{Type: lineops.OpDelete, Line: 5},
		}},
	}

	result := Consolidate(changes)

	ops := result.Changes[0].LineOperations
	for i := 1; i < len(ops); i++ {
		if ops[i].Line > ops[i-1].Line {
			t.Errorf("Operations not sorted descending: %+v", ops)
		}
	}
}

func TestLastFullContentWins(t *testing.T) {
	changes := []FileChange{
		{Path: "doc.md", Content: "first version"},
		{Path: "doc.md", Content: "second version"},
	}

	result := Consolidate(changes)

	if result.Changes[0].Content != "second version" {
		t.Errorf("Last full content should win, got %q", result.Changes[0].Content)
	}
}

func TestDiffOnlyContentsConcatenate(t *testing.T) {
	changes := []FileChange{
		{Path: "doc.md", Content: "part one", IsDiff: true},
		{Path: "doc.md", Content: "part two", IsDiff: true},
	}

	result := Consolidate(changes)

	merged := result.Changes[0]
	if !merged.IsDiff {
		t.Errorf("Concatenated diff edits should remain diff-marked")
	}
	if merged.Content != "part one\npart two" {
		t.Errorf("Diff contents should concatenate in order: %q", merged.Content)
	}
}

func TestLineRangesMerge(t *testing.T) {
	changes := []FileChange{
		{Path: "x.go", LineRange: &LineRange{Start: 10, End: 20},
			LineOperations: []lineops.Operation{{Type: lineops.OpDelete, Line: 12}}},
		{Path: "x.go", LineRange: &LineRange{Start: 5, End: 15},
			LineOperations: []lineops.Operation{{Type: lineops.OpDelete, Line: 7}}},
	}

	result := Consolidate(changes)

	r := result.Changes[0].LineRange
	if r == nil || r.Start != 5 || r.End != 20 {
		t.Errorf("Expected merged range [5,20], got %+v", r)
	}
}
