package lineops

import (
	"errors"
	"strings"
	"testing"
)

func TestDeleteOperations(t *testing.T) {
	original := "line1\nline2\nline3\nline4"

	// Delete two lines in ascending submission order; the engine must apply
	// them highest-first so the indices stay valid.
	ops := []Operation{
		{Type: OpDelete, Line: 2},
		{Type: OpDelete, Line: 4},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}

	expected := "line1\nline3"
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestAtomicityOnValidationFailure(t *testing.T) {
	original := "alpha\nbeta\ngamma"

	// Second operation is out of range; the first must not be applied.
	ops := []Operation{
		{Type: OpDelete, Line: 1},
		{Type: OpDelete, Line: 10},
	}

	result, err := ValidateAndApply(original, ops)
	if err == nil {
		t.Fatalf("Expected validation error, got none")
	}
	if result != original {
		t.Errorf("Content mutated despite failed validation: %q", result)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if verr.OpIndex != 1 || verr.Line != 10 {
		t.Errorf("Error should identify operation 1 at line 10, got op %d line %d", verr.OpIndex, verr.Line)
	}
}

func TestExpectedContentMismatch(t *testing.T) {
	original := "func main() {\n\tfmt.Println(\"hi\")\n}"

	ops := []Operation{
		{Type: OpReplace, Line: 2, ExpectedContent: "log.Println", NewContent: "log.Printf"},
	}

	result, err := ValidateAndApply(original, ops)
	if err == nil {
		t.Fatalf("Expected validation error for mismatched content")
	}
	if result != original {
		t.Errorf("Content mutated on mismatch")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if verr.Expected != "log.Println" {
		t.Errorf("Expected content not reported: %q", verr.Expected)
	}
	if !strings.Contains(verr.Actual, "fmt.Println") {
		t.Errorf("Actual line content not reported: %q", verr.Actual)
	}
}

func TestReplaceSubstring(t *testing.T) {
	original := "const retries = 3 // retries"

	ops := []Operation{
		{Type: OpReplace, Line: 1, ExpectedContent: "retries = 3", NewContent: "retries = 5"},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}

	// Only the matched substring changes; the trailing comment survives.
	expected := "const retries = 5 // retries"
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestReplaceWholeLine(t *testing.T) {
	original := "old line\nkeep me"

	ops := []Operation{
		{Type: OpReplace, Line: 1, NewContent: "new line"},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}
	if result != "new line\nkeep me" {
		t.Errorf("Whole-line replace incorrect: %q", result)
	}
}

func TestFuzzyMatch(t *testing.T) {
	original := "    Foo  :=   Bar( x )"

	ops := []Operation{
		{Type: OpDelete, Line: 1, ExpectedContent: "foo := bar( x )", FuzzyMatch: true},
	}

	if _, err := ValidateAndApply(original, ops); err != nil {
		t.Errorf("Fuzzy match should tolerate case and whitespace: %v", err)
	}

	// Without FuzzyMatch the same precondition must fail.
	ops[0].FuzzyMatch = false
	if _, err := ValidateAndApply(original, ops); err == nil {
		t.Errorf("Exact match should have failed")
	}
}

func TestInsertOperations(t *testing.T) {
	original := "a\nb\nc"

	ops := []Operation{
		{Type: OpInsertAfter, Line: 1, NewContent: "a2"},
		{Type: OpInsertBefore, Line: 3, NewContent: "b2"},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}

	expected := "a\na2\nb\nb2\nc"
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestInsertMultilineContent(t *testing.T) {
	original := "first\nlast"

	ops := []Operation{
		{Type: OpInsertAfter, Line: 1, NewContent: "one\ntwo"},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}
	if result != "first\none\ntwo\nlast" {
		t.Errorf("Multiline insert incorrect: %q", result)
	}
}

func TestMixedBatchOrdering(t *testing.T) {
	original := "1\n2\n3\n4\n5"

	// Submission order is deliberately scrambled; replaces never shift and
	// the shifting operations are reordered descending.
	ops := []Operation{
		{Type: OpInsertAfter, Line: 1, NewContent: "1.5"},
		{Type: OpReplace, Line: 3, NewContent: "three"},
		{Type: OpDelete, Line: 5},
	}

	result, err := ValidateAndApply(original, ops)
	if err != nil {
		t.Fatalf("ValidateAndApply failed: %v", err)
	}

	expected := "1\n1.5\n2\nthree\n4"
	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestUnknownOperationType(t *testing.T) {
	_, err := ValidateAndApply("x", []Operation{{Type: "move", Line: 1}})
	if err == nil {
		t.Errorf("Unknown operation type should be rejected")
	}
}
