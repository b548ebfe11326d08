// Package lineops validates and applies batches of line-indexed edits to a
// single text snapshot. A batch is all-or-nothing: every operation is checked
// against the snapshot before the first one is applied, so a hallucinated
// line number or stale expected content fails loudly instead of corrupting
// the file.
package lineops

import (
	"sort"
	"strings"
)

// ValidateAndApply checks every operation against original and, only if all
// of them pass, applies the batch and returns the new content. On any
// validation failure it returns the original content untouched together with
// a *ValidationError identifying the failing operation.
func ValidateAndApply(original string, ops []Operation) (string, error) {
	lines := strings.Split(original, "\n")

	// Phase 1: validate the whole batch against the snapshot.
	for i, op := range ops {
		if err := validate(lines, i, op); err != nil {
			return original, err
		}
	}

	// Phase 2: apply. Replaces are in-place and cannot disturb line numbers,
	// so they run first. Shifting operations (inserts and deletes) run
	// highest line first; earlier indices are then unaffected by later
	// removals and insertions.
	var shifting []Operation
	for _, op := range ops {
		if op.Type == OpReplace {
			lines[op.Line-1] = replaceLine(lines[op.Line-1], op)
		} else {
			shifting = append(shifting, op)
		}
	}

	sort.SliceStable(shifting, func(i, j int) bool {
		return shifting[i].Line > shifting[j].Line
	})

	for _, op := range shifting {
		lines = applyShift(lines, op)
	}

	return strings.Join(lines, "\n"), nil
}

func validate(lines []string, idx int, op Operation) error {
	switch op.Type {
	case OpInsert, OpInsertBefore, OpInsertAfter, OpDelete, OpReplace:
	default:
		return &ValidationError{OpIndex: idx, Op: op, Line: op.Line, Reason: "unknown operation type"}
	}

	if op.Line < 1 {
		return &ValidationError{OpIndex: idx, Op: op, Line: op.Line, Reason: "line numbers are 1-indexed"}
	}

	// Pure inserts may reference a line just past the end of the file;
	// anything else must name an existing line.
	if op.IsInsert() {
		if op.Line > len(lines)+1 {
			return &ValidationError{OpIndex: idx, Op: op, Line: op.Line, Reason: "insert position beyond end of file"}
		}
		return nil
	}

	if op.Line > len(lines) {
		return &ValidationError{OpIndex: idx, Op: op, Line: op.Line, Reason: "line does not exist"}
	}

	if op.ExpectedContent == "" {
		return nil
	}

	actual := lines[op.Line-1]
	if strings.Contains(actual, op.ExpectedContent) {
		return nil
	}
	if op.FuzzyMatch && fuzzyMatches(actual, op.ExpectedContent) {
		return nil
	}

	return &ValidationError{
		OpIndex:  idx,
		Op:       op,
		Line:     op.Line,
		Expected: op.ExpectedContent,
		Actual:   actual,
		Reason:   "line content does not match expected content",
	}
}

// fuzzyMatches performs a case- and whitespace-insensitive containment check
// in either direction.
func fuzzyMatches(actual, expected string) bool {
	a := normalizeForMatch(actual)
	e := normalizeForMatch(expected)
	if a == "" || e == "" {
		return a == e
	}
	return strings.Contains(a, e) || strings.Contains(e, a)
}

func normalizeForMatch(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// replaceLine rewrites one line for a replace operation. With an expected
// content that is literally present, only that substring is replaced;
// otherwise (including fuzzy-only matches) the whole line is overwritten.
func replaceLine(line string, op Operation) string {
	if op.ExpectedContent != "" && strings.Contains(line, op.ExpectedContent) {
		return strings.Replace(line, op.ExpectedContent, op.NewContent, 1)
	}
	return op.NewContent
}

// applyShift applies one insert or delete. NewContent may span multiple
// lines; it is split on newlines and inserted as-is.
func applyShift(lines []string, op Operation) []string {
	switch op.Type {
	case OpDelete:
		return append(lines[:op.Line-1], lines[op.Line:]...)

	case OpInsert, OpInsertBefore:
		return insertAt(lines, op.Line-1, op.NewContent)

	case OpInsertAfter:
		return insertAt(lines, op.Line, op.NewContent)
	}
	return lines
}

func insertAt(lines []string, idx int, content string) []string {
	if idx > len(lines) {
		idx = len(lines)
	}
	inserted := strings.Split(content, "\n")
	out := make([]string, 0, len(lines)+len(inserted))
	out = append(out, lines[:idx]...)
	out = append(out, inserted...)
	out = append(out, lines[idx:]...)
	return out
}
