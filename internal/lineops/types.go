package lineops

import "fmt"

// OpType defines the type of a line operation
type OpType string

const (
	// OpInsert inserts content at the given line, pushing it down
	OpInsert OpType = "insert"
	// OpInsertBefore inserts content immediately before the given line
	OpInsertBefore OpType = "insertBefore"
	// OpInsertAfter inserts content immediately after the given line
	OpInsertAfter OpType = "insertAfter"
	// OpDelete removes the given line
	OpDelete OpType = "delete"
	// OpReplace rewrites the given line (or a substring of it)
	OpReplace OpType = "replace"
)

// Operation is a single line-indexed edit against a text snapshot.
// Lines are 1-indexed. ExpectedContent is a validation precondition for
// delete/replace, not a payload: the current line must contain it (or
// loosely match it when FuzzyMatch is set) or the whole batch is rejected.
type Operation struct {
	Type            OpType `json:"type"`
	Line            int    `json:"line"`
	ExpectedContent string `json:"expectedContent,omitempty"`
	NewContent      string `json:"newContent,omitempty"`
	FuzzyMatch      bool   `json:"fuzzyMatch,omitempty"`
}

// IsInsert reports whether the operation adds lines without requiring the
// target line to exist.
func (op Operation) IsInsert() bool {
	switch op.Type {
	case OpInsert, OpInsertBefore, OpInsertAfter:
		return true
	}
	return false
}

// shifts reports whether applying the operation changes the line numbers of
// subsequent lines. Replaces are in-place and do not shift.
func (op Operation) shifts() bool {
	return op.IsInsert() || op.Type == OpDelete
}

// ValidationError describes why a batch of operations was rejected.
// No mutation has occurred when one is returned.
type ValidationError struct {
	OpIndex  int       // index of the failing operation in the submitted batch
	Op       Operation // the failing operation itself
	Line     int       // 1-indexed line the operation referenced
	Expected string    // expected content, if the check was a content match
	Actual   string    // actual content of the line, if it exists
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("operation %d (%s) failed at line %d: %s (expected %q, found %q)",
			e.OpIndex, e.Op.Type, e.Line, e.Reason, e.Expected, e.Actual)
	}
	return fmt.Sprintf("operation %d (%s) failed at line %d: %s", e.OpIndex, e.Op.Type, e.Line, e.Reason)
}
