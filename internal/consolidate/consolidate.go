// Package consolidate merges multiple proposed edits targeting the same file
// into one deterministic edit. An agent response may emit several edits to
// one file in a single turn; without consolidation only the first applies
// cleanly because the later ones assume stale line numbers and content.
package consolidate

import (
	"sort"
	"strings"

	"github.com/editledger/editledger/internal/lineops"
)

// LineRange bounds the region of a file an edit claims to cover. 1-indexed,
// inclusive.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FileChange is one proposed edit as it arrives from the agent, unvalidated.
// Either Content (whole-file) or LineOperations is populated. Multiple
// FileChanges may reference the same path within one batch.
type FileChange struct {
	Path           string              `json:"path"`
	Language       string              `json:"language,omitempty"`
	Content        string              `json:"content,omitempty"`
	LineOperations []lineops.Operation `json:"lineOperations,omitempty"`
	LineRange      *LineRange          `json:"lineRange,omitempty"`
	IsDiff         bool                `json:"isDiff,omitempty"`
}

// Stats summarizes what consolidation did to a batch.
type Stats struct {
	InputChanges  int `json:"inputChanges"`
	OutputChanges int `json:"outputChanges"`
	FilesMerged   int `json:"filesMerged"`
}

// Result is the outcome of consolidating one batch.
type Result struct {
	Changes     []FileChange `json:"changes"`
	MergedFiles []string     `json:"mergedFiles"`
	Stats       Stats        `json:"stats"`
}

// NormalizePath strips leading "./" and "/" and unifies path separators so
// "./src\main.ts" and "src/main.ts" land in the same group.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}

// Consolidate merges all FileChanges sharing a normalized path, in
// submission order, into one change per file. Single-entry groups pass
// through unchanged apart from path normalization.
func Consolidate(changes []FileChange) Result {
	groups := make(map[string][]FileChange)
	var order []string

	for _, ch := range changes {
		key := NormalizePath(ch.Path)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ch)
	}

	result := Result{
		Stats: Stats{InputChanges: len(changes)},
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			merged := group[0]
			merged.Path = key
			result.Changes = append(result.Changes, merged)
			continue
		}

		result.Changes = append(result.Changes, mergeGroup(key, group))
		result.MergedFiles = append(result.MergedFiles, key)
	}

	result.Stats.OutputChanges = len(result.Changes)
	result.Stats.FilesMerged = len(result.MergedFiles)
	return result
}

// mergeGroup collapses every edit for one file into a single FileChange.
// Operation-based edits take priority over whole-content edits when both
// appear in a group: the operations are the more precise statement of
// intent.
func mergeGroup(path string, group []FileChange) FileChange {
	merged := FileChange{Path: path}

	hasOps := false
	for _, ch := range group {
		if merged.Language == "" {
			merged.Language = ch.Language
		}
		if len(ch.LineOperations) > 0 {
			hasOps = true
		}
	}

	merged.LineRange = mergeRanges(group)

	if hasOps {
		merged.LineOperations = mergeOperations(group)
		return merged
	}

	// Whole-content edits: the last full-content edit wins. If every edit
	// is diff-marked there is no authoritative full content, so the pieces
	// are concatenated in submission order.
	allDiffs := true
	for _, ch := range group {
		if !ch.IsDiff {
			allDiffs = false
			merged.Content = ch.Content
		}
	}
	if allDiffs {
		var parts []string
		for _, ch := range group {
			parts = append(parts, ch.Content)
		}
		merged.Content = strings.Join(parts, "\n")
		merged.IsDiff = true
	}

	return merged
}

// mergeOperations unions the line operations of a group and resolves
// same-line conflicts with the precedence delete > replace > insert. An
// agent that decided to delete a line later in its response supersedes its
// earlier edits to that line; for replaces the last submitted wins; inserts
// on the same line are combined, newline-joined, in submission order.
func mergeOperations(group []FileChange) []lineops.Operation {
	type slot struct {
		deleted bool
		replace *lineops.Operation
		insert  *lineops.Operation
	}

	slots := make(map[int]*slot)
	var lineOrder []int

	for _, ch := range group {
		for _, op := range ch.LineOperations {
			s, ok := slots[op.Line]
			if !ok {
				s = &slot{}
				slots[op.Line] = s
				lineOrder = append(lineOrder, op.Line)
			}

			switch op.Type {
			case lineops.OpDelete:
				s.deleted = true
			case lineops.OpReplace:
				opCopy := op
				s.replace = &opCopy
			default: // inserts
				if s.insert == nil {
					opCopy := op
					s.insert = &opCopy
				} else {
					s.insert.NewContent += "\n" + op.NewContent
				}
			}
		}
	}

	var ops []lineops.Operation
	for _, line := range lineOrder {
		s := slots[line]
		switch {
		case s.deleted:
			ops = append(ops, lineops.Operation{Type: lineops.OpDelete, Line: line})
		case s.replace != nil:
			ops = append(ops, *s.replace)
		case s.insert != nil:
			ops = append(ops, *s.insert)
		}
	}

	// Descending by line number: the order the engine applies shifting
	// operations in.
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Line > ops[j].Line
	})

	return ops
}

// mergeRanges widens the covered region to [min(start), max(end)] across
// every edit in the group that declared one.
func mergeRanges(group []FileChange) *LineRange {
	var merged *LineRange
	for _, ch := range group {
		if ch.LineRange == nil {
			continue
		}
		if merged == nil {
			merged = &LineRange{Start: ch.LineRange.Start, End: ch.LineRange.End}
			continue
		}
		if ch.LineRange.Start < merged.Start {
			merged.Start = ch.LineRange.Start
		}
		if ch.LineRange.End > merged.End {
			merged.End = ch.LineRange.End
		}
	}
	return merged
}
