// Package diffstats computes added/removed/modified line counts between two
// text snapshots. The counts are best-effort reporting metrics attached to
// recorded change-sets; they are never used as merge inputs.
package diffstats

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats holds line counts for one before/after pair.
type Stats struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// Plus returns the element-wise sum of two Stats. Used to accumulate a
// change-set total across its files.
func (s Stats) Plus(o Stats) Stats {
	return Stats{
		Added:    s.Added + o.Added,
		Removed:  s.Removed + o.Removed,
		Modified: s.Modified + o.Modified,
	}
}

// IsZero reports whether no lines changed.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

// Calculate diffs oldContent against newContent at line granularity.
// A deletion run immediately followed by an insertion run is paired up as
// modifications; the overhang counts as plain removals or additions.
func Calculate(oldContent, newContent string) Stats {
	if oldContent == newContent {
		return Stats{}
	}
	if oldContent == "" {
		return Stats{Added: countLines(newContent)}
	}
	if newContent == "" {
		return Stats{Removed: countLines(oldContent)}
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lineArray)

	var stats Stats
	pendingRemoved := 0

	flush := func() {
		stats.Removed += pendingRemoved
		pendingRemoved = 0
	}

	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
		case diffmatchpatch.DiffDelete:
			flush()
			pendingRemoved = n
		case diffmatchpatch.DiffInsert:
			if pendingRemoved > 0 {
				paired := min(pendingRemoved, n)
				stats.Modified += paired
				stats.Removed += pendingRemoved - paired
				stats.Added += n - paired
				pendingRemoved = 0
			} else {
				stats.Added += n
			}
		}
	}
	flush()

	return stats
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(s, "\n"), "\n"))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
