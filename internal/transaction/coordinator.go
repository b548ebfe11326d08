// Package transaction orchestrates the edit pipeline: snapshot capture,
// consolidation, validated line application, diff stats, change-set
// recording, and snapshot-based revert/reapply.
//
// Apply is fail-fast: a validation or write failure aborts the transaction
// and no change-set is recorded. Revert and reapply are best-effort: a file
// that cannot be restored is reported but does not stop the rest, because
// rollback should recover as much as possible even under partial failure.
package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/editledger/editledger/internal/consolidate"
	"github.com/editledger/editledger/internal/diffstats"
	"github.com/editledger/editledger/internal/history"
	"github.com/editledger/editledger/internal/lineops"
	"github.com/editledger/editledger/internal/logging"
	"github.com/editledger/editledger/internal/storage"
)

// snapshot is one file's pre-transaction state, kept per group id so an
// entire batch can be rolled back regardless of history position.
type snapshot struct {
	content string
	existed bool
}

// FileError records a single file that could not be restored during a
// best-effort revert or reapply pass.
type FileError struct {
	ChangeSetID string `json:"changeSetId"`
	Path        string `json:"path"`
	Err         error  `json:"-"`
	Message     string `json:"message"`
}

// Result reports the outcome of a revert or reapply walk. Success is false
// if any file failed, even though everything else was still attempted.
type Result struct {
	Success            bool        `json:"success"`
	ChangeSetsAffected []string    `json:"changeSetsAffected"`
	Errors             []FileError `json:"errors,omitempty"`
}

func (r *Result) addError(csID, path string, err error) {
	r.Errors = append(r.Errors, FileError{
		ChangeSetID: csID,
		Path:        path,
		Err:         err,
		Message:     err.Error(),
	})
}

// Coordinator drives edit transactions against one store and one history.
// One coordinator belongs to one editing session.
type Coordinator struct {
	store     storage.Store
	hist      *history.History
	log       logging.Logger
	snapshots map[string]map[string]snapshot // group id -> path -> pre-edit state
}

// NewCoordinator wires a coordinator to its collaborators. A nil logger
// falls back to the no-op logger.
func NewCoordinator(store storage.Store, hist *history.History, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNilLogger()
	}
	return &Coordinator{
		store:     store,
		hist:      hist,
		log:       logger,
		snapshots: make(map[string]map[string]snapshot),
	}
}

// History returns the change history this coordinator records into.
func (c *Coordinator) History() *history.History {
	return c.hist
}

// Apply runs one edit transaction: consolidates the proposed edits, captures
// a snapshot of every target file, validates and computes all new contents
// against those snapshots, then writes and records a change-set. Every
// snapshot is captured before the first write so a failure mid-batch cannot
// corrupt the recorded before/after pair.
func (c *Coordinator) Apply(ctx context.Context, edits []consolidate.FileChange, groupID, sessionID string, meta history.Meta) (*history.ChangeSet, error) {
	if len(edits) == 0 {
		return nil, errors.New("no edits to apply")
	}

	consolidated := consolidate.Consolidate(edits)
	if len(consolidated.MergedFiles) > 0 {
		c.log.Log("consolidated %d edits into %d (merged: %v)",
			consolidated.Stats.InputChanges, consolidated.Stats.OutputChanges, consolidated.MergedFiles)
	}

	// Phase 1: read snapshots and compute every file's new content. No
	// writes happen until the whole batch has validated.
	group := make(map[string]snapshot, len(consolidated.Changes))
	records := make([]history.FileRecord, 0, len(consolidated.Changes))

	for _, change := range consolidated.Changes {
		current, err := c.store.Read(ctx, change.Path)
		isNew := false
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("reading %s: %w", change.Path, err)
			}
			current, isNew = "", true
		}
		group[change.Path] = snapshot{content: current, existed: !isNew}

		var newContent string
		if len(change.LineOperations) > 0 {
			newContent, err = lineops.ValidateAndApply(current, change.LineOperations)
			if err != nil {
				c.log.Log("validation failed for %s: %v", change.Path, err)
				return nil, fmt.Errorf("validating %s: %w", change.Path, err)
			}
		} else {
			newContent = change.Content
		}

		records = append(records, history.FileRecord{
			Path:       change.Path,
			Language:   change.Language,
			Before:     current,
			After:      newContent,
			IsNewFile:  isNew,
			Stats:      diffstats.Calculate(current, newContent),
			Operations: change.LineOperations,
		})
	}

	// The batch snapshot outlives the transaction so the caller can bulk
	// revert exactly this group later, independent of history position.
	c.snapshots[groupID] = group

	// Phase 2: write. A failure here aborts fail-fast; the snapshot stays
	// usable but no change-set is committed.
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.store.Write(ctx, rec.Path, rec.After); err != nil {
			c.log.Log("write failed for %s, aborting transaction: %v", rec.Path, err)
			return nil, fmt.Errorf("writing %s: %w", rec.Path, err)
		}
	}

	cs := history.NewChangeSet(sessionID, groupID, records, meta)
	c.hist.AddChangeSet(cs)
	c.log.Log("recorded change-set %s (%d files, +%d -%d ~%d)",
		cs.ID, len(cs.Files), cs.TotalStats.Added, cs.TotalStats.Removed, cs.TotalStats.Modified)
	return cs, nil
}

// restoreRecord puts one file back to its pre-edit snapshot. Files the
// transaction created are deleted again.
func (c *Coordinator) restoreRecord(ctx context.Context, rec history.FileRecord) error {
	if rec.IsNewFile {
		err := c.store.Delete(ctx, rec.Path)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	return c.store.Write(ctx, rec.Path, rec.Before)
}

// revertOne restores every file of a change-set, best-effort, and flips the
// applied flag when everything succeeded.
func (c *Coordinator) revertOne(ctx context.Context, cs *history.ChangeSet, res *Result) {
	failed := false
	for _, rec := range cs.Files {
		if err := c.restoreRecord(ctx, rec); err != nil {
			c.log.Log("revert of %s in change-set %s failed: %v", rec.Path, cs.ID, err)
			res.addError(cs.ID, rec.Path, err)
			failed = true
		}
	}
	if !failed {
		cs.Applied = false
		res.ChangeSetsAffected = append(res.ChangeSetsAffected, cs.ID)
	}
}

// RevertToChangeSet walks the history from the tail down to (but not
// including) the target, restoring the pre-edit snapshot of every change-set
// still applied in that range, then moves the position to the target. Errors
// on one change-set are recorded and the walk continues.
func (c *Coordinator) RevertToChangeSet(ctx context.Context, targetID string) (*Result, error) {
	targetIdx := c.hist.IndexOf(targetID)
	if targetIdx < 0 {
		return nil, fmt.Errorf("change-set %s not found", targetID)
	}
	return c.revertDownTo(ctx, targetIdx)
}

// RevertToOriginal restores the pre-agent state of every file touched by the
// history, leaving the position at the sentinel.
func (c *Coordinator) RevertToOriginal(ctx context.Context) (*Result, error) {
	return c.revertDownTo(ctx, history.OriginalPosition)
}

func (c *Coordinator) revertDownTo(ctx context.Context, targetIdx int) (*Result, error) {
	res := &Result{Success: true}

	for i := c.hist.Len() - 1; i > targetIdx; i-- {
		cs := c.hist.At(i)
		if cs == nil || !cs.Applied {
			continue
		}
		c.revertOne(ctx, cs, res)
	}

	if err := c.hist.SetPosition(targetIdx); err != nil {
		return nil, err
	}

	res.Success = len(res.Errors) == 0
	return res, nil
}

// ReapplyFromChangeSet walks forward from just past the current position up
// to the target, rewriting every not-applied change-set's files to their
// post-edit content (creating files recorded as new), then moves the
// position to the target.
func (c *Coordinator) ReapplyFromChangeSet(ctx context.Context, targetID string) (*Result, error) {
	targetIdx := c.hist.IndexOf(targetID)
	if targetIdx < 0 {
		return nil, fmt.Errorf("change-set %s not found", targetID)
	}
	if targetIdx <= c.hist.Position() {
		return nil, fmt.Errorf("change-set %s is not ahead of the current position", targetID)
	}

	res := &Result{Success: true}

	for i := c.hist.Position() + 1; i <= targetIdx; i++ {
		cs := c.hist.At(i)
		if cs == nil || cs.Applied {
			continue
		}

		failed := false
		for _, rec := range cs.Files {
			if err := c.store.Write(ctx, rec.Path, rec.After); err != nil {
				c.log.Log("reapply of %s in change-set %s failed: %v", rec.Path, cs.ID, err)
				res.addError(cs.ID, rec.Path, err)
				failed = true
			}
		}
		if !failed {
			cs.Applied = true
			res.ChangeSetsAffected = append(res.ChangeSetsAffected, cs.ID)
		}
	}

	if err := c.hist.SetPosition(targetIdx); err != nil {
		return nil, err
	}

	res.Success = len(res.Errors) == 0
	return res, nil
}

// RevertChangeSet undoes one specific change-set by id, restoring its file
// snapshots and flipping its applied flag. The history position is pulled
// back if it pointed at or beyond the reverted entry. Used by the workflow
// graph during cascading revert, where change-sets are processed
// newest-first.
func (c *Coordinator) RevertChangeSet(ctx context.Context, id string) (*Result, error) {
	idx := c.hist.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("change-set %s not found", id)
	}
	cs := c.hist.At(idx)

	res := &Result{Success: true}
	if cs.Applied {
		c.revertOne(ctx, cs, res)
	}

	if c.hist.Position() >= idx {
		if err := c.hist.SetPosition(idx - 1); err != nil {
			return nil, err
		}
	}

	res.Success = len(res.Errors) == 0
	return res, nil
}

// Undo reverts the current change-set and steps the position back. Returns
// the undone change-set, or nil when already at the original state.
func (c *Coordinator) Undo(ctx context.Context) (*history.ChangeSet, *Result, error) {
	cs := c.hist.Rewind()
	if cs == nil {
		return nil, nil, nil
	}

	res := &Result{Success: true}
	if cs.Applied {
		c.revertOne(ctx, cs, res)
	}
	res.Success = len(res.Errors) == 0
	return cs, res, nil
}

// Redo reapplies the next change-set and steps the position forward.
// Returns the reapplied change-set, or nil when already at the tail.
func (c *Coordinator) Redo(ctx context.Context) (*history.ChangeSet, *Result, error) {
	cs := c.hist.Forward()
	if cs == nil {
		return nil, nil, nil
	}

	res := &Result{Success: true}
	if !cs.Applied {
		failed := false
		for _, rec := range cs.Files {
			if err := c.store.Write(ctx, rec.Path, rec.After); err != nil {
				c.log.Log("redo of %s in change-set %s failed: %v", rec.Path, cs.ID, err)
				res.addError(cs.ID, rec.Path, err)
				failed = true
			}
		}
		if !failed {
			cs.Applied = true
			res.ChangeSetsAffected = append(res.ChangeSetsAffected, cs.ID)
		}
	}
	res.Success = len(res.Errors) == 0
	return cs, res, nil
}

// RevertGroup restores the pre-transaction snapshot of one batch, by the
// opaque group id passed to Apply. This works regardless of what the history
// position has done since.
func (c *Coordinator) RevertGroup(ctx context.Context, groupID string) (*Result, error) {
	group, ok := c.snapshots[groupID]
	if !ok {
		return nil, fmt.Errorf("no snapshot recorded for group %s", groupID)
	}

	res := &Result{Success: true}
	for path, snap := range group {
		var err error
		if snap.existed {
			err = c.store.Write(ctx, path, snap.content)
		} else {
			err = c.store.Delete(ctx, path)
			if errors.Is(err, storage.ErrNotFound) {
				err = nil
			}
		}
		if err != nil {
			c.log.Log("group revert of %s failed: %v", path, err)
			res.addError(groupID, path, err)
		}
	}

	res.Success = len(res.Errors) == 0
	return res, nil
}
