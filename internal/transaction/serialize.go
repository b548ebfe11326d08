package transaction

// FileSnapshot is the serializable form of one file's pre-transaction state.
type FileSnapshot struct {
	Content string `json:"content"`
	Existed bool   `json:"existed"`
}

// SnapshotState exports the batch snapshots keyed by group id, so a caller
// persisting sessions can keep group revert working across restarts.
func (c *Coordinator) SnapshotState() map[string]map[string]FileSnapshot {
	out := make(map[string]map[string]FileSnapshot, len(c.snapshots))
	for groupID, group := range c.snapshots {
		files := make(map[string]FileSnapshot, len(group))
		for path, snap := range group {
			files[path] = FileSnapshot{Content: snap.content, Existed: snap.existed}
		}
		out[groupID] = files
	}
	return out
}

// RestoreSnapshots replaces the batch snapshots with previously exported
// state.
func (c *Coordinator) RestoreSnapshots(state map[string]map[string]FileSnapshot) {
	c.snapshots = make(map[string]map[string]snapshot, len(state))
	for groupID, files := range state {
		group := make(map[string]snapshot, len(files))
		for path, fs := range files {
			group[path] = snapshot{content: fs.Content, existed: fs.Existed}
		}
		c.snapshots[groupID] = group
	}
}
