package history

import "encoding/json"

// State is the plain value form of a history, suitable for handing to a
// durable session store. Timestamps serialize as RFC 3339 strings through
// the standard time.Time JSON encoding.
type State struct {
	History  []*ChangeSet `json:"history"`
	Position int          `json:"position"`
}

// State captures the current log and position.
func (h *History) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return State{
		History:  append([]*ChangeSet(nil), h.changeSets...),
		Position: h.position,
	}
}

// MarshalJSON serializes the history in its plain value form.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.State())
}

// Restore rehydrates a history from its plain value form. Out-of-range
// positions are clamped so a corrupted record cannot produce an index panic.
func Restore(s State) *History {
	h := &History{
		changeSets: append([]*ChangeSet(nil), s.History...),
		position:   s.Position,
	}
	if h.position < OriginalPosition {
		h.position = OriginalPosition
	}
	if h.position > len(h.changeSets)-1 {
		h.position = len(h.changeSets) - 1
	}
	return h
}

// RestoreJSON rehydrates a history from serialized state.
func RestoreJSON(data []byte) (*History, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return Restore(s), nil
}
