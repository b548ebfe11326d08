// Package history keeps an ordered, position-addressable log of applied
// change-sets and supports linear undo/redo with branch truncation. One
// History instance belongs to one editing session; callers inject it where
// it is needed instead of sharing a global.
package history

import (
	"fmt"
	"sync"
)

// OriginalPosition is the privileged sentinel denoting the original,
// pre-agent state. It is not an index into the log.
const OriginalPosition = -1

// Event is the notification emitted after every history mutation. It carries
// a copy of the full log and the current position so observers never alias
// internal state.
type Event struct {
	ChangeSets []*ChangeSet
	Position   int
}

// History is the change-set log for one session.
//
// Invariant: Position always indexes the last change-set considered current.
// Every applied change-set at index <= Position represents the live file
// state; nothing beyond it should be applied.
type History struct {
	mu          sync.Mutex
	changeSets  []*ChangeSet
	position    int
	subscribers []chan Event
}

// New returns an empty history positioned at the pre-agent sentinel.
func New() *History {
	return &History{position: OriginalPosition}
}

// Subscribe registers an observer. Every mutation delivers an Event on the
// returned channel; slow observers lose events rather than blocking the
// history (same policy as the buffered log writer).
func (h *History) Subscribe() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

func (h *History) notifyLocked() {
	ev := Event{
		ChangeSets: append([]*ChangeSet(nil), h.changeSets...),
		Position:   h.position,
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// AddChangeSet appends a change-set and makes it current. If the history was
// rewound, everything after the current position is discarded first: the log
// is a single-branch undo stack, not a tree.
func (h *History) AddChangeSet(cs *ChangeSet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.position < len(h.changeSets)-1 {
		h.changeSets = h.changeSets[:h.position+1]
	}
	h.changeSets = append(h.changeSets, cs)
	h.position = len(h.changeSets) - 1
	h.notifyLocked()
}

// Rewind steps the position back by one and returns the change-set whose
// effects must now be undone. When the position lands on the sentinel the
// caller restores pre-agent snapshots, not any change-set's content.
// Returns nil if already at the sentinel.
func (h *History) Rewind() *ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.position <= OriginalPosition {
		return nil
	}
	cs := h.changeSets[h.position]
	h.position--
	h.notifyLocked()
	return cs
}

// Forward steps the position ahead by one and returns the change-set that
// must be reapplied. Returns nil if already at the tail.
func (h *History) Forward() *ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.position >= len(h.changeSets)-1 {
		return nil
	}
	h.position++
	cs := h.changeSets[h.position]
	h.notifyLocked()
	return cs
}

// CanRewind reports whether there is anything to undo.
func (h *History) CanRewind() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position > OriginalPosition
}

// CanForward reports whether there is anything to redo.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position < len(h.changeSets)-1
}

// CurrentChange returns the change-set at the current position, or nil when
// positioned at the pre-agent sentinel.
func (h *History) CurrentChange() *ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.position == OriginalPosition {
		return nil
	}
	return h.changeSets[h.position]
}

// SetPosition moves the position directly. Valid positions span the sentinel
// through the last index.
func (h *History) SetPosition(p int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p < OriginalPosition || p > len(h.changeSets)-1 {
		return fmt.Errorf("position %d out of range [-1, %d]", p, len(h.changeSets)-1)
	}
	h.position = p
	h.notifyLocked()
	return nil
}

// Position returns the current position (-1 means pre-agent state).
func (h *History) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

// Len returns the number of recorded change-sets.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.changeSets)
}

// ChangeSets returns a copy of the log, oldest first.
func (h *History) ChangeSets() []*ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*ChangeSet(nil), h.changeSets...)
}

// IndexOf returns the index of the change-set with the given id, or -1.
func (h *History) IndexOf(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indexOfLocked(id)
}

func (h *History) indexOfLocked(id string) int {
	for i, cs := range h.changeSets {
		if cs.ID == id {
			return i
		}
	}
	return -1
}

// FindByID returns the change-set with the given id, or nil.
func (h *History) FindByID(id string) *ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i := h.indexOfLocked(id); i >= 0 {
		return h.changeSets[i]
	}
	return nil
}

// At returns the change-set at index i, or nil if out of range.
func (h *History) At(i int) *ChangeSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i < 0 || i >= len(h.changeSets) {
		return nil
	}
	return h.changeSets[i]
}
