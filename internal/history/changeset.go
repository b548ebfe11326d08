package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/editledger/editledger/internal/diffstats"
	"github.com/editledger/editledger/internal/lineops"
)

// FileRecord is one file's contribution to a change-set: the full pre-edit
// and post-edit snapshots plus the operations and stats that produced them.
// Snapshots are what make revert and reapply byte-exact.
type FileRecord struct {
	Path       string              `json:"path"`
	Language   string              `json:"language,omitempty"`
	Before     string              `json:"before"`
	After      string              `json:"after"`
	IsNewFile  bool                `json:"isNewFile,omitempty"`
	Stats      diffstats.Stats     `json:"stats"`
	Operations []lineops.Operation `json:"operations,omitempty"`
}

// Meta carries caller-supplied reporting metadata for a change-set. The
// engine stores it verbatim and never validates or computes it.
type Meta struct {
	Cost        float64 `json:"cost"`
	TokensUsed  int     `json:"tokensUsed"`
	DurationMs  int64   `json:"durationMs"`
	Description string  `json:"description,omitempty"`
}

// ChangeSet is one atomic, recorded group of file mutations. It is created
// once, at apply time, and never deleted; only the Applied flag flips on
// revert/reapply, and it may be pruned from the future branch when a new
// change-set is appended while the history is rewound.
type ChangeSet struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	GroupID     string          `json:"groupId,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Files       []FileRecord    `json:"files"`
	TotalStats  diffstats.Stats `json:"totalStats"`
	Cost        float64         `json:"cost"`
	TokensUsed  int             `json:"tokensUsed"`
	DurationMs  int64           `json:"durationMs"`
	Applied     bool            `json:"applied"`
	Description string          `json:"description,omitempty"`
}

// NewChangeSet builds a change-set from applied file records, summing the
// per-file stats into the total. The change-set starts out applied.
func NewChangeSet(sessionID, groupID string, files []FileRecord, meta Meta) *ChangeSet {
	var total diffstats.Stats
	for _, f := range files {
		total = total.Plus(f.Stats)
	}

	return &ChangeSet{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		GroupID:     groupID,
		Timestamp:   time.Now().UTC(),
		Files:       files,
		TotalStats:  total,
		Cost:        meta.Cost,
		TokensUsed:  meta.TokensUsed,
		DurationMs:  meta.DurationMs,
		Applied:     true,
		Description: meta.Description,
	}
}
