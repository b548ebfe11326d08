package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/editledger/editledger/internal/annotate"
	"github.com/editledger/editledger/internal/config"
	"github.com/editledger/editledger/internal/history"
	"github.com/editledger/editledger/internal/storage"
	"github.com/editledger/editledger/internal/store"
	"github.com/editledger/editledger/internal/transaction"
	"github.com/editledger/editledger/internal/workflow"
)

// app wires the engine together for one CLI invocation: configuration,
// workspace file store, session database, restored history and workflow
// state, and the coordinator on top of them.
type app struct {
	cfg      *config.Config
	files    *storage.FileStore
	sessions *store.SessionStore
	hist     *history.History
	coord    *transaction.Coordinator
	graph    *workflow.Graph
	annot    annotate.Annotator

	skipConfirm bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if session, _ := cmd.Flags().GetString("session"); session != "" {
		cfg.SessionID = session
	}
	if workspace, _ := cmd.Flags().GetString("workspace"); workspace != "" {
		cfg.Workspace = workspace
	}
	skipConfirm, _ := cmd.Flags().GetBool("yes")

	sessions, err := store.Open(cfg.SessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("error opening session store: %w", err)
	}

	a := &app{
		cfg:         cfg,
		files:       storage.NewFileStore(cfg.Workspace),
		sessions:    sessions,
		skipConfirm: skipConfirm,
	}

	if err := a.restore(); err != nil {
		sessions.Close()
		return nil, err
	}

	if cfg.Annotate {
		a.annot = annotate.NewOpenAIAnnotator(cfg.APIKey, cfg.Model)
	} else {
		a.annot = annotate.BasicAnnotator{}
	}

	appLogger.Log("Session %q ready: %d change set(s), position %d",
		cfg.SessionID, a.hist.Len(), a.hist.Position())
	return a, nil
}

func (a *app) historyKey() string  { return "history:" + a.cfg.SessionID }
func (a *app) workflowKey() string { return "workflows:" + a.cfg.SessionID }
func (a *app) snapshotKey() string { return "snapshots:" + a.cfg.SessionID }

// restore loads the session's persisted history and workflow state. A
// missing key means a fresh session, not an error.
func (a *app) restore() error {
	if data, err := a.sessions.Load(a.historyKey()); err == nil {
		a.hist, err = history.RestoreJSON(data)
		if err != nil {
			return fmt.Errorf("error restoring history: %w", err)
		}
	} else if errors.Is(err, store.ErrNotFound) {
		a.hist = history.New()
	} else {
		return fmt.Errorf("error loading history: %w", err)
	}

	a.coord = transaction.NewCoordinator(a.files, a.hist, appLogger)
	a.graph = workflow.NewGraph(a.coord, appLogger)

	if data, err := a.sessions.Load(a.workflowKey()); err == nil {
		if err := a.graph.RestoreJSON(data); err != nil {
			return fmt.Errorf("error restoring workflows: %w", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("error loading workflows: %w", err)
	}

	if data, err := a.sessions.Load(a.snapshotKey()); err == nil {
		var snaps map[string]map[string]transaction.FileSnapshot
		if err := json.Unmarshal(data, &snaps); err != nil {
			return fmt.Errorf("error restoring snapshots: %w", err)
		}
		a.coord.RestoreSnapshots(snaps)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("error loading snapshots: %w", err)
	}

	return nil
}

// save persists history and workflow state back to the session store.
func (a *app) save() error {
	data, err := a.hist.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error serializing history: %w", err)
	}
	if err := a.sessions.Save(a.historyKey(), data); err != nil {
		return fmt.Errorf("error saving history: %w", err)
	}

	data, err = a.graph.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error serializing workflows: %w", err)
	}
	if err := a.sessions.Save(a.workflowKey(), data); err != nil {
		return fmt.Errorf("error saving workflows: %w", err)
	}

	data, err = json.Marshal(a.coord.SnapshotState())
	if err != nil {
		return fmt.Errorf("error serializing snapshots: %w", err)
	}
	if err := a.sessions.Save(a.snapshotKey(), data); err != nil {
		return fmt.Errorf("error saving snapshots: %w", err)
	}

	return nil
}

func (a *app) close() {
	if err := a.sessions.Close(); err != nil {
		appLogger.Log("Error closing session store: %v", err)
	}
}
