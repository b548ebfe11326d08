// Package workflow groups change-sets into named steps, tracks dependency
// edges between steps, and performs cascading revert of a step and
// everything that transitively depends on it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/editledger/editledger/internal/logging"
	"github.com/editledger/editledger/internal/transaction"
)

// Structural errors: callers must establish a workflow (and start a step)
// before operating on one. These are usage errors, not runtime conditions.
var (
	ErrNoActiveWorkflow = errors.New("no active workflow")
	ErrNoActiveStep     = errors.New("no active step")
)

// Graph owns the workflows of one session and reverts their change-sets
// through the transaction coordinator.
type Graph struct {
	coord *transaction.Coordinator
	log   logging.Logger

	workflows  []*Workflow
	current    *Workflow
	stepsByID  map[string]*Step
	activeStep *Step
}

// NewGraph wires a graph to its coordinator. A nil logger falls back to the
// no-op logger.
func NewGraph(coord *transaction.Coordinator, logger logging.Logger) *Graph {
	if logger == nil {
		logger = logging.NewNilLogger()
	}
	return &Graph{
		coord:     coord,
		log:       logger,
		stepsByID: make(map[string]*Step),
	}
}

// StartWorkflow creates a new workflow and makes it current.
func (g *Graph) StartWorkflow(sessionID string) *Workflow {
	wf := &Workflow{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		CurrentStepIndex: -1,
		Status:           StatusPlanning,
	}
	g.workflows = append(g.workflows, wf)
	g.current = wf
	g.activeStep = nil
	g.log.Log("started workflow %s for session %s", wf.ID, sessionID)
	return wf
}

// Current returns the active workflow, or nil.
func (g *Graph) Current() *Workflow {
	return g.current
}

// Workflows returns all workflows owned by this graph.
func (g *Graph) Workflows() []*Workflow {
	return g.workflows
}

// AddStep appends a step to the current workflow. Without explicit
// dependencies the step depends on its immediate predecessor, forming a
// linear chain; explicit dependencies allow DAGs for independent sub-tasks.
// The inverse Dependents edges are updated immediately.
func (g *Graph) AddStep(description string, dependsOn ...string) (*Step, error) {
	if g.current == nil {
		return nil, ErrNoActiveWorkflow
	}

	step := &Step{
		ID:          uuid.NewString(),
		StepNumber:  len(g.current.Steps) + 1,
		SessionID:   g.current.SessionID,
		Description: description,
		Status:      StepPending,
	}

	if len(dependsOn) == 0 && len(g.current.Steps) > 0 {
		dependsOn = []string{g.current.Steps[len(g.current.Steps)-1].ID}
	}
	for _, depID := range dependsOn {
		dep, ok := g.stepsByID[depID]
		if !ok {
			return nil, fmt.Errorf("dependency step %s not found", depID)
		}
		step.DependsOn = append(step.DependsOn, depID)
		dep.Dependents = append(dep.Dependents, step.ID)
	}

	g.current.Steps = append(g.current.Steps, step)
	g.stepsByID[step.ID] = step
	return step, nil
}

// StartStep transitions a step to in-progress and makes it the active step
// that LinkChangeSet and AttachCommandResult target.
func (g *Graph) StartStep(stepID string) error {
	if g.current == nil {
		return ErrNoActiveWorkflow
	}
	step, ok := g.stepsByID[stepID]
	if !ok {
		return fmt.Errorf("step %s not found", stepID)
	}

	step.Status = StepInProgress
	g.activeStep = step
	g.current.Status = StatusExecuting
	for i, s := range g.current.Steps {
		if s.ID == stepID {
			g.current.CurrentStepIndex = i
		}
	}
	return nil
}

// LinkChangeSet attaches a recorded change-set to the active step.
func (g *Graph) LinkChangeSet(changeSetID string) error {
	if g.current == nil {
		return ErrNoActiveWorkflow
	}
	if g.activeStep == nil {
		return ErrNoActiveStep
	}
	g.activeStep.ChangeSetIDs = append(g.activeStep.ChangeSetIDs, changeSetID)
	return nil
}

// AttachCommandResult stores an externally produced command-execution record
// against the active step for later inspection.
func (g *Graph) AttachCommandResult(res CommandResult) error {
	if g.current == nil {
		return ErrNoActiveWorkflow
	}
	if g.activeStep == nil {
		return ErrNoActiveStep
	}
	g.activeStep.CommandResults = append(g.activeStep.CommandResults, res)
	return nil
}

// MarkStepApplied transitions the step out of in-progress on success.
func (g *Graph) MarkStepApplied(stepID string) error {
	return g.markStep(stepID, StepApplied)
}

// MarkStepFailed marks the step failed. The failure is terminal for the
// step but does not cascade; dependents stay as they are until an explicit
// RevertStep.
func (g *Graph) MarkStepFailed(stepID string) error {
	return g.markStep(stepID, StepFailed)
}

func (g *Graph) markStep(stepID string, status StepStatus) error {
	step, ok := g.stepsByID[stepID]
	if !ok {
		return fmt.Errorf("step %s not found", stepID)
	}
	step.Status = status
	if g.activeStep == step {
		g.activeStep = nil
	}
	return nil
}

// CompleteWorkflow marks the current workflow completed.
func (g *Graph) CompleteWorkflow() error {
	if g.current == nil {
		return ErrNoActiveWorkflow
	}
	g.current.Status = StatusCompleted
	return nil
}

// RevertOutcome reports (or previews) a cascading revert.
type RevertOutcome struct {
	RevertedSteps      []string                `json:"revertedSteps"`
	RevertedChangeSets []string                `json:"revertedChangeSets"`
	Errors             []transaction.FileError `json:"errors,omitempty"`
	DryRun             bool                    `json:"dryRun,omitempty"`
}

// dependentClosure collects the target step and everything transitively
// depending on it, using an explicit stack over the Dependents adjacency so
// deep workflows cannot exhaust the call stack.
func (g *Graph) dependentClosure(stepID string) []*Step {
	seen := make(map[string]bool)
	stack := []string{stepID}
	var closure []*Step

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		step, ok := g.stepsByID[id]
		if !ok {
			continue
		}
		closure = append(closure, step)
		stack = append(stack, step.Dependents...)
	}

	// Newest first: reverse chronological by insertion order.
	sort.SliceStable(closure, func(i, j int) bool {
		return closure[i].StepNumber > closure[j].StepNumber
	})
	return closure
}

// RevertStep reverts a step and every step transitively depending on it,
// newest first. Each applied or in-progress step in the closure has its
// linked change-sets reverted through the coordinator (newest first within
// the step) and is then marked reverted. With dryRun the same outcome is
// returned as a preview without mutating anything, so a caller can confirm
// "this will also undo steps N, N+1..." before the destructive pass.
func (g *Graph) RevertStep(ctx context.Context, stepID string, dryRun bool) (*RevertOutcome, error) {
	if g.current == nil {
		return nil, ErrNoActiveWorkflow
	}
	if _, ok := g.stepsByID[stepID]; !ok {
		return nil, fmt.Errorf("step %s not found", stepID)
	}

	outcome := &RevertOutcome{DryRun: dryRun}

	for _, step := range g.dependentClosure(stepID) {
		if step.Status != StepApplied && step.Status != StepInProgress {
			continue
		}

		outcome.RevertedSteps = append(outcome.RevertedSteps, step.ID)
		for i := len(step.ChangeSetIDs) - 1; i >= 0; i-- {
			outcome.RevertedChangeSets = append(outcome.RevertedChangeSets, step.ChangeSetIDs[i])
		}

		if dryRun {
			continue
		}

		for i := len(step.ChangeSetIDs) - 1; i >= 0; i-- {
			res, err := g.coord.RevertChangeSet(ctx, step.ChangeSetIDs[i])
			if err != nil {
				g.log.Log("revert of change-set %s in step %s failed: %v", step.ChangeSetIDs[i], step.ID, err)
				outcome.Errors = append(outcome.Errors, transaction.FileError{
					ChangeSetID: step.ChangeSetIDs[i],
					Message:     err.Error(),
					Err:         err,
				})
				continue
			}
			outcome.Errors = append(outcome.Errors, res.Errors...)
		}
		step.Status = StepReverted
		if g.activeStep == step {
			g.activeStep = nil
		}
		g.log.Log("reverted step %d (%s)", step.StepNumber, step.Description)
	}

	if !dryRun {
		g.recomputeCurrent()
	}
	return outcome, nil
}

// RevertToStep reverts every applied step with a step number greater than n,
// processing in descending step number order and aggregating the results.
func (g *Graph) RevertToStep(ctx context.Context, n int) (*RevertOutcome, error) {
	if g.current == nil {
		return nil, ErrNoActiveWorkflow
	}

	targets := make([]*Step, 0)
	for _, step := range g.current.Steps {
		if step.StepNumber > n && step.Status == StepApplied {
			targets = append(targets, step)
		}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].StepNumber > targets[j].StepNumber
	})

	aggregate := &RevertOutcome{}
	for _, step := range targets {
		if step.Status != StepApplied {
			// Already reverted as a dependent of an earlier target.
			continue
		}
		outcome, err := g.RevertStep(ctx, step.ID, false)
		if err != nil {
			return nil, err
		}
		aggregate.RevertedSteps = append(aggregate.RevertedSteps, outcome.RevertedSteps...)
		aggregate.RevertedChangeSets = append(aggregate.RevertedChangeSets, outcome.RevertedChangeSets...)
		aggregate.Errors = append(aggregate.Errors, outcome.Errors...)
	}
	return aggregate, nil
}

// recomputeCurrent points the workflow at its last remaining applied step,
// or cancels the workflow when none remain.
func (g *Graph) recomputeCurrent() {
	if g.current == nil {
		return
	}

	last := -1
	for i, step := range g.current.Steps {
		if step.Status == StepApplied {
			last = i
		}
	}
	g.current.CurrentStepIndex = last
	if last == -1 {
		g.current.Status = StatusCancelled
	}
}

// Step returns a step by id, or nil.
func (g *Graph) Step(stepID string) *Step {
	return g.stepsByID[stepID]
}
