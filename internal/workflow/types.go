package workflow

// StepStatus is the lifecycle state of one workflow step.
// pending -> in-progress -> {applied | failed}; applied -> reverted.
// reverted and failed are terminal. A failed step does not automatically
// revert its dependents; only an explicit RevertStep cascades.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepApplied    StepStatus = "applied"
	StepReverted   StepStatus = "reverted"
	StepFailed     StepStatus = "failed"
)

// Status is the lifecycle state of a workflow.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// CommandResult is an externally produced command-execution record stored
// verbatim against the step that ran it. The engine never executes commands
// itself.
type CommandResult struct {
	Command    string `json:"command"`
	ExitCode   int    `json:"exitCode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMs int64  `json:"durationMs"`
	Success    bool   `json:"success"`
}

// Step is one unit of work in a workflow, grouping the change-sets it
// produced. DependsOn and Dependents are inverse edges of the same DAG;
// Dependents is maintained incrementally as steps are added, never computed
// lazily.
type Step struct {
	ID             string          `json:"id"`
	StepNumber     int             `json:"stepNumber"`
	SessionID      string          `json:"sessionId"`
	Description    string          `json:"description"`
	DependsOn      []string        `json:"dependsOn,omitempty"`
	Dependents     []string        `json:"dependents,omitempty"`
	ChangeSetIDs   []string        `json:"changeSetIds,omitempty"`
	Status         StepStatus      `json:"status"`
	CommandResults []CommandResult `json:"commandResults,omitempty"`
}

// Workflow is a named multi-step task. It owns its steps; a step's lifetime
// is bounded by its owning workflow.
type Workflow struct {
	ID               string  `json:"id"`
	SessionID        string  `json:"sessionId"`
	Steps            []*Step `json:"steps"`
	CurrentStepIndex int     `json:"currentStepIndex"`
	Status           Status  `json:"status"`
}
