package workflow

import "encoding/json"

// State is the plain value form of a graph, suitable for a durable session
// store.
type State struct {
	Workflows         []*Workflow `json:"workflows"`
	CurrentWorkflowID string      `json:"currentWorkflowId,omitempty"`
}

// State captures the graph's workflows and current workflow id.
func (g *Graph) State() State {
	s := State{Workflows: g.workflows}
	if g.current != nil {
		s.CurrentWorkflowID = g.current.ID
	}
	return s
}

// MarshalJSON serializes the graph in its plain value form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.State())
}

// RestoreState rehydrates the graph's workflows from their plain value form,
// re-linking the in-memory step index and current workflow pointer. The
// active step is not restored; a step is active only while its driver is
// running.
func (g *Graph) RestoreState(s State) {
	g.workflows = s.Workflows
	g.current = nil
	g.activeStep = nil
	g.stepsByID = make(map[string]*Step)

	for _, wf := range g.workflows {
		if wf.ID == s.CurrentWorkflowID {
			g.current = wf
		}
		for _, step := range wf.Steps {
			g.stepsByID[step.ID] = step
		}
	}
}

// RestoreJSON rehydrates the graph from serialized state.
func (g *Graph) RestoreJSON(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	g.RestoreState(s)
	return nil
}
