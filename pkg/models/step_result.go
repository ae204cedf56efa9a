package models

// StepResult is the outcome reported by a step executor for a single node.
// Output feeds the execution context on success; Error is a human-readable
// failure description recorded on the blocked node.
type StepResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}
