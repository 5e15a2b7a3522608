package jobrun

// Workflow and activity registration names. These are part of the contract
// with already-running executions; renaming them strands in-flight workflows.
const (
	WorkflowName = "job_run"
	ActivityTick = "job_run_tick"
)

// TickResult is what a single activity tick reports back to the workflow.
// It mirrors the job_run row's machine state; human-readable text travels
// on the SSE events, not here.
type TickResult struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}
