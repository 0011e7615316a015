package models

// StageStatus is the server-reported state of a workflow stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
)

// StageState is the server's view of one stage.
type StageState struct {
	Status  StageStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// WorkflowStatus maps stage keys to their server-reported state.
type WorkflowStatus struct {
	Stages map[string]StageState `json:"stages"`
}
