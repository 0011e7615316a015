package models

import "time"

// LogStatus is the state of one recorded job step.
type LogStatus string

const (
	LogStarted    LogStatus = "started"
	LogProcessing LogStatus = "processing"
	LogSuccess    LogStatus = "success"
	LogError      LogStatus = "error"
)

// LogEntry is one step of a long-running backend job, carrying the prompt sent
// to the AI system and the response received.
type LogEntry struct {
	ID            int64     `json:"id"`
	ActionLabel   string    `json:"action_label"`
	PromptText    string    `json:"prompt_text"`
	ResponseText  string    `json:"response_text"`
	Status        LogStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	PromptVersion string    `json:"prompt_version,omitempty"`
	PromptName    string    `json:"prompt_name,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// LatestID returns the greatest id in entries, or 0 when entries is empty.
func LatestID(entries []LogEntry) int64 {
	var latest int64
	for _, e := range entries {
		if e.ID > latest {
			latest = e.ID
		}
	}
	return latest
}

// Framework is the result of a build-framework job.
type Framework struct {
	ProjectID string         `json:"project_id"`
	Version   int            `json:"version"`
	Outline   map[string]any `json:"outline,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
