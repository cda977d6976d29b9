package domain

import "time"

// RunSummary reports the outcome of one processing run for a monitor.
type RunSummary struct {
	RunID         string      `json:"run_id"`
	Monitor       string      `json:"monitor"`
	DataloadBatch []string    `json:"dataload_batches"`
	Coordinates   Coordinates `json:"coordinates"`
	Candidates    int         `json:"candidates"`
	Skipped       int         `json:"skipped"`
	Succeeded     int         `json:"succeeded"`
	Empty         int         `json:"empty"`
	Failed        int         `json:"failed"`
	Detections    int         `json:"detections"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}

// Processed is the number of recordings submitted in this run.
func (s RunSummary) Processed() int {
	return s.Succeeded + s.Empty + s.Failed
}
