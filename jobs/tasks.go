// Package jobs hosts the background worker. Its single recurring job
// scans stored business costs for records a report would have to
// exclude, so malformed data surfaces in logs and metrics before anyone
// opens a dashboard.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCostIntegrityScan is the task type for the nightly cost scan.
	TaskCostIntegrityScan = "costs:integrity_scan"
)

// CostIntegrityPayload parameterizes a cost integrity scan run.
type CostIntegrityPayload struct {
	// IncludeInactive widens the scan to deactivated records.
	IncludeInactive bool `json:"include_inactive"`
}

// NewCostIntegrityTask constructs an Asynq task for the scan.
func NewCostIntegrityTask(payload CostIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCostIntegrityScan, data), nil
}
