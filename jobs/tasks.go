package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueImport holds invoice imports, which are long and model-bound.
	QueueImport = "import"
	// TaskImportNFE runs an invoice import in the worker.
	TaskImportNFE = "import:nfe"
)

const (
	importTimeout   = 15 * time.Minute
	importMaxRetry  = 3
	importRetention = 24 * time.Hour
)

// ImportNFEPayload carries the invoice content and the user who submitted it.
type ImportNFEPayload struct {
	Document string `json:"document"`
	ActorID  string `json:"actor_id"`
}

// NewImportNFETask constructs an Asynq task for an invoice import. The task
// result is kept for a day so callers can fetch the summary.
func NewImportNFETask(payload ImportNFEPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportNFE, body,
		asynq.Queue(QueueImport),
		asynq.MaxRetry(importMaxRetry),
		asynq.Timeout(importTimeout),
		asynq.Retention(importRetention),
	), nil
}
