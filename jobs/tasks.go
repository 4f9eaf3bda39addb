package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskModerationSweep reconciles counters for expired warnings and strikes.
	TaskModerationSweep = "moderation:sweep"
)

// ModerationSweepPayload carries scheduling metadata for the sweep.
type ModerationSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewModerationSweepTask constructs an Asynq task for the moderation sweep.
func NewModerationSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ModerationSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskModerationSweep, body, asynq.Queue(QueueDefault)), nil
}
