package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/lokapasar/lokapasar/internal/jobs"
	"github.com/lokapasar/lokapasar/internal/moderation"
)

// ModerationSweepJob re-derives trust counters from non-expired warnings
// and strikes for accounts that are not blocked. Expired records stay on
// file as history.
type ModerationSweepJob struct {
	Service *moderation.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewModerationSweepJob initialises the sweep handler.
func NewModerationSweepJob(service *moderation.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ModerationSweepJob {
	return &ModerationSweepJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *ModerationSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("moderation sweep: handler not configured")
	}
	var payload ModerationSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	now := payload.ScheduledFor
	if now.IsZero() {
		now = j.now()
	}

	tracker := j.Metrics.Track(TaskModerationSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting moderation sweep", slog.Time("as_of", now))

	result, err := j.Service.SweepExpired(ctx, now)
	if err != nil {
		resultErr = err
		logger.Error("sweep failed", slog.Any("error", err))
		return resultErr
	}

	j.Metrics.SetExpired("warning", result.WarningsExpired)
	j.Metrics.SetExpired("strike", result.StrikesExpired)
	logger.Info("completed moderation sweep",
		slog.Int64("warnings_expired", result.WarningsExpired),
		slog.Int64("strikes_expired", result.StrikesExpired),
		slog.Int64("users_reconciled", result.UsersReconciled),
		slog.Int64("shops_reconciled", result.ShopsReconciled),
	)
	return resultErr
}

func (j *ModerationSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskModerationSweep))
	}
	return slog.Default().With(slog.String("job", TaskModerationSweep))
}

func (j *ModerationSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
