// Package jobs runs background work over asynq: the periodic overview
// snapshot refresh that keeps the dashboard landing page warm.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
	"github.com/pulseboard/pulseboard/internal/observability"
	"github.com/pulseboard/pulseboard/internal/overview"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverviewRefresh is the task type for rebuilding the overview
	// snapshot.
	TaskOverviewRefresh = "overview:refresh"
)

// OverviewRefreshPayload records why a refresh was requested.
type OverviewRefreshPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewOverviewRefreshTask constructs an asynq task for a snapshot
// rebuild.
func NewOverviewRefreshTask(payload OverviewRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverviewRefresh, data), nil
}

// OverviewRefreshJob rebuilds the dashboard snapshot and records the
// outcome.
type OverviewRefreshJob struct {
	Refresher  *overview.Refresher
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	JobMetrics *jobmetrics.Metrics
	clock      func() time.Time
}

// NewOverviewRefreshJob initialises the snapshot refresh handler.
func NewOverviewRefreshJob(refresher *overview.Refresher, logger *slog.Logger, metrics *observability.Metrics, jm *jobmetrics.Metrics) *OverviewRefreshJob {
	return &OverviewRefreshJob{
		Refresher:  refresher,
		Logger:     logger,
		Metrics:    metrics,
		JobMetrics: jm,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one snapshot rebuild.
func (j *OverviewRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OverviewRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.Logger
	if payload.Reason != "" {
		logger = logger.With(slog.String("reason", payload.Reason))
	}

	tracker := j.JobMetrics.Track(TaskOverviewRefresh)
	snap, err := j.Refresher.Refresh(ctx)
	err = tracker.End(err)
	if err != nil {
		if j.Metrics != nil {
			j.Metrics.SnapshotRefresh("error")
		}
		logger.Error("overview refresh failed", slog.Any("error", err))
		return err
	}

	if j.Metrics != nil {
		j.Metrics.SnapshotRefresh("ok")
		j.Metrics.SnapshotAge(snap.Age(j.clock()))
	}
	logger.Info("overview snapshot refreshed",
		slog.Int("total_tasks", snap.TotalTasks),
		slog.Int("active_monitors", snap.ActiveMonitors),
		slog.Int("unused_codes", snap.UnusedCodes),
	)
	return nil
}
