// Package overview builds the dashboard landing page: a handful of
// aggregate counters pulled from the backend concurrently, snapshotted
// into redis so the landing page stays cheap.
package overview

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/backend"
)

const (
	taskStatusSucceeded = 2
	taskStatusFailed    = 3
)

// Snapshot holds the dashboard counters at one point in time.
type Snapshot struct {
	TotalTasks     int       `json:"total_tasks"`
	SucceededTasks int       `json:"succeeded_tasks"`
	FailedTasks    int       `json:"failed_tasks"`
	SuccessRate    float64   `json:"success_rate"`
	ActiveMonitors int       `json:"active_monitors"`
	TotalMonitors  int       `json:"total_monitors"`
	UnusedCodes    int       `json:"unused_codes"`
	TotalAccounts  int       `json:"total_accounts"`
	TotalUsers     int       `json:"total_users"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Age reports how old the snapshot is at the given instant.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.GeneratedAt)
}

// Service assembles snapshots from the backend.
type Service struct {
	api *backend.Client
	now func() time.Time
}

// NewService constructs a Service instance.
func NewService(api *backend.Client) *Service {
	return &Service{api: api, now: time.Now}
}

// BuildSnapshot fetches every counter concurrently. The backend has no
// count endpoints, so each counter is the Total of a one-row page query.
func (s *Service) BuildSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	one := backend.PageQuery{Page: 1, Size: 1}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.api.ListTasks(ctx, backend.TaskQuery{PageQuery: one})
		if err != nil {
			return err
		}
		snap.TotalTasks = page.Total
		return nil
	})
	g.Go(func() error {
		status := taskStatusSucceeded
		page, err := s.api.ListTasks(ctx, backend.TaskQuery{PageQuery: one, TaskStatus: &status})
		if err != nil {
			return err
		}
		snap.SucceededTasks = page.Total
		return nil
	})
	g.Go(func() error {
		status := taskStatusFailed
		page, err := s.api.ListTasks(ctx, backend.TaskQuery{PageQuery: one, TaskStatus: &status})
		if err != nil {
			return err
		}
		snap.FailedTasks = page.Total
		return nil
	})
	g.Go(func() error {
		page, err := s.api.ListMonitorConfigs(ctx, backend.MonitorQuery{PageQuery: one})
		if err != nil {
			return err
		}
		snap.TotalMonitors = page.Total
		return nil
	})
	g.Go(func() error {
		active := 1
		page, err := s.api.ListMonitorConfigs(ctx, backend.MonitorQuery{PageQuery: one, IsActive: &active})
		if err != nil {
			return err
		}
		snap.ActiveMonitors = page.Total
		return nil
	})
	g.Go(func() error {
		status := backend.ActivationStatusUnused
		page, err := s.api.ListActivationCodes(ctx, backend.ActivationQuery{PageQuery: one, Status: &status})
		if err != nil {
			return err
		}
		snap.UnusedCodes = page.Total
		return nil
	})
	g.Go(func() error {
		page, err := s.api.ListAccounts(ctx, backend.AccountQuery{PageQuery: one})
		if err != nil {
			return err
		}
		snap.TotalAccounts = page.Total
		return nil
	})
	g.Go(func() error {
		page, err := s.api.ListUsers(ctx, backend.UserQuery{PageQuery: one})
		if err != nil {
			return err
		}
		snap.TotalUsers = page.Total
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if snap.TotalTasks > 0 {
		snap.SuccessRate = float64(snap.SucceededTasks) / float64(snap.TotalTasks)
	}
	snap.GeneratedAt = s.now().UTC()
	return snap, nil
}
