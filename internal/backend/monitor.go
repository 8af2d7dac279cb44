package backend

import (
	"context"
	"net/url"
	"strconv"
)

// MonitorConfig is one watched social-channel target.
type MonitorConfig struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	ChannelCode      int    `json:"channel_code"`
	ChannelName      string `json:"channel_name"`
	TargetURL        string `json:"target_url"`
	TargetExternalID string `json:"target_external_id,omitempty"`
	AccountName      string `json:"account_name,omitempty"`
	AccountAvatar    string `json:"account_avatar,omitempty"`
	IsActive         int    `json:"is_active"`
	LastRunAt        string `json:"last_run_at,omitempty"`
	LastRunStatus    *int   `json:"last_run_status,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// MonitorQuery filters the config list.
type MonitorQuery struct {
	PageQuery
	AccountName    string `json:"account_name,omitempty"`
	ChannelCode    *int   `json:"channel_code,omitempty"`
	IsActive       *int   `json:"is_active,omitempty"`
	CreatedAtStart string `json:"created_at_start,omitempty"`
	CreatedAtEnd   string `json:"created_at_end,omitempty"`
}

// MonitorCreate registers a new watch target on a channel.
type MonitorCreate struct {
	ChannelCode int    `json:"channel_code"`
	TargetURL   string `json:"target_url"`
}

// MonitorDailyStats is one day of collected metrics for a config.
type MonitorDailyStats struct {
	ID            int64          `json:"id"`
	ConfigID      int64          `json:"config_id"`
	StatDate      string         `json:"stat_date"`
	FollowerCount int64          `json:"follower_count"`
	LikedCount    int64          `json:"liked_count"`
	ViewCount     int64          `json:"view_count"`
	ContentCount  int64          `json:"content_count"`
	ExtraData     map[string]any `json:"extra_data,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// ListMonitorConfigs fetches one page of configs.
func (c *Client) ListMonitorConfigs(ctx context.Context, q MonitorQuery) (*PageResult[MonitorConfig], error) {
	var page PageResult[MonitorConfig]
	if err := c.post(ctx, "/monitor/config/pageList", nil, nil, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateMonitorConfig registers a new watch target.
func (c *Client) CreateMonitorConfig(ctx context.Context, req MonitorCreate) (*MonitorConfig, error) {
	var config MonitorConfig
	if err := c.post(ctx, "/monitor/config", nil, nil, req, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// UpdateMonitorConfig changes the target link of a config.
func (c *Client) UpdateMonitorConfig(ctx context.Context, id int64, targetURL string) (*MonitorConfig, error) {
	body := struct {
		ID        int64  `json:"id"`
		TargetURL string `json:"target_url"`
	}{ID: id, TargetURL: targetURL}
	var config MonitorConfig
	if err := c.post(ctx, "/monitor/config/update", nil, nil, body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ToggleMonitorConfig enables or disables a config.
func (c *Client) ToggleMonitorConfig(ctx context.Context, id int64, active bool) (*MonitorConfig, error) {
	isActive := 0
	if active {
		isActive = 1
	}
	body := struct {
		ID       int64 `json:"id"`
		IsActive int   `json:"is_active"`
	}{ID: id, IsActive: isActive}
	var config MonitorConfig
	if err := c.post(ctx, "/monitor/config/toggle", nil, nil, body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DeleteMonitorConfig soft-deletes a config.
func (c *Client) DeleteMonitorConfig(ctx context.Context, id int64) error {
	query := url.Values{"id": []string{strconv.FormatInt(id, 10)}}
	return c.post(ctx, "/monitor/config/delete", nil, query, nil, nil)
}

// MonitorDailyStatsRange fetches per-day metrics of one config over an
// inclusive date range, oldest first.
func (c *Client) MonitorDailyStatsRange(ctx context.Context, configID int64, startDate, endDate string) ([]MonitorDailyStats, error) {
	body := struct {
		ConfigID  int64  `json:"config_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{ConfigID: configID, StartDate: startDate, EndDate: endDate}
	var stats []MonitorDailyStats
	if err := c.post(ctx, "/monitor/stats/daily", nil, nil, body, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
