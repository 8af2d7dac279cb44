package backend

import "context"

// MonitorTask is one scheduled collection run.
type MonitorTask struct {
	ID             int64  `json:"id"`
	ChannelCode    int    `json:"channel_code"`
	ChannelName    string `json:"channel_name"`
	TaskType       int    `json:"task_type"`
	TaskTypeName   string `json:"task_type_name"`
	BizID          int64  `json:"biz_id"`
	TaskStatus     int    `json:"task_status"`
	TaskStatusName string `json:"task_status_name"`
	ScheduleDate   string `json:"schedule_date"`
	ErrorMsg       string `json:"error_msg,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
	CreatedAt      string `json:"created_at"`
	StartedAt      string `json:"started_at,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`
}

// TaskQuery filters the task list by channel, type, status and schedule
// date range.
type TaskQuery struct {
	PageQuery
	ChannelCode *int   `json:"channel_code,omitempty"`
	TaskType    *int   `json:"task_type,omitempty"`
	TaskStatus  *int   `json:"task_status,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// ListTasks fetches one page of scheduled task runs.
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (*PageResult[MonitorTask], error) {
	var page PageResult[MonitorTask]
	if err := c.post(ctx, "/task/pageList", nil, nil, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
