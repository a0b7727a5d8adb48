package resp

import (
	"time"

	"github.com/gunuduru/assignment-auth/internal/model"
)

type BroadcastResp struct {
	AgeGroup              int    `json:"ageGroup"`
	TargetUserCount       int    `json:"targetUserCount"`
	ScheduledMessageCount int    `json:"scheduledMessageCount"`
	EstimatedStartTime    string `json:"estimatedStartTime"`
}

type PendingResp struct {
	PendingCount int64 `json:"pendingCount"`
}

type SchedulerStatusResp struct {
	Running  bool      `json:"running"`
	Interval string    `json:"interval"`
	NextRun  time.Time `json:"nextRun,omitzero"`
}

type DispatchStatsResp struct {
	Scheduler SchedulerStatusResp        `json:"scheduler"`
	Pending   int64                      `json:"pending"`
	Recent    []model.DispatchTickResult `json:"recent"`
}
