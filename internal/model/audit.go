package model

import "time"

const (
	AuditUserUpdate        = "user.update"
	AuditUserDelete        = "user.delete"
	AuditBroadcastSchedule = "broadcast.schedule"
	AuditDispatchTrigger   = "dispatch.trigger"
	AuditSchedulerStart    = "scheduler.start"
	AuditSchedulerStop     = "scheduler.stop"
)

// AdminAudit records one state-changing admin action.
type AdminAudit struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Action    string    `json:"action" gorm:"size:32;not null;index"`
	TargetID  int64     `json:"target_id"`
	Detail    string    `json:"detail" gorm:"type:text"`
	Operator  string    `json:"operator" gorm:"size:64"`
	TraceID   string    `json:"trace_id" gorm:"size:36;index"`
	IP        string    `json:"ip" gorm:"size:45"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
