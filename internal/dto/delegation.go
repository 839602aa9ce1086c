package dto

import (
	"time"

	"erp-doa/backend/internal/model"
)

// ── 代理生命周期 DTO ──

// StartDelegationRequest 发起代理请求（请假审批通过后由上游调用）
// DelegateID / Scope 缺省时取委托人档案
type StartDelegationRequest struct {
	DelegatorID    string                 `json:"delegator_id"     binding:"required,uuid"`
	DelegateID     *string                `json:"delegate_id"      binding:"omitempty,uuid"`
	LeaveRequestID *string                `json:"leave_request_id" binding:"omitempty,uuid"`
	StartDate      string                 `json:"start_date"       binding:"required"`
	EndDate        string                 `json:"end_date"         binding:"required"`
	Scope          *model.DelegationScope `json:"scope"`
}

// CancelDelegationRequest 取消代理请求
type CancelDelegationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RecordActivityRequest 代理期间记录活动
type RecordActivityRequest struct {
	ActivityType string                 `json:"activity_type" binding:"required,oneof=CLIENT_COMMUNICATION APPROVAL DECISION TASK_COMPLETED TASK_ESCALATED"`
	EntityType   string                 `json:"entity_type"   binding:"max=30"`
	EntityID     *string                `json:"entity_id"     binding:"omitempty,uuid"`
	Description  string                 `json:"description"   binding:"required,max=2000"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// RouteTaskRequest 新建任务并按代理链路由
type RouteTaskRequest struct {
	IntendedOwnerID string   `json:"intended_owner_id" binding:"required,uuid"`
	Title           string   `json:"title"             binding:"required,max=200"`
	ClientID        *string  `json:"client_id"         binding:"omitempty,uuid"`
	TaskType        string   `json:"task_type"         binding:"required,max=50"`
	EstimatedValue  *float64 `json:"estimated_value"   binding:"omitempty,gte=0"`
	DueDate         *string  `json:"due_date"`
}

// RouteTaskResponse 路由结果
type RouteTaskResponse struct {
	Brief        *model.Brief      `json:"brief"`
	Resolution   *ResolutionResult `json:"resolution"`
	DelegationID *string           `json:"delegation_id,omitempty"`
	// OutOfScope 负责人正在被代理，但任务超出代理范围，保留在原负责人名下
	OutOfScope bool `json:"out_of_scope"`
}

// DelegationListRequest 查询某人的代理列表
type DelegationListRequest struct {
	PaginationRequest
	Direction string `form:"direction" binding:"omitempty,oneof=outgoing incoming all"`
	Status    string `form:"status"    binding:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELLED"`
}

// DelegationSummary 代理汇总
type DelegationSummary struct {
	Delegation      *model.ActiveDelegation `json:"delegation"`
	ActivityCounts  map[string]int64        `json:"activity_counts"`
	TotalActivities int64                   `json:"total_activities"`
	TasksHeld       int                     `json:"tasks_held"` // 当前仍由代理人持有的简报数
	DaysRemaining   int                     `json:"days_remaining"`
}

// ActivationItem 批量激活中单条代理的处理结果
type ActivationItem struct {
	DelegationID    string `json:"delegation_id"`
	Activated       bool   `json:"activated"`
	Resumed         bool   `json:"resumed"` // 已 ACTIVE 但任务未转交完成，本轮补做
	Skipped         bool   `json:"skipped"`
	TasksReassigned int    `json:"tasks_reassigned"`
	TasksEscalated  int    `json:"tasks_escalated"`
	Error           string `json:"error,omitempty"`
}

// ActivationReport 批量激活报告
type ActivationReport struct {
	RunAt     time.Time        `json:"run_at"`
	Items     []ActivationItem `json:"items"`
	Activated int              `json:"activated"`
	Resumed   int              `json:"resumed"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
}

// ReassignmentResult 批量转交结果
type ReassignmentResult struct {
	Reassigned int `json:"reassigned"`
	Escalated  int `json:"escalated"`
	Skipped    int `json:"skipped"` // 范围外或已被借用
}
