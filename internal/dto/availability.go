package dto

import (
	"time"

	"erp-doa/backend/internal/model"
)

// ── 可用性与链式解析 DTO ──

// 不可用原因
const (
	UnavailableOnLeave  = "on_leave"
	UnavailableInactive = "inactive"
)

// AvailabilityResult 某人在某一时刻的可用性
type AvailabilityResult struct {
	PersonID           string     `json:"person_id"`
	IsAvailable        bool       `json:"is_available"`
	Reason             string     `json:"reason,omitempty"` // on_leave | inactive
	UnavailableUntil   *time.Time `json:"unavailable_until,omitempty"`
	DelegateID         *string    `json:"delegate_id,omitempty"`
	ActiveDelegationID *string    `json:"active_delegation_id,omitempty"`
}

// ResolveRequest 链式解析请求
type ResolveRequest struct {
	PersonID string `json:"person_id" binding:"required,uuid"`
	AsOf     string `json:"as_of"` // RFC3339，缺省为当前时间
}

// ResolutionResult 链式解析结果
// 升级耗尽时 AssigneeID 回退为原负责人，Critical=true，不视为错误
type ResolutionResult struct {
	AssigneeID         string   `json:"assignee_id"`
	OriginalAssigneeID string   `json:"original_assignee_id"`
	WasDelegated       bool     `json:"was_delegated"`
	DelegationChain    []string `json:"delegation_chain"`
	WasEscalated       bool     `json:"was_escalated"`
	EscalationReason   string   `json:"escalation_reason,omitempty"`
	Critical           bool     `json:"critical"`
}

// TaskAttributes 任务分类字段，用于范围匹配
type TaskAttributes struct {
	ClientID       *string  `json:"client_id"`
	TaskType       string   `json:"task_type"`
	EstimatedValue *float64 `json:"estimated_value"`
}

// ScopeMatchRequest 范围匹配请求
type ScopeMatchRequest struct {
	Scope model.DelegationScope `json:"scope"`
	Task  TaskAttributes        `json:"task"`
}

// ScopeMatchResponse 范围匹配结果
type ScopeMatchResponse struct {
	ShouldDelegate bool `json:"should_delegate"`
}
