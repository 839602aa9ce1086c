package dto

import "erp-doa/backend/internal/model"

// ── 代理档案 DTO ──

// UpsertProfileRequest 创建或更新代理档案
type UpsertProfileRequest struct {
	PrimaryDelegateID *string                `json:"primary_delegate_id"`
	Scope             *model.DelegationScope `json:"scope"`
	EscalationRules   *model.EscalationRules `json:"escalation_rules"`
}

// ValidationError 字段级校验信息
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UpsertProfileResponse 档案保存结果，校验失败时 Profile 为空
type UpsertProfileResponse struct {
	Profile *model.DelegationProfile `json:"profile,omitempty"`
	Errors  []ValidationError        `json:"errors,omitempty"`
}

// DelegateSuggestion 候选代理人
type DelegateSuggestion struct {
	PersonID     string              `json:"person_id"`
	Name         string              `json:"name"`
	Role         string              `json:"role"`
	DepartmentID string              `json:"department_id"`
	Availability *AvailabilityResult `json:"availability"`
}
