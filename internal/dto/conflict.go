package dto

import "time"

// ── 请假冲突 DTO ──

// 冲突类型（按检测优先级）
const (
	ConflictCoverageGap      = "coverage_gap"
	ConflictMutualDelegation = "mutual_delegation"
	ConflictChainUnavailable = "chain_unavailable"
)

// 建议处理方式
const (
	SuggestionAdjustDates       = "adjust_dates"
	SuggestionAssignAlternative = "assign_alternative"
	SuggestionChainDelegate     = "chain_delegate"
)

// 严重程度
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// AffectedPerson 冲突涉及的人员及其请假区间
type AffectedPerson struct {
	PersonID   string     `json:"person_id"`
	Name       string     `json:"name"`
	LeaveStart *time.Time `json:"leave_start,omitempty"`
	LeaveEnd   *time.Time `json:"leave_end,omitempty"`
}

// SuggestedResolution 建议处理方式
type SuggestedResolution struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	DelegateID  *string `json:"delegate_id,omitempty"`
}

// LeaveConflict 单条冲突
type LeaveConflict struct {
	Type           string                `json:"type"`
	Severity       string                `json:"severity"`
	Message        string                `json:"message"`
	AffectedPeople []AffectedPerson      `json:"affected_people"`
	Suggestions    []SuggestedResolution `json:"suggestions"`
}

// LeaveConflictResult 请假冲突检查结果（仅供参考，不阻断提交）
type LeaveConflictResult struct {
	PersonID               string          `json:"person_id"`
	StartDate              time.Time       `json:"start_date"`
	EndDate                time.Time       `json:"end_date"`
	HasConflicts           bool            `json:"has_conflicts"`
	Conflicts              []LeaveConflict `json:"conflicts"`
	CanProceedWithChaining bool            `json:"can_proceed_with_chaining"`
	ChainDelegateID        *string         `json:"chain_delegate_id,omitempty"`
}

// CheckLeaveConflictsRequest 单条请假冲突检查请求
type CheckLeaveConflictsRequest struct {
	PersonID  string `json:"person_id"  binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required"` // "2025-03-01"
	EndDate   string `json:"end_date"   binding:"required"` // "2025-03-10"
}

// LeaveSubmission 批量审批中的一条待审请假
type LeaveSubmission struct {
	LeaveRequestID string `json:"leave_request_id" binding:"omitempty,uuid"`
	PersonID       string `json:"person_id"        binding:"required,uuid"`
	StartDate      string `json:"start_date"       binding:"required"`
	EndDate        string `json:"end_date"         binding:"required"`
}

// BatchLeaveConflictsRequest 批量冲突检查请求
type BatchLeaveConflictsRequest struct {
	Submissions []LeaveSubmission `json:"submissions" binding:"required,min=1,max=200,dive"`
}

// BatchConflictItem 批量检查中单条请假的结果
type BatchConflictItem struct {
	LeaveRequestID string          `json:"leave_request_id,omitempty"`
	PersonID       string          `json:"person_id"`
	HasConflicts   bool            `json:"has_conflicts"`
	Conflicts      []LeaveConflict `json:"conflicts"`
	Error          string          `json:"error,omitempty"`
}

// BatchLeaveConflictsResponse 批量冲突检查结果
type BatchLeaveConflictsResponse struct {
	Items         []BatchConflictItem `json:"items"`
	ConflictCount int                 `json:"conflict_count"`
	FailedCount   int                 `json:"failed_count"`
}

// UpcomingConflict 前瞻扫描发现的一对重叠请假
type UpcomingConflict struct {
	DepartmentID   string         `json:"department_id"`
	DepartmentName string         `json:"department_name,omitempty"`
	Severity       string         `json:"severity"`
	OverlapStart   time.Time      `json:"overlap_start"`
	OverlapEnd     time.Time      `json:"overlap_end"`
	First          AffectedPerson `json:"first"`
	Second         AffectedPerson `json:"second"`
	Message        string         `json:"message"`
}
