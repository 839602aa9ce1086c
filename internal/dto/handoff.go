package dto

import "time"

// ── 归岗交接 DTO ──

// CompleteHandoffRequest 完成交接请求
type CompleteHandoffRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}

// HandoffWindowRequest 交接/归岗看板查询
type HandoffWindowRequest struct {
	Days int `form:"days" binding:"omitempty,min=0,max=90"`
}

// ReturnItem 即将归岗 / 待交接条目
type ReturnItem struct {
	DelegationID   string    `json:"delegation_id"`
	DelegatorID    string    `json:"delegator_id"`
	DelegatorName  string    `json:"delegator_name,omitempty"`
	DelegateID     string    `json:"delegate_id"`
	DelegateName   string    `json:"delegate_name,omitempty"`
	EndDate        time.Time `json:"end_date"`
	DaysRemaining  int       `json:"days_remaining"`
	HandoffStarted bool      `json:"handoff_started"`
}

// ReminderSweepReport 提醒扫描报告
type ReminderSweepReport struct {
	RunAt  time.Time `json:"run_at"`
	Due    int       `json:"due"`
	Sent   int       `json:"sent"`
	Failed int       `json:"failed"`
}
