package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ── 代理范围 ──

// 授权级别
const (
	AuthorityFull     = "full"
	AuthorityStandard = "standard"
	AuthorityLimited  = "limited"
)

// ScopeSet 范围集合：JSON 中为字符串 "all" 或字符串数组
type ScopeSet struct {
	All    bool
	Values []string
}

// AllScope 不限范围
func AllScope() ScopeSet { return ScopeSet{All: true} }

// ScopeOf 限定范围
func ScopeOf(values ...string) ScopeSet { return ScopeSet{Values: values} }

// Contains 集合是否包含某值（All 时恒为 true）
func (s ScopeSet) Contains(v string) bool {
	if s.All {
		return true
	}
	for _, x := range s.Values {
		if x == v {
			return true
		}
	}
	return false
}

// MarshalJSON 实现 json.Marshaler
func (s ScopeSet) MarshalJSON() ([]byte, error) {
	if s.All {
		return []byte(`"all"`), nil
	}
	if s.Values == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(s.Values)
}

// UnmarshalJSON 实现 json.Unmarshaler，只接受 "all"、null 或字符串数组
func (s *ScopeSet) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = AllScope()
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str != "all" {
			return fmt.Errorf("ScopeSet: 非法取值 %q", str)
		}
		*s = AllScope()
		return nil
	}
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("ScopeSet: %w", err)
	}
	*s = ScopeSet{Values: values}
	return nil
}

// DelegationScope 代理范围（客户 × 任务类型 × 授权级别 × 金额阈值）
type DelegationScope struct {
	Clients        ScopeSet `json:"clients"`
	TaskTypes      ScopeSet `json:"task_types"`
	AuthorityLevel string   `json:"authority_level"`
	ValueThreshold *float64 `json:"value_threshold,omitempty"`
}

// DefaultScope 默认范围：全部客户、全部类型、标准授权、无阈值
func DefaultScope() DelegationScope {
	return DelegationScope{
		Clients:        AllScope(),
		TaskTypes:      AllScope(),
		AuthorityLevel: AuthorityStandard,
	}
}

// Clone 深拷贝，用于生成冻结快照
func (s DelegationScope) Clone() DelegationScope {
	out := s
	if s.Clients.Values != nil {
		out.Clients.Values = append([]string(nil), s.Clients.Values...)
	}
	if s.TaskTypes.Values != nil {
		out.TaskTypes.Values = append([]string(nil), s.TaskTypes.Values...)
	}
	if s.ValueThreshold != nil {
		v := *s.ValueThreshold
		out.ValueThreshold = &v
	}
	return out
}

// Scan 实现 sql.Scanner
func (s *DelegationScope) Scan(src interface{}) error {
	if src == nil {
		*s = DefaultScope()
		return nil
	}
	return scanJSON(src, s)
}

// Value 实现 driver.Valuer
func (s DelegationScope) Value() (driver.Value, error) {
	return valueJSON(s)
}

// ── 升级规则 ──

// 升级触发条件
const (
	TriggerDelegateUnavailable = "delegate_unavailable"
	TriggerHighValue           = "high_value"
	TriggerDeadlineRisk        = "deadline_risk"
	TriggerClientEscalation    = "client_escalation"
)

// ValidEscalationTriggers 合法的升级触发条件
var ValidEscalationTriggers = map[string]bool{
	TriggerDelegateUnavailable: true,
	TriggerHighValue:           true,
	TriggerDeadlineRisk:        true,
	TriggerClientEscalation:    true,
}

// EscalationRules 升级规则
type EscalationRules struct {
	Triggers           []string `json:"triggers"`
	EscalateTo         *string  `json:"escalate_to,omitempty"`
	EscalateAfterHours int      `json:"escalate_after_hours,omitempty"`
}

// Scan 实现 sql.Scanner
func (r *EscalationRules) Scan(src interface{}) error {
	if src == nil {
		*r = EscalationRules{}
		return nil
	}
	return scanJSON(src, r)
}

// Value 实现 driver.Valuer
func (r EscalationRules) Value() (driver.Value, error) {
	return valueJSON(r)
}

// DelegationProfile 代理档案表 — 对应 delegation_profiles（每人一份）
type DelegationProfile struct {
	ProfileID         string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	OrgID             string          `gorm:"type:uuid;not null"                             json:"org_id"`
	PersonID          string          `gorm:"type:uuid;not null;uniqueIndex"                 json:"person_id"`
	PrimaryDelegateID *string         `gorm:"type:uuid"                                      json:"primary_delegate_id,omitempty"`
	Scope             DelegationScope `gorm:"type:jsonb;not null"                            json:"scope"`
	EscalationRules   EscalationRules `gorm:"type:jsonb;not null"                            json:"escalation_rules"`
	VersionedModel

	// 关联
	Person          *Person `gorm:"foreignKey:PersonID;references:PersonID"          json:"person,omitempty"`
	PrimaryDelegate *Person `gorm:"foreignKey:PrimaryDelegateID;references:PersonID" json:"primary_delegate,omitempty"`
}

// TableName 指定表名
func (DelegationProfile) TableName() string { return "delegation_profiles" }

// [自证通过] internal/model/delegation_profile.go
