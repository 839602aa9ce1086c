package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"erp-doa/backend/config"
	"erp-doa/backend/internal/dto"
	"erp-doa/backend/internal/model"
	"erp-doa/backend/internal/repository"
)

// ConflictService 请假冲突预检（仅提示，不阻断请假提交）
type ConflictService interface {
	CheckLeaveConflicts(ctx context.Context, orgID, personID string, start, end time.Time) (*dto.LeaveConflictResult, error)
	// FindAvailableChainDelegate 优先本部门，找不到时扩大到全组织负责人及以上；无人返回 nil
	FindAvailableChainDelegate(ctx context.Context, orgID, departmentID string, start, end time.Time, exclude []string) (*model.Person, error)
	// CheckBatchLeaveConflicts 仅在本批次待审请假之间交叉检查
	CheckBatchLeaveConflicts(ctx context.Context, orgID string, req *dto.BatchLeaveConflictsRequest) (*dto.BatchLeaveConflictsResponse, error)
	// GetUpcomingConflicts 未来 days 天内同部门已批准请假两两重叠的告警，days<=0 取配置默认值
	GetUpcomingConflicts(ctx context.Context, orgID string, days int) ([]dto.UpcomingConflict, error)
}

type conflictService struct {
	cfg    *config.DelegationConfig
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(cfg *config.DelegationConfig, repo *repository.Repository, clock Clock, logger *zap.Logger) ConflictService {
	return &conflictService{cfg: cfg, repo: repo, clock: clock, logger: logger}
}

// 参与冲突判断的请假状态：已批准与待审批
var overlappingLeaveStatuses = []string{model.LeaveStatusApproved, model.LeaveStatusPending}

// ═══════════════════════════════════════════════════════════
// CheckLeaveConflicts 单条请假预检
// ═══════════════════════════════════════════════════════════
//
// 检测优先级：
//   1. coverage_gap       未配置主代理人，无法链式代理
//   2. mutual_delegation  主代理人同期请假，且其主代理人正是本人
//   3. chain_unavailable  主代理人同期请假或已停用，但不成环

func (s *conflictService) CheckLeaveConflicts(ctx context.Context, orgID, personID string, start, end time.Time) (*dto.LeaveConflictResult, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	person, err := s.getPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if orgID != "" && person.OrgID != orgID {
		return nil, ErrPersonNotFound
	}

	result := &dto.LeaveConflictResult{
		PersonID:  personID,
		StartDate: start,
		EndDate:   end,
		Conflicts: []dto.LeaveConflict{},
	}

	profile, err := s.repo.Profile.GetByPerson(ctx, personID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询代理档案失败", zap.String("person_id", personID), zap.Error(err))
		return nil, err
	}

	// 1. coverage_gap
	if profile == nil || profile.PrimaryDelegateID == nil || *profile.PrimaryDelegateID == "" {
		result.HasConflicts = true
		result.Conflicts = append(result.Conflicts, dto.LeaveConflict{
			Type:           dto.ConflictCoverageGap,
			Severity:       dto.SeverityHigh,
			Message:        fmt.Sprintf("%s 未配置主代理人，请假期间的工作无人接手", person.Name),
			AffectedPeople: []dto.AffectedPerson{affected(person, &start, &end)},
			Suggestions:    baseSuggestions(),
		})
		return result, nil
	}

	delegateID := *profile.PrimaryDelegateID
	delegate, err := s.repo.Person.GetByID(ctx, delegateID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	leaves, err := s.repo.LeaveRequest.ListOverlapping(ctx, []string{delegateID}, start, end, overlappingLeaveStatuses)
	if err != nil {
		s.logger.Error("查询代理人请假失败", zap.String("delegate_id", delegateID), zap.Error(err))
		return nil, err
	}

	var conflict *dto.LeaveConflict
	switch {
	// 请假重叠优先判定，互为代理即便代理人已停用也按互代冲突上报
	case delegate != nil && len(leaves) > 0:
		leave := leaves[0]
		people := []dto.AffectedPerson{
			affected(person, &start, &end),
			affected(delegate, &leave.StartDate, &leave.EndDate),
		}
		mutual, err := s.delegatesBackTo(ctx, delegate, personID)
		if err != nil {
			return nil, err
		}
		if mutual {
			conflict = &dto.LeaveConflict{
				Type:           dto.ConflictMutualDelegation,
				Severity:       dto.SeverityHigh,
				Message:        fmt.Sprintf("%s 与 %s 互为代理人且请假时间重叠", person.Name, delegate.Name),
				AffectedPeople: people,
			}
		} else {
			conflict = &dto.LeaveConflict{
				Type:           dto.ConflictChainUnavailable,
				Severity:       dto.SeverityMedium,
				Message:        fmt.Sprintf("主代理人 %s 同期请假", delegate.Name),
				AffectedPeople: people,
			}
		}
	case delegate == nil || !delegate.IsActive:
		conflict = &dto.LeaveConflict{
			Type:           dto.ConflictChainUnavailable,
			Severity:       dto.SeverityMedium,
			Message:        "主代理人已停用或不存在",
			AffectedPeople: []dto.AffectedPerson{affected(person, &start, &end)},
		}
	}

	if conflict == nil {
		result.CanProceedWithChaining = true
		return result, nil
	}

	conflict.Suggestions = baseSuggestions()
	candidate, err := s.FindAvailableChainDelegate(ctx, orgID, person.DepartmentID, start, end, []string{personID, delegateID})
	if err != nil {
		// 候选人搜索失败不影响冲突本身的结论
		s.logger.Warn("查找链式代理候选人失败", zap.String("person_id", personID), zap.Error(err))
	}
	if candidate != nil {
		id := candidate.PersonID
		result.ChainDelegateID = &id
		conflict.Suggestions = append(conflict.Suggestions, dto.SuggestedResolution{
			Type:        dto.SuggestionChainDelegate,
			Description: fmt.Sprintf("链式代理至下一位可用人员 %s", candidate.Name),
			DelegateID:  &id,
		})
	}

	result.HasConflicts = true
	result.Conflicts = append(result.Conflicts, *conflict)
	result.CanProceedWithChaining = result.ChainDelegateID != nil
	return result, nil
}

// delegatesBackTo 代理人的主代理人是否为 personID
func (s *conflictService) delegatesBackTo(ctx context.Context, delegate *model.Person, personID string) (bool, error) {
	target, err := s.primaryDelegateOf(ctx, delegate)
	if err != nil {
		return false, err
	}
	return target == personID, nil
}

// primaryDelegateOf 档案优先，其次人员表字段
func (s *conflictService) primaryDelegateOf(ctx context.Context, p *model.Person) (string, error) {
	profile, err := s.repo.Profile.GetByPerson(ctx, p.PersonID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if profile != nil && profile.PrimaryDelegateID != nil {
		return *profile.PrimaryDelegateID, nil
	}
	if p.PrimaryDelegateID != nil {
		return *p.PrimaryDelegateID, nil
	}
	return "", nil
}

func baseSuggestions() []dto.SuggestedResolution {
	return []dto.SuggestedResolution{
		{Type: dto.SuggestionAdjustDates, Description: "调整请假日期，避开代理人不在岗的时段"},
		{Type: dto.SuggestionAssignAlternative, Description: "手动指定其他代理人"},
	}
}

func affected(p *model.Person, start, end *time.Time) dto.AffectedPerson {
	return dto.AffectedPerson{PersonID: p.PersonID, Name: p.Name, LeaveStart: start, LeaveEnd: end}
}

func (s *conflictService) getPerson(ctx context.Context, personID string) (*model.Person, error) {
	person, err := s.repo.Person.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("person_id", personID), zap.Error(err))
		return nil, err
	}
	return person, nil
}

// ────────────────────── FindAvailableChainDelegate ──────────────────────

func (s *conflictService) FindAvailableChainDelegate(ctx context.Context, orgID, departmentID string, start, end time.Time, exclude []string) (*model.Person, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	deptPeople, err := s.repo.Person.ListByDepartment(ctx, orgID, departmentID)
	if err != nil {
		return nil, err
	}
	if p, err := s.firstFree(ctx, deptPeople, excluded, start, end); err != nil || p != nil {
		return p, err
	}

	leads, err := s.repo.Person.ListByRoles(ctx, orgID, model.LeadOrAboveRoles())
	if err != nil {
		return nil, err
	}
	return s.firstFree(ctx, leads, excluded, start, end)
}

// firstFree 在岗、非合同工、区间内无请假的第一人（职级高者优先）
func (s *conflictService) firstFree(ctx context.Context, people []model.Person, excluded map[string]bool, start, end time.Time) (*model.Person, error) {
	candidates := make([]model.Person, 0, len(people))
	for i := range people {
		p := people[i]
		if excluded[p.PersonID] || !p.IsActive || p.IsContractor() {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for i := range candidates {
		ids = append(ids, candidates[i].PersonID)
	}
	leaves, err := s.repo.LeaveRequest.ListOverlapping(ctx, ids, start, end, overlappingLeaveStatuses)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		busy[l.PersonID] = true
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := model.RoleRank(candidates[i].Role), model.RoleRank(candidates[j].Role)
		if ri != rj {
			return ri > rj
		}
		return candidates[i].Name < candidates[j].Name
	})
	for i := range candidates {
		if !busy[candidates[i].PersonID] {
			p := candidates[i]
			return &p, nil
		}
	}
	return nil, nil
}

// ═══════════════════════════════════════════════════════════
// CheckBatchLeaveConflicts 批量审批交叉检查
// ═══════════════════════════════════════════════════════════

type parsedSubmission struct {
	dto.LeaveSubmission
	start, end time.Time
	person     *model.Person
	delegateID string
}

func (s *conflictService) CheckBatchLeaveConflicts(ctx context.Context, orgID string, req *dto.BatchLeaveConflictsRequest) (*dto.BatchLeaveConflictsResponse, error) {
	resp := &dto.BatchLeaveConflictsResponse{Items: make([]dto.BatchConflictItem, len(req.Submissions))}

	// 1. 逐条解析，单条失败只记录在该条上
	parsed := make([]*parsedSubmission, len(req.Submissions))
	for i, sub := range req.Submissions {
		resp.Items[i] = dto.BatchConflictItem{
			LeaveRequestID: sub.LeaveRequestID,
			PersonID:       sub.PersonID,
			Conflicts:      []dto.LeaveConflict{},
		}
		p, err := s.parseSubmission(ctx, sub)
		if err != nil {
			resp.Items[i].Error = err.Error()
			resp.FailedCount++
			s.logger.Warn("批量冲突检查：跳过无法解析的请假",
				zap.String("person_id", sub.PersonID), zap.Error(err))
			continue
		}
		parsed[i] = p
	}

	// 2. 按人员索引本批次请假
	byPerson := make(map[string][]*parsedSubmission)
	for _, p := range parsed {
		if p != nil {
			byPerson[p.PersonID] = append(byPerson[p.PersonID], p)
		}
	}

	// 3. 交叉检查
	for i, p := range parsed {
		if p == nil {
			continue
		}
		item := &resp.Items[i]

		if p.delegateID == "" {
			item.Conflicts = append(item.Conflicts, dto.LeaveConflict{
				Type:           dto.ConflictCoverageGap,
				Severity:       dto.SeverityHigh,
				Message:        fmt.Sprintf("%s 未配置主代理人", p.person.Name),
				AffectedPeople: []dto.AffectedPerson{affected(p.person, &p.start, &p.end)},
				Suggestions:    baseSuggestions(),
			})
		} else {
			for _, other := range byPerson[p.delegateID] {
				if !model.RangesOverlap(p.start, p.end, other.start, other.end) {
					continue
				}
				c := dto.LeaveConflict{
					Type:     dto.ConflictChainUnavailable,
					Severity: dto.SeverityMedium,
					Message:  fmt.Sprintf("主代理人 %s 在本批次中同期请假", other.person.Name),
					AffectedPeople: []dto.AffectedPerson{
						affected(p.person, &p.start, &p.end),
						affected(other.person, &other.start, &other.end),
					},
					Suggestions: baseSuggestions(),
				}
				if other.delegateID == p.PersonID {
					c.Type = dto.ConflictMutualDelegation
					c.Severity = dto.SeverityHigh
					c.Message = fmt.Sprintf("%s 与 %s 互为代理人且在本批次中请假重叠", p.person.Name, other.person.Name)
				}
				item.Conflicts = append(item.Conflicts, c)
				break
			}
		}

		item.HasConflicts = len(item.Conflicts) > 0
		if item.HasConflicts {
			resp.ConflictCount++
		}
	}

	return resp, nil
}

func (s *conflictService) parseSubmission(ctx context.Context, sub dto.LeaveSubmission) (*parsedSubmission, error) {
	start, end, err := parseDateRange(sub.StartDate, sub.EndDate)
	if err != nil {
		return nil, err
	}
	person, err := s.getPerson(ctx, sub.PersonID)
	if err != nil {
		return nil, err
	}
	delegateID, err := s.profileDelegateOf(ctx, sub.PersonID)
	if err != nil {
		return nil, err
	}
	return &parsedSubmission{LeaveSubmission: sub, start: start, end: end, person: person, delegateID: delegateID}, nil
}

// profileDelegateOf 档案中的主代理人，无档案返回空串
func (s *conflictService) profileDelegateOf(ctx context.Context, personID string) (string, error) {
	profile, err := s.repo.Profile.GetByPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if profile.PrimaryDelegateID == nil {
		return "", nil
	}
	return *profile.PrimaryDelegateID, nil
}

// ═══════════════════════════════════════════════════════════
// GetUpcomingConflicts 前瞻扫描
// ═══════════════════════════════════════════════════════════

func (s *conflictService) GetUpcomingConflicts(ctx context.Context, orgID string, days int) ([]dto.UpcomingConflict, error) {
	if days <= 0 {
		days = s.cfg.UpcomingConflictDays
	}
	from := model.DateOf(s.clock.Now())
	to := from.AddDate(0, 0, days)

	leaves, err := s.repo.LeaveRequest.ListByOrgInRange(ctx, orgID, from, to, []string{model.LeaveStatusApproved})
	if err != nil {
		s.logger.Error("查询组织请假失败", zap.String("org_id", orgID), zap.Error(err))
		return nil, err
	}
	if len(leaves) < 2 {
		return []dto.UpcomingConflict{}, nil
	}

	people, err := s.peopleOf(ctx, leaves)
	if err != nil {
		return nil, err
	}

	// 按部门分组
	byDept := make(map[string][]model.LeaveRequest)
	var deptIDs []string
	for _, l := range leaves {
		p, ok := people[l.PersonID]
		if !ok {
			s.logger.Warn("前瞻扫描：请假人员不存在，跳过", zap.String("person_id", l.PersonID))
			continue
		}
		if _, seen := byDept[p.DepartmentID]; !seen {
			deptIDs = append(deptIDs, p.DepartmentID)
		}
		byDept[p.DepartmentID] = append(byDept[p.DepartmentID], l)
	}
	sort.Strings(deptIDs)

	deptNames := make(map[string]string, len(deptIDs))
	if depts, err := s.repo.Department.ListByIDs(ctx, deptIDs); err != nil {
		s.logger.Warn("查询部门名称失败", zap.Error(err))
	} else {
		for _, d := range depts {
			deptNames[d.DepartmentID] = d.Name
		}
	}

	alerts := []dto.UpcomingConflict{}
	for _, deptID := range deptIDs {
		group := byDept[deptID]
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].StartDate.Equal(group[j].StartDate) {
				return group[i].StartDate.Before(group[j].StartDate)
			}
			return group[i].PersonID < group[j].PersonID
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.PersonID == b.PersonID || !model.RangesOverlap(a.StartDate, a.EndDate, b.StartDate, b.EndDate) {
					continue
				}
				alerts = append(alerts, s.upcomingAlert(deptID, deptNames[deptID], people[a.PersonID], people[b.PersonID], a, b))
			}
		}
	}
	return alerts, nil
}

func (s *conflictService) peopleOf(ctx context.Context, leaves []model.LeaveRequest) (map[string]*model.Person, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range leaves {
		if !seen[l.PersonID] {
			seen[l.PersonID] = true
			ids = append(ids, l.PersonID)
		}
	}
	list, err := s.repo.Person.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("批量查询人员失败", zap.Error(err))
		return nil, err
	}
	out := make(map[string]*model.Person, len(list))
	for i := range list {
		out[list[i].PersonID] = &list[i]
	}
	return out, nil
}

func (s *conflictService) upcomingAlert(deptID, deptName string, pa, pb *model.Person, a, b model.LeaveRequest) dto.UpcomingConflict {
	overlapStart := model.DateOf(a.StartDate)
	if b.StartDate.After(overlapStart) {
		overlapStart = model.DateOf(b.StartDate)
	}
	overlapEnd := model.DateOf(a.EndDate)
	if b.EndDate.Before(overlapEnd) {
		overlapEnd = model.DateOf(b.EndDate)
	}

	severity := dto.SeverityMedium
	if isPrimaryDelegate(pa, pb.PersonID) || isPrimaryDelegate(pb, pa.PersonID) {
		severity = dto.SeverityHigh
	}

	return dto.UpcomingConflict{
		DepartmentID:   deptID,
		DepartmentName: deptName,
		Severity:       severity,
		OverlapStart:   overlapStart,
		OverlapEnd:     overlapEnd,
		First:          affected(pa, &a.StartDate, &a.EndDate),
		Second:         affected(pb, &b.StartDate, &b.EndDate),
		Message: fmt.Sprintf("%s 与 %s 在 %s 至 %s 同时请假", pa.Name, pb.Name,
			overlapStart.Format("2006-01-02"), overlapEnd.Format("2006-01-02")),
	}
}

func isPrimaryDelegate(p *model.Person, delegateID string) bool {
	return p.PrimaryDelegateID != nil && *p.PrimaryDelegateID == delegateID
}

// ── 日期解析 ──

const dateLayout = "2006-01-02"

// parseDateRange 解析 "2006-01-02" 格式的闭区间
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 开始日期格式错误", ErrInvalidDateRange)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 结束日期格式错误", ErrInvalidDateRange)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 结束日期早于开始日期", ErrInvalidDateRange)
	}
	return start, end, nil
}

// [自证通过] internal/service/conflict_service.go
