package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"erp-doa/backend/internal/model"
	"erp-doa/backend/internal/repository"
	pkgerrors "erp-doa/backend/pkg/errors"
)

// ── 内存存储：所有 mock repo 共享，保证跨 repo 的数据一致 ──

type memStore struct {
	mu sync.Mutex

	people        map[string]*model.Person
	departments   map[string]*model.Department
	leaves        []*model.LeaveRequest
	profiles      map[string]*model.DelegationProfile // key: person_id
	delegations   map[string]*model.ActiveDelegation
	activities    []*model.DelegationActivity
	briefs        map[string]*model.Brief
	reminders     map[string]*model.DelegationReminder
	notifications []*model.Notification

	nextID  int
	nextSeq int64

	// 故障注入
	failOpenBriefsFor map[string]bool // ListOpenByOwner 对这些 owner 返回错误
}

func newMemStore() *memStore {
	return &memStore{
		people:            make(map[string]*model.Person),
		departments:       make(map[string]*model.Department),
		profiles:          make(map[string]*model.DelegationProfile),
		delegations:       make(map[string]*model.ActiveDelegation),
		briefs:            make(map[string]*model.Brief),
		reminders:         make(map[string]*model.DelegationReminder),
		failOpenBriefsFor: make(map[string]bool),
	}
}

func (st *memStore) newID(prefix string) string {
	st.nextID++
	return fmt.Sprintf("%s-%d", prefix, st.nextID)
}

func newTestRepository(st *memStore) *repository.Repository {
	return &repository.Repository{
		Person:       &mockPersonRepo{st},
		Department:   &mockDepartmentRepo{st},
		LeaveRequest: &mockLeaveRequestRepo{st},
		Profile:      &mockProfileRepo{st},
		Delegation:   &mockDelegationRepo{st},
		Activity:     &mockActivityRepo{st},
		Brief:        &mockBriefRepo{st},
		Reminder:     &mockReminderRepo{st},
		Notification: &mockNotificationRepo{st},
	}
}

// ── 测试数据构造 ──

const testOrgID = "org-1"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func (st *memStore) addDepartment(id, name string) *model.Department {
	d := &model.Department{DepartmentID: id, OrgID: testOrgID, Name: name, IsActive: true}
	st.departments[id] = d
	return d
}

// addPerson 默认：在岗、全职、member
func (st *memStore) addPerson(id, deptID, role string) *model.Person {
	p := &model.Person{
		PersonID:       id,
		OrgID:          testOrgID,
		Name:           id,
		Email:          id + "@example.com",
		Role:           role,
		DepartmentID:   deptID,
		EmploymentType: model.EmploymentFullTime,
		IsActive:       true,
	}
	st.people[id] = p
	return p
}

func (st *memStore) addLeave(personID, start, end, status string) *model.LeaveRequest {
	l := &model.LeaveRequest{
		LeaveRequestID: st.newID("leave"),
		OrgID:          testOrgID,
		PersonID:       personID,
		StartDate:      day(start),
		EndDate:        day(end),
		Status:         status,
	}
	st.leaves = append(st.leaves, l)
	return l
}

// setProfile 设置主代理人，delegateID 为空表示未配置
func (st *memStore) setProfile(personID, delegateID string) *model.DelegationProfile {
	p := &model.DelegationProfile{
		ProfileID: st.newID("profile"),
		OrgID:     testOrgID,
		PersonID:  personID,
		Scope:     model.DefaultScope(),
	}
	if delegateID != "" {
		p.PrimaryDelegateID = strPtr(delegateID)
		if person, ok := st.people[personID]; ok {
			person.PrimaryDelegateID = strPtr(delegateID)
		}
	}
	st.profiles[personID] = p
	return p
}

func (st *memStore) addBrief(id, ownerID, taskType string) *model.Brief {
	b := &model.Brief{
		BriefID:  id,
		OrgID:    testOrgID,
		Title:    "简报" + id,
		OwnerID:  ownerID,
		Status:   model.BriefStatusOpen,
		TaskType: taskType,
	}
	st.briefs[id] = b
	return b
}

func (st *memStore) addDelegation(delegatorID, delegateID, start, end, status string) *model.ActiveDelegation {
	d := &model.ActiveDelegation{
		DelegationID:  st.newID("del"),
		OrgID:         testOrgID,
		DelegatorID:   delegatorID,
		DelegateID:    delegateID,
		StartDate:     day(start),
		EndDate:       day(end),
		ScopeSnapshot: model.DefaultScope(),
		Status:        status,
	}
	st.delegations[d.DelegationID] = d
	return d
}

func (st *memStore) activitiesOf(delegationID, activityType string) []model.DelegationActivity {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []model.DelegationActivity
	for _, a := range st.activities {
		if a.DelegationID == delegationID && (activityType == "" || a.ActivityType == activityType) {
			out = append(out, *a)
		}
	}
	return out
}

// ── Mock PersonRepository ──

type mockPersonRepo struct{ st *memStore }

func (m *mockPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if p, ok := m.st.people[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) ListByIDs(_ context.Context, ids []string) ([]model.Person, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Person
	for _, id := range ids {
		if p, ok := m.st.people[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) ListByDepartment(_ context.Context, orgID, departmentID string) ([]model.Person, error) {
	return m.filter(func(p *model.Person) bool {
		return p.OrgID == orgID && p.DepartmentID == departmentID
	}), nil
}

func (m *mockPersonRepo) ListByRoles(_ context.Context, orgID string, roles []string) ([]model.Person, error) {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return m.filter(func(p *model.Person) bool {
		return p.OrgID == orgID && set[p.Role]
	}), nil
}

func (m *mockPersonRepo) filter(keep func(p *model.Person) bool) []model.Person {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Person
	for _, p := range m.st.people {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockPersonRepo) UpdatePrimaryDelegate(_ context.Context, personID string, delegateID *string, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	p, ok := m.st.people[personID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PrimaryDelegateID = delegateID
	return nil
}

// ── Mock DepartmentRepository ──

type mockDepartmentRepo struct{ st *memStore }

func (m *mockDepartmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if d, ok := m.st.departments[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepartmentRepo) ListByIDs(_ context.Context, ids []string) ([]model.Department, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Department
	for _, id := range ids {
		if d, ok := m.st.departments[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

// ── Mock LeaveRequestRepository ──

type mockLeaveRequestRepo struct{ st *memStore }

func (m *mockLeaveRequestRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, l := range m.st.leaves {
		if l.LeaveRequestID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRequestRepo) FindApprovedCovering(_ context.Context, personID string, asOf time.Time) (*model.LeaveRequest, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, l := range m.st.leaves {
		if l.PersonID == personID && l.Status == model.LeaveStatusApproved && l.Covers(asOf) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRequestRepo) ListOverlapping(_ context.Context, personIDs []string, start, end time.Time, statuses []string) ([]model.LeaveRequest, error) {
	ids := toSet(personIDs)
	sts := toSet(statuses)
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.LeaveRequest
	for _, l := range m.st.leaves {
		if ids[l.PersonID] && sts[l.Status] && model.RangesOverlap(l.StartDate, l.EndDate, start, end) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLeaveRequestRepo) ListByOrgInRange(_ context.Context, orgID string, start, end time.Time, statuses []string) ([]model.LeaveRequest, error) {
	sts := toSet(statuses)
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.LeaveRequest
	for _, l := range m.st.leaves {
		if l.OrgID == orgID && sts[l.Status] && model.RangesOverlap(l.StartDate, l.EndDate, start, end) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func toSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

// ── Mock DelegationProfileRepository ──

type mockProfileRepo struct{ st *memStore }

func (m *mockProfileRepo) GetByPerson(_ context.Context, personID string) (*model.DelegationProfile, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if p, ok := m.st.profiles[personID]; ok {
		cp := *p
		cp.Scope = p.Scope.Clone()
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) Upsert(_ context.Context, profile *model.DelegationProfile) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if profile.ProfileID == "" {
		profile.ProfileID = m.st.newID("profile")
	}
	cp := *profile
	cp.Scope = profile.Scope.Clone()
	m.st.profiles[profile.PersonID] = &cp
	return nil
}

func (m *mockProfileRepo) Delete(_ context.Context, personID, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.profiles[personID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.profiles, personID)
	return nil
}

func (m *mockProfileRepo) ListByDelegate(_ context.Context, delegateID string) ([]model.DelegationProfile, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.DelegationProfile
	for _, p := range m.st.profiles {
		if p.PrimaryDelegateID != nil && *p.PrimaryDelegateID == delegateID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// ── Mock DelegationRepository ──

type mockDelegationRepo struct{ st *memStore }

func (m *mockDelegationRepo) Create(_ context.Context, d *model.ActiveDelegation) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, other := range m.st.delegations {
		if other.DelegatorID == d.DelegatorID && !other.IsTerminal() &&
			model.RangesOverlap(other.StartDate, other.EndDate, d.StartDate, d.EndDate) {
			return pkgerrors.ErrOverlapConstraint
		}
	}
	if d.DelegationID == "" {
		d.DelegationID = m.st.newID("del")
	}
	cp := *d
	m.st.delegations[d.DelegationID] = &cp
	return nil
}

func (m *mockDelegationRepo) GetByID(_ context.Context, id string) (*model.ActiveDelegation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	d, ok := m.st.delegations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withPeople(d), nil
}

// withPeople 模拟 Preload，调用方需持锁
func (m *mockDelegationRepo) withPeople(d *model.ActiveDelegation) *model.ActiveDelegation {
	cp := *d
	if p, ok := m.st.people[d.DelegatorID]; ok {
		pc := *p
		cp.Delegator = &pc
	}
	if p, ok := m.st.people[d.DelegateID]; ok {
		pc := *p
		cp.Delegate = &pc
	}
	return &cp
}

func (m *mockDelegationRepo) FindActiveForDelegator(_ context.Context, delegatorID string, asOf time.Time) (*model.ActiveDelegation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, d := range m.st.delegations {
		if d.DelegatorID == delegatorID && d.Status == model.DelegationActive && d.Covers(asOf) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDelegationRepo) ExistsOverlapping(_ context.Context, delegatorID string, start, end time.Time) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, d := range m.st.delegations {
		if d.DelegatorID == delegatorID && !d.IsTerminal() && model.RangesOverlap(d.StartDate, d.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDelegationRepo) ListDueForActivation(_ context.Context, asOf time.Time) ([]model.ActiveDelegation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	today := model.DateOf(asOf)
	var out []model.ActiveDelegation
	for _, d := range m.st.delegations {
		pendingDue := d.Status == model.DelegationPending && !d.StartDate.After(today)
		unfinished := d.Status == model.DelegationActive && d.TasksReassignedAt == nil
		if pendingDue || unfinished {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DelegationID < out[j].DelegationID })
	return out, nil
}

func (m *mockDelegationRepo) Transition(_ context.Context, id string, from []string, to string, fields map[string]interface{}) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	d, ok := m.st.delegations[id]
	if !ok || !toSet(from)[d.Status] {
		return false, nil
	}
	d.Status = to
	applyDelegationFields(d, fields)
	return true, nil
}

func (m *mockDelegationRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	d, ok := m.st.delegations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyDelegationFields(d, fields)
	return nil
}

func applyDelegationFields(d *model.ActiveDelegation, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "activated_at":
			t := v.(time.Time)
			d.ActivatedAt = &t
		case "tasks_reassigned_at":
			t := v.(time.Time)
			d.TasksReassignedAt = &t
		case "cancelled_at":
			t := v.(time.Time)
			d.CancelledAt = &t
		case "cancelled_by":
			s := v.(string)
			d.CancelledBy = &s
		case "cancel_reason":
			d.CancelReason = v.(string)
		case "completed_at":
			t := v.(time.Time)
			d.CompletedAt = &t
		case "handoff_notes":
			d.HandoffNotes = v.(string)
		case "handoff_started":
			d.HandoffStarted = v.(bool)
		case "handoff_started_at":
			t := v.(time.Time)
			d.HandoffStartedAt = &t
		case "handoff_briefing":
			b := v.(model.HandoffBriefing)
			d.HandoffBriefing = &b
		}
	}
}

func (m *mockDelegationRepo) ListByPerson(_ context.Context, personID, direction string, statuses []string) ([]model.ActiveDelegation, error) {
	sts := toSet(statuses)
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.ActiveDelegation
	for _, d := range m.st.delegations {
		var match bool
		switch direction {
		case repository.DirectionOutgoing:
			match = d.DelegatorID == personID
		case repository.DirectionIncoming:
			match = d.DelegateID == personID
		default:
			match = d.DelegatorID == personID || d.DelegateID == personID
		}
		if match && (len(statuses) == 0 || sts[d.Status]) {
			out = append(out, *m.withPeople(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *mockDelegationRepo) ListActiveEndingBetween(_ context.Context, orgID string, from, to time.Time) ([]model.ActiveDelegation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.ActiveDelegation
	for _, d := range m.st.delegations {
		if d.OrgID == orgID && d.Status == model.DelegationActive &&
			!d.EndDate.Before(model.DateOf(from)) && !d.EndDate.After(model.DateOf(to)) {
			out = append(out, *m.withPeople(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

// ── Mock DelegationActivityRepository ──

type mockActivityRepo struct{ st *memStore }

func (m *mockActivityRepo) Create(_ context.Context, a *model.DelegationActivity) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.nextSeq++
	a.ActivityID = m.st.newID("act")
	a.Seq = m.st.nextSeq
	cp := *a
	m.st.activities = append(m.st.activities, &cp)
	return nil
}

func (m *mockActivityRepo) ListByDelegation(_ context.Context, delegationID string) ([]model.DelegationActivity, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.DelegationActivity
	for _, a := range m.st.activities {
		if a.DelegationID == delegationID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *mockActivityRepo) CountByType(ctx context.Context, delegationID string) (map[string]int64, error) {
	list, _ := m.ListByDelegation(ctx, delegationID)
	out := make(map[string]int64)
	for _, a := range list {
		out[a.ActivityType]++
	}
	return out, nil
}

// ── Mock BriefRepository ──

type mockBriefRepo struct{ st *memStore }

func (m *mockBriefRepo) Create(_ context.Context, b *model.Brief) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if b.BriefID == "" {
		b.BriefID = m.st.newID("brief")
	}
	cp := *b
	m.st.briefs[b.BriefID] = &cp
	return nil
}

func (m *mockBriefRepo) GetByID(_ context.Context, id string) (*model.Brief, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if b, ok := m.st.briefs[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBriefRepo) ListOpenByOwner(_ context.Context, ownerID string) ([]model.Brief, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.failOpenBriefsFor[ownerID] {
		return nil, errors.New("模拟数据库故障")
	}
	var out []model.Brief
	for _, b := range m.st.briefs {
		if b.OwnerID == ownerID && b.BackupOwnerID == nil && b.IsOpen() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BriefID < out[j].BriefID })
	return out, nil
}

func (m *mockBriefRepo) ListByDelegation(_ context.Context, delegationID string) ([]model.Brief, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Brief
	for _, b := range m.st.briefs {
		if b.DelegationID != nil && *b.DelegationID == delegationID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BriefID < out[j].BriefID })
	return out, nil
}

func (m *mockBriefRepo) Reassign(_ context.Context, briefID, fromOwnerID, toOwnerID, delegationID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	b, ok := m.st.briefs[briefID]
	if !ok || b.OwnerID != fromOwnerID || b.BackupOwnerID != nil {
		return false, nil
	}
	b.OwnerID = toOwnerID
	b.BackupOwnerID = strPtr(fromOwnerID)
	b.DelegationID = strPtr(delegationID)
	return true, nil
}

func (m *mockBriefRepo) Restore(_ context.Context, briefID, delegationID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	b, ok := m.st.briefs[briefID]
	if !ok || b.DelegationID == nil || *b.DelegationID != delegationID || b.BackupOwnerID == nil {
		return false, nil
	}
	b.OwnerID = *b.BackupOwnerID
	b.BackupOwnerID = nil
	b.DelegationID = nil
	return true, nil
}

func (m *mockBriefRepo) UpdateStatus(_ context.Context, briefID, status, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	b, ok := m.st.briefs[briefID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	return nil
}

// ── Mock ReminderRepository ──

type mockReminderRepo struct{ st *memStore }

func (m *mockReminderRepo) BatchCreate(_ context.Context, reminders []model.DelegationReminder) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, r := range reminders {
		for _, existing := range m.st.reminders {
			if existing.DelegationID == r.DelegationID && existing.RecipientID == r.RecipientID &&
				existing.Kind == r.Kind && existing.RemindAt.Equal(r.RemindAt) {
				return pkgerrors.ErrDuplicateRecord
			}
		}
	}
	for i := range reminders {
		r := reminders[i]
		r.ReminderID = m.st.newID("rem")
		m.st.reminders[r.ReminderID] = &r
	}
	return nil
}

func (m *mockReminderRepo) ListDue(_ context.Context, asOf time.Time, limit int) ([]model.DelegationReminder, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.DelegationReminder
	for _, r := range m.st.reminders {
		if r.SentAt == nil && !r.RemindAt.After(asOf) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderID < out[j].ReminderID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReminderRepo) MarkSent(_ context.Context, id string, at time.Time) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	r, ok := m.st.reminders[id]
	if !ok || r.SentAt != nil {
		return false, nil
	}
	r.SentAt = &at
	return true, nil
}

func (m *mockReminderRepo) DeleteUnsentByDelegation(_ context.Context, delegationID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, r := range m.st.reminders {
		if r.DelegationID == delegationID && r.SentAt == nil {
			delete(m.st.reminders, id)
		}
	}
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ st *memStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	n.NotificationID = m.st.newID("notice")
	cp := *n
	m.st.notifications = append(m.st.notifications, &cp)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.Notification
	for _, n := range m.st.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return []model.Notification{}, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

// ── 其他测试替身 ──

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type recordingSink struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (s *recordingSink) Send(_ context.Context, e NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) byType(t string) []NotificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NotificationEvent
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
