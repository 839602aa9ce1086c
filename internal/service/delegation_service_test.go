package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"erp-doa/backend/config"
	"erp-doa/backend/internal/dto"
	"erp-doa/backend/internal/model"
	"erp-doa/backend/internal/repository"
)

// ── 测试辅助 ──

type testEngine struct {
	st    *memStore
	svc   *Service
	sink  *recordingSink
	clock *fixedClock
}

func testConfig() *config.Config {
	return &config.Config{
		Delegation: config.DelegationConfig{
			ActivationConcurrency: 4,
			LockTTL:               30 * time.Second,
			UpcomingConflictDays:  30,
			HandoffWindowDays:     2,
			UpcomingReturnDays:    7,
			ReminderOffsetsDays:   []int{3, 1},
			ActionBaseURL:         "/delegations",
		},
	}
}

// setupTestEngine 默认人员：alice（委托人）、bob（代理人），同属 dept-1
func setupTestEngine() *testEngine {
	return setupTestEngineWithLocker(NewLocalLocker())
}

func setupTestEngineWithLocker(locker Locker) *testEngine {
	st := newMemStore()
	st.addDepartment("dept-1", "审计一部")
	st.addPerson("alice", "dept-1", model.RoleSenior)
	st.addPerson("bob", "dept-1", model.RoleSenior)
	st.setProfile("alice", "bob")

	sink := &recordingSink{}
	clock := &fixedClock{now: testNow}
	svc := NewService(testConfig(), newTestRepository(st), Deps{
		Locker: locker,
		Sink:   sink,
		Clock:  clock,
	}, zap.NewNop())
	return &testEngine{st: st, svc: svc, sink: sink, clock: clock}
}

func (e *testEngine) start(t *testing.T, startDate, endDate string) *model.ActiveDelegation {
	t.Helper()
	d, err := e.svc.Delegation.StartDelegation(context.Background(), testOrgID, &dto.StartDelegationRequest{
		DelegatorID: "alice",
		StartDate:   startDate,
		EndDate:     endDate,
	}, "alice")
	if err != nil {
		t.Fatalf("StartDelegation 应成功: %v", err)
	}
	return d
}

func (e *testEngine) owner(briefID string) string {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.st.briefs[briefID].OwnerID
}

func (e *testEngine) stored(id string) model.ActiveDelegation {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return *e.st.delegations[id]
}

// ── StartDelegation 测试 ──

func TestDelegationService_Start_FutureIsPending(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")

	d := e.start(t, "2025-03-10", "2025-03-14")
	if d.Status != model.DelegationPending {
		t.Errorf("期望 PENDING，实际=%s", d.Status)
	}
	if d.DelegateID != "bob" {
		t.Errorf("期望从档案取代理人 bob，实际=%s", d.DelegateID)
	}
	if e.owner("b1") != "alice" {
		t.Error("PENDING 阶段不应转交任务")
	}
	if n := len(e.st.reminders); n != 4 {
		t.Errorf("期望 2 个提前量 × 2 名接收人 = 4 条提醒，实际=%d", n)
	}
	if got := e.sink.byType(NotifyDelegationScheduled); len(got) != 1 || got[0].RecipientID != "bob" {
		t.Errorf("期望通知代理人 bob 已排期，实际=%+v", got)
	}
}

func TestDelegationService_Start_TodayActivatesAndReassigns(t *testing.T) {
	e := setupTestEngine()
	scope := &e.st.profiles["alice"].Scope
	scope.TaskTypes = model.ScopeOf("review")
	scope.ValueThreshold = floatPtr(10000)

	e.st.addBrief("b-in", "alice", "review").EstimatedValue = floatPtr(5000)
	e.st.addBrief("b-high", "alice", "review").EstimatedValue = floatPtr(20000)
	e.st.addBrief("b-type", "alice", "filing")
	e.st.addBrief("b-done", "alice", "review").Status = model.BriefStatusCompleted

	d := e.start(t, "2025-03-05", "2025-03-10")
	if d.Status != model.DelegationActive || d.ActivatedAt == nil {
		t.Fatalf("期望立即 ACTIVE，实际=%s", d.Status)
	}
	if e.stored(d.DelegationID).TasksReassignedAt == nil {
		t.Error("期望记录 tasks_reassigned_at")
	}

	if e.owner("b-in") != "bob" {
		t.Error("范围内任务应转交 bob")
	}
	b := e.st.briefs["b-in"]
	if b.BackupOwnerID == nil || *b.BackupOwnerID != "alice" || b.DelegationID == nil || *b.DelegationID != d.DelegationID {
		t.Error("转交后应记录原负责人与代理 ID")
	}
	for _, id := range []string{"b-high", "b-type", "b-done"} {
		if e.owner(id) != "alice" {
			t.Errorf("%s 不应转交", id)
		}
	}

	if n := len(e.st.activitiesOf(d.DelegationID, model.ActivityTaskAssigned)); n != 1 {
		t.Errorf("期望 1 条 TASK_ASSIGNED，实际=%d", n)
	}
	escalated := e.st.activitiesOf(d.DelegationID, model.ActivityTaskEscalated)
	if len(escalated) != 1 || *escalated[0].EntityID != "b-high" {
		t.Errorf("期望 b-high 记录 TASK_ESCALATED，实际=%+v", escalated)
	}
	if n := len(e.sink.byType(NotifyDelegationActivated)); n != 2 {
		t.Errorf("期望通知双方代理生效，实际=%d", n)
	}
}

func TestDelegationService_Start_ExplicitDelegateAndScope(t *testing.T) {
	e := setupTestEngine()
	e.st.addPerson("carol", "dept-1", model.RoleMember)
	e.st.addPerson("dave", "dept-1", model.RoleMember)

	scope := model.DefaultScope()
	d, err := e.svc.Delegation.StartDelegation(context.Background(), testOrgID, &dto.StartDelegationRequest{
		DelegatorID: "carol",
		DelegateID:  strPtr("dave"),
		StartDate:   "2025-03-20",
		EndDate:     "2025-03-21",
		Scope:       &scope,
	}, "carol")
	if err != nil {
		t.Fatalf("无档案但显式指定代理人与范围时应成功: %v", err)
	}
	if d.DelegateID != "dave" {
		t.Errorf("期望 DelegateID=dave，实际=%s", d.DelegateID)
	}
}

func TestDelegationService_Start_Errors(t *testing.T) {
	e := setupTestEngine()
	e.st.addPerson("carol", "dept-1", model.RoleMember)
	e.st.addPerson("dave", "dept-1", model.RoleMember)

	tests := []struct {
		name string
		req  dto.StartDelegationRequest
		want error
	}{
		{"无档案无代理人", dto.StartDelegationRequest{DelegatorID: "carol", StartDate: "2025-03-20", EndDate: "2025-03-21"}, ErrNoDelegateConfigured},
		{"无档案无范围", dto.StartDelegationRequest{DelegatorID: "carol", DelegateID: strPtr("dave"), StartDate: "2025-03-20", EndDate: "2025-03-21"}, ErrProfileNotFound},
		{"委托本人", dto.StartDelegationRequest{DelegatorID: "alice", DelegateID: strPtr("alice"), StartDate: "2025-03-20", EndDate: "2025-03-21"}, ErrSelfDelegation},
		{"代理人不存在", dto.StartDelegationRequest{DelegatorID: "alice", DelegateID: strPtr("ghost"), StartDate: "2025-03-20", EndDate: "2025-03-21"}, ErrPersonNotFound},
		{"结束早于开始", dto.StartDelegationRequest{DelegatorID: "alice", StartDate: "2025-03-21", EndDate: "2025-03-20"}, ErrInvalidDateRange},
		{"日期格式错误", dto.StartDelegationRequest{DelegatorID: "alice", StartDate: "20250320", EndDate: "2025-03-21"}, ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := e.svc.Delegation.StartDelegation(context.Background(), testOrgID, &req, "admin")
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestDelegationService_Start_CrossOrgRejected(t *testing.T) {
	e := setupTestEngine()

	_, err := e.svc.Delegation.StartDelegation(context.Background(), "org-other", &dto.StartDelegationRequest{
		DelegatorID: "alice", StartDate: "2025-03-20", EndDate: "2025-03-21",
	}, "admin")
	if !errors.Is(err, ErrPersonNotFound) {
		t.Errorf("期望 ErrPersonNotFound，实际: %v", err)
	}
}

func TestDelegationService_Start_Overlapping(t *testing.T) {
	e := setupTestEngine()
	e.start(t, "2025-03-10", "2025-03-20")

	_, err := e.svc.Delegation.StartDelegation(context.Background(), testOrgID, &dto.StartDelegationRequest{
		DelegatorID: "alice", StartDate: "2025-03-20", EndDate: "2025-03-25",
	}, "alice")
	if !errors.Is(err, ErrOverlappingDelegation) {
		t.Errorf("边界日重叠期望 ErrOverlappingDelegation，实际: %v", err)
	}

	// 相邻不重叠
	e.start(t, "2025-03-21", "2025-03-25")
}

func TestDelegationService_Start_AfterCancelAllowed(t *testing.T) {
	e := setupTestEngine()
	d := e.start(t, "2025-03-10", "2025-03-20")
	if _, err := e.svc.Delegation.CancelDelegation(context.Background(), d.DelegationID, "alice", "计划变更"); err != nil {
		t.Fatalf("CancelDelegation 应成功: %v", err)
	}
	e.start(t, "2025-03-10", "2025-03-20")
}

func TestDelegationService_ScopeSnapshotFrozen(t *testing.T) {
	e := setupTestEngine()
	e.st.profiles["alice"].Scope.Clients = model.ScopeOf("client-a")

	d := e.start(t, "2025-03-10", "2025-03-14")

	newScope := model.DelegationScope{
		Clients:        model.ScopeOf("client-z"),
		TaskTypes:      model.AllScope(),
		AuthorityLevel: model.AuthorityLimited,
	}
	if _, err := e.svc.Profile.UpsertProfile(context.Background(), "alice",
		&dto.UpsertProfileRequest{Scope: &newScope}, "alice"); err != nil {
		t.Fatalf("UpsertProfile 应成功: %v", err)
	}

	snap := e.stored(d.DelegationID).ScopeSnapshot
	if !snap.Clients.Contains("client-a") || snap.Clients.Contains("client-z") {
		t.Errorf("档案修改不应影响已创建代理的范围快照，实际=%+v", snap.Clients)
	}
	if snap.AuthorityLevel != model.AuthorityStandard {
		t.Errorf("期望快照授权级别保持 standard，实际=%s", snap.AuthorityLevel)
	}
}

// ── ActivatePendingDelegations 测试 ──

func TestDelegationService_Activate_Idempotent(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")
	due := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationPending)
	future := e.st.addDelegation("alice", "bob", "2025-04-01", "2025-04-03", model.DelegationPending)

	report, err := e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("ActivatePendingDelegations 应成功: %v", err)
	}
	if report.Activated != 1 || report.Failed != 0 {
		t.Errorf("期望激活 1 条，实际 activated=%d failed=%d", report.Activated, report.Failed)
	}
	if e.stored(due.DelegationID).Status != model.DelegationActive {
		t.Error("到期代理应变为 ACTIVE")
	}
	if e.stored(future.DelegationID).Status != model.DelegationPending {
		t.Error("未到期代理应保持 PENDING")
	}
	if e.owner("b1") != "bob" {
		t.Error("激活后任务应转交 bob")
	}

	report, err = e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("重复执行应成功: %v", err)
	}
	if len(report.Items) != 0 {
		t.Errorf("重复执行不应再处理任何代理，实际=%d", len(report.Items))
	}
	if n := len(e.st.activitiesOf(due.DelegationID, model.ActivityTaskAssigned)); n != 1 {
		t.Errorf("重复执行不应重复记录转交，实际=%d", n)
	}
}

func TestDelegationService_Activate_FailureIsolatedAndResumed(t *testing.T) {
	e := setupTestEngine()
	e.st.addPerson("carol", "dept-1", model.RoleMember)
	e.st.addPerson("dave", "dept-1", model.RoleMember)
	e.st.addBrief("b-alice", "alice", "review")
	e.st.addBrief("b-carol", "carol", "review")
	ok := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationPending)
	bad := e.st.addDelegation("carol", "dave", "2025-03-04", "2025-03-10", model.DelegationPending)
	e.st.failOpenBriefsFor["carol"] = true

	report, err := e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("单条失败不应导致整体失败: %v", err)
	}
	if report.Activated != 1 || report.Failed != 1 {
		t.Errorf("期望 activated=1 failed=1，实际 activated=%d failed=%d", report.Activated, report.Failed)
	}
	if e.owner("b-alice") != "bob" {
		t.Error("其他代理应正常转交")
	}
	stored := e.stored(bad.DelegationID)
	if stored.Status != model.DelegationActive || stored.TasksReassignedAt != nil {
		t.Errorf("失败的代理应为 ACTIVE 且未标记转交完成，实际=%s/%v", stored.Status, stored.TasksReassignedAt)
	}

	delete(e.st.failOpenBriefsFor, "carol")
	report, err = e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("ActivatePendingDelegations 应成功: %v", err)
	}
	if report.Resumed != 1 || len(report.Items) != 1 || report.Items[0].DelegationID != bad.DelegationID {
		t.Errorf("期望补做失败的代理，实际=%+v", report)
	}
	if e.owner("b-carol") != "dave" {
		t.Error("补做后任务应转交 dave")
	}
	if e.stored(ok.DelegationID).TasksReassignedAt == nil {
		t.Error("成功的代理应记录转交完成")
	}
}

func TestDelegationService_Activate_SkipsCancelledBetweenListAndTransition(t *testing.T) {
	e := setupTestEngine()
	d := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationPending)

	svc := e.svc.Delegation.(*delegationService)
	snapshot := *d
	e.st.delegations[d.DelegationID].Status = model.DelegationCancelled

	item := svc.activateOne(context.Background(), &snapshot, testNow)
	if !item.Skipped || item.Activated {
		t.Errorf("状态已变化时应跳过，实际=%+v", item)
	}
}

// interleaveLocker 第一次 Lock 前执行 before，模拟激活等锁期间另一请求先完成
type interleaveLocker struct {
	inner  Locker
	fired  atomic.Bool
	before func()
}

func (l *interleaveLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.before != nil && l.fired.CompareAndSwap(false, true) {
		l.before()
	}
	return l.inner.Lock(ctx, key, ttl)
}

func TestDelegationService_Activate_CancelledWhileWaitingForLock(t *testing.T) {
	locker := &interleaveLocker{inner: NewLocalLocker()}
	e := setupTestEngineWithLocker(locker)
	e.st.addBrief("b1", "alice", "review")
	// 上一轮转交未完成的 ACTIVE 代理
	d := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationActive)

	var cancelErr error
	locker.before = func() {
		_, cancelErr = e.svc.Delegation.CancelDelegation(context.Background(), d.DelegationID, "alice", "提前返岗")
	}

	report, err := e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("ActivatePendingDelegations 应成功: %v", err)
	}
	if cancelErr != nil {
		t.Fatalf("CancelDelegation 应成功: %v", cancelErr)
	}
	if report.Skipped != 1 || report.Resumed != 0 {
		t.Errorf("已取消的代理应被跳过，实际=%+v", report.Items)
	}
	if e.stored(d.DelegationID).Status != model.DelegationCancelled {
		t.Errorf("期望 CANCELLED，实际=%s", e.stored(d.DelegationID).Status)
	}
	b := e.st.briefs["b1"]
	if b.OwnerID != "alice" || b.BackupOwnerID != nil || b.DelegationID != nil {
		t.Errorf("取消后的代理不应再借用任务，实际 owner=%s backup=%v delegation=%v", b.OwnerID, b.BackupOwnerID, b.DelegationID)
	}
}

func TestDelegationService_Activate_HandoffCompletedWhileWaitingForLock(t *testing.T) {
	locker := &interleaveLocker{inner: NewLocalLocker()}
	e := setupTestEngineWithLocker(locker)
	e.st.addBrief("b1", "alice", "review")
	d := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationActive)

	var completeErr error
	locker.before = func() {
		_, completeErr = e.svc.Handoff.CompleteHandoff(context.Background(), d.DelegationID, "alice", "提前返岗")
	}

	report, err := e.svc.Delegation.ActivatePendingDelegations(context.Background())
	if err != nil {
		t.Fatalf("ActivatePendingDelegations 应成功: %v", err)
	}
	if completeErr != nil {
		t.Fatalf("CompleteHandoff 应成功: %v", completeErr)
	}
	if report.Skipped != 1 {
		t.Errorf("已完成交接的代理应被跳过，实际=%+v", report.Items)
	}
	if e.owner("b1") != "alice" {
		t.Errorf("交接完成后任务应留在 alice 名下，实际=%s", e.owner("b1"))
	}
}

func TestDelegationService_Activate_SkipsAlreadyReassigned(t *testing.T) {
	e := setupTestEngine()
	d := e.st.addDelegation("alice", "bob", "2025-03-05", "2025-03-10", model.DelegationActive)

	svc := e.svc.Delegation.(*delegationService)
	snapshot := *d
	done := testNow
	e.st.delegations[d.DelegationID].TasksReassignedAt = &done

	item := svc.activateOne(context.Background(), &snapshot, testNow)
	if !item.Skipped || item.Resumed {
		t.Errorf("其他实例已完成转交时应跳过，实际=%+v", item)
	}
}

// ── CancelDelegation 测试 ──

func TestDelegationService_Cancel_RestoresOwnership(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")
	e.st.addBrief("b2", "alice", "audit")
	d := e.start(t, "2025-03-05", "2025-03-10")
	if e.owner("b1") != "bob" || e.owner("b2") != "bob" {
		t.Fatal("前置条件：任务应已转交 bob")
	}

	cancelled, err := e.svc.Delegation.CancelDelegation(context.Background(), d.DelegationID, "alice", "提前返岗")
	if err != nil {
		t.Fatalf("CancelDelegation 应成功: %v", err)
	}
	if cancelled.Status != model.DelegationCancelled || cancelled.CancelReason != "提前返岗" {
		t.Errorf("期望 CANCELLED 且记录原因，实际=%s/%s", cancelled.Status, cancelled.CancelReason)
	}
	for _, id := range []string{"b1", "b2"} {
		b := e.st.briefs[id]
		if b.OwnerID != "alice" || b.BackupOwnerID != nil || b.DelegationID != nil {
			t.Errorf("%s 应完整归还 alice，实际 owner=%s backup=%v delegation=%v", id, b.OwnerID, b.BackupOwnerID, b.DelegationID)
		}
	}
	for _, r := range e.st.reminders {
		if r.DelegationID == d.DelegationID {
			t.Error("取消后应清理未发送的提醒")
		}
	}
	got := e.sink.byType(NotifyDelegationCancelled)
	if len(got) != 1 || got[0].RecipientID != "bob" {
		t.Errorf("期望只通知非操作人 bob，实际=%+v", got)
	}
}

func TestDelegationService_Cancel_InvalidStates(t *testing.T) {
	e := setupTestEngine()
	completed := e.st.addDelegation("alice", "bob", "2025-02-01", "2025-02-03", model.DelegationCompleted)

	if _, err := e.svc.Delegation.CancelDelegation(context.Background(), completed.DelegationID, "alice", ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("已完成的代理期望 ErrInvalidState，实际: %v", err)
	}

	d := e.start(t, "2025-03-10", "2025-03-14")
	if _, err := e.svc.Delegation.CancelDelegation(context.Background(), d.DelegationID, "alice", ""); err != nil {
		t.Fatalf("CancelDelegation 应成功: %v", err)
	}
	if _, err := e.svc.Delegation.CancelDelegation(context.Background(), d.DelegationID, "alice", ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("重复取消期望 ErrInvalidState，实际: %v", err)
	}

	if _, err := e.svc.Delegation.CancelDelegation(context.Background(), "del-missing", "alice", ""); !errors.Is(err, ErrDelegationNotFound) {
		t.Errorf("期望 ErrDelegationNotFound，实际: %v", err)
	}
}

// ── RouteTaskWithDelegation 测试 ──

func TestDelegationService_Route_ToDelegateDuringLeave(t *testing.T) {
	e := setupTestEngine()
	e.st.profiles["alice"].Scope.ValueThreshold = floatPtr(10000)
	e.st.addLeave("alice", "2025-03-05", "2025-03-10", model.LeaveStatusApproved)
	d := e.start(t, "2025-03-05", "2025-03-10")

	resp, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), testOrgID, &dto.RouteTaskRequest{
		IntendedOwnerID: "alice",
		Title:           "季度审阅",
		TaskType:        "review",
		EstimatedValue:  floatPtr(5000),
		DueDate:         strPtr("2025-03-08"),
	}, "manager")
	if err != nil {
		t.Fatalf("RouteTaskWithDelegation 应成功: %v", err)
	}
	if resp.Brief.OwnerID != "bob" || resp.OutOfScope {
		t.Errorf("期望路由给 bob，实际 owner=%s outOfScope=%v", resp.Brief.OwnerID, resp.OutOfScope)
	}
	if resp.DelegationID == nil || *resp.DelegationID != d.DelegationID {
		t.Error("期望新任务挂在进行中的代理下")
	}
	if resp.Brief.BackupOwnerID == nil || *resp.Brief.BackupOwnerID != "alice" {
		t.Error("期望记录原负责人 alice，交接时归还")
	}
	if resp.Brief.DueDate == nil || !resp.Brief.DueDate.Equal(day("2025-03-08")) {
		t.Error("期望保存截止日期")
	}
	if got := e.sink.byType(NotifyTaskAssigned); len(got) == 0 || got[len(got)-1].RecipientID != "bob" {
		t.Error("期望通知新负责人 bob")
	}
}

func TestDelegationService_Route_OutOfScopeStaysWithOwner(t *testing.T) {
	e := setupTestEngine()
	e.st.profiles["alice"].Scope.ValueThreshold = floatPtr(10000)
	e.st.addLeave("alice", "2025-03-05", "2025-03-10", model.LeaveStatusApproved)
	d := e.start(t, "2025-03-05", "2025-03-10")

	resp, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), testOrgID, &dto.RouteTaskRequest{
		IntendedOwnerID: "alice",
		Title:           "并购尽调",
		TaskType:        "review",
		EstimatedValue:  floatPtr(50000),
	}, "manager")
	if err != nil {
		t.Fatalf("RouteTaskWithDelegation 应成功: %v", err)
	}
	if resp.Brief.OwnerID != "alice" || !resp.OutOfScope {
		t.Errorf("超阈值任务应留在 alice 名下，实际 owner=%s outOfScope=%v", resp.Brief.OwnerID, resp.OutOfScope)
	}
	if resp.Brief.BackupOwnerID != nil {
		t.Error("未转交的任务不应记录原负责人")
	}
	if n := len(e.st.activitiesOf(d.DelegationID, model.ActivityTaskEscalated)); n != 1 {
		t.Errorf("期望 1 条 TASK_ESCALATED，实际=%d", n)
	}
}

func TestDelegationService_Route_OutOfScopeWithoutActiveDelegation(t *testing.T) {
	e := setupTestEngine()
	e.st.profiles["alice"].Scope.ValueThreshold = floatPtr(10000)
	e.st.addLeave("alice", "2025-03-05", "2025-03-10", model.LeaveStatusApproved)

	resp, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), testOrgID, &dto.RouteTaskRequest{
		IntendedOwnerID: "alice",
		Title:           "并购尽调",
		TaskType:        "review",
		EstimatedValue:  floatPtr(50000),
	}, "manager")
	if err != nil {
		t.Fatalf("RouteTaskWithDelegation 应成功: %v", err)
	}
	if !resp.Resolution.WasDelegated {
		t.Fatal("alice 请假中，期望代理链解析到 bob")
	}
	if resp.Brief.OwnerID != "alice" || !resp.OutOfScope {
		t.Errorf("无进行中代理时超范围任务仍留在 alice 名下，实际 owner=%s outOfScope=%v", resp.Brief.OwnerID, resp.OutOfScope)
	}
	if resp.DelegationID != nil || resp.Brief.DelegationID != nil {
		t.Error("无进行中代理时不应挂接代理记录")
	}
}

func TestDelegationService_Route_AvailableOwner(t *testing.T) {
	e := setupTestEngine()

	resp, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), testOrgID, &dto.RouteTaskRequest{
		IntendedOwnerID: "alice", Title: "日常复核", TaskType: "review",
	}, "alice")
	if err != nil {
		t.Fatalf("RouteTaskWithDelegation 应成功: %v", err)
	}
	if resp.Brief.OwnerID != "alice" || resp.Resolution.WasDelegated || resp.DelegationID != nil {
		t.Errorf("在岗时期望保留在 alice 名下，实际=%+v", resp.Resolution)
	}
	if n := len(e.sink.byType(NotifyTaskAssigned)); n != 0 {
		t.Error("自己给自己建任务不应通知")
	}
}

func TestDelegationService_Route_BadDueDate(t *testing.T) {
	e := setupTestEngine()

	_, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), testOrgID, &dto.RouteTaskRequest{
		IntendedOwnerID: "alice", Title: "x", TaskType: "review", DueDate: strPtr("03/08"),
	}, "alice")
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("期望 ErrInvalidDateRange，实际: %v", err)
	}
}

// ── 活动与查询 ──

func TestDelegationService_RecordActivity(t *testing.T) {
	e := setupTestEngine()
	pending := e.start(t, "2025-03-20", "2025-03-21")

	req := &dto.RecordActivityRequest{ActivityType: model.ActivityDecision, Description: "同意延期"}
	if _, err := e.svc.Delegation.RecordActivity(context.Background(), pending.DelegationID, "bob", req); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PENDING 代理期望 ErrInvalidState，实际: %v", err)
	}

	e.st.addPerson("carol", "dept-1", model.RoleMember)
	e.st.setProfile("carol", "bob")
	active, err := e.svc.Delegation.StartDelegation(context.Background(), testOrgID,
		&dto.StartDelegationRequest{DelegatorID: "carol", StartDate: "2025-03-05", EndDate: "2025-03-06"}, "carol")
	if err != nil {
		t.Fatalf("StartDelegation 应成功: %v", err)
	}
	a, err := e.svc.Delegation.RecordActivity(context.Background(), active.DelegationID, "bob", req)
	if err != nil {
		t.Fatalf("RecordActivity 应成功: %v", err)
	}
	if a.ActorID == nil || *a.ActorID != "bob" || a.Seq == 0 {
		t.Errorf("期望记录操作人与序号，实际=%+v", a)
	}

	bad := &dto.RecordActivityRequest{ActivityType: model.ActivityHandoffCompleted, Description: "x"}
	if _, err := e.svc.Delegation.RecordActivity(context.Background(), active.DelegationID, "bob", bad); !errors.Is(err, ErrInvalidActivityType) {
		t.Errorf("交接类活动不允许手动记录，实际: %v", err)
	}
}

func TestDelegationService_CompleteTask(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")
	d := e.start(t, "2025-03-05", "2025-03-10")

	b, err := e.svc.Delegation.CompleteTask(context.Background(), testOrgID, "b1", "bob")
	if err != nil {
		t.Fatalf("CompleteTask 应成功: %v", err)
	}
	if b.Status != model.BriefStatusCompleted {
		t.Errorf("期望 completed，实际=%s", b.Status)
	}
	done := e.st.activitiesOf(d.DelegationID, model.ActivityTaskCompleted)
	if len(done) != 1 || done[0].ActorID == nil || *done[0].ActorID != "bob" {
		t.Errorf("期望记录 bob 完成任务，实际=%+v", done)
	}

	if _, err := e.svc.Delegation.CompleteTask(context.Background(), testOrgID, "b1", "bob"); !errors.Is(err, ErrTaskNotOpen) {
		t.Errorf("重复完成期望 ErrTaskNotOpen，实际: %v", err)
	}
	if _, err := e.svc.Delegation.CompleteTask(context.Background(), testOrgID, "missing", "bob"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("期望 ErrTaskNotFound，实际: %v", err)
	}
}

func TestDelegationService_CompleteTask_OtherOrg(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")

	if _, err := e.svc.Delegation.CompleteTask(context.Background(), "org-other", "b1", "mallory"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("跨组织完成任务期望 ErrTaskNotFound，实际: %v", err)
	}
	if b := e.st.briefs["b1"]; b.Status == model.BriefStatusCompleted {
		t.Error("跨组织请求不应改变任务状态")
	}
}

func TestDelegationService_RouteTask_OtherOrg(t *testing.T) {
	e := setupTestEngine()

	req := &dto.RouteTaskRequest{IntendedOwnerID: "alice", Title: "季度审计", TaskType: "review"}
	if _, err := e.svc.Delegation.RouteTaskWithDelegation(context.Background(), "org-other", req, "mallory"); !errors.Is(err, ErrPersonNotFound) {
		t.Errorf("跨组织路由期望 ErrPersonNotFound，实际: %v", err)
	}
}

func TestDelegationService_Summary(t *testing.T) {
	e := setupTestEngine()
	e.st.addBrief("b1", "alice", "review")
	e.st.addBrief("b2", "alice", "review")
	d := e.start(t, "2025-03-05", "2025-03-10")

	sum, err := e.svc.Delegation.GetDelegationSummary(context.Background(), d.DelegationID)
	if err != nil {
		t.Fatalf("GetDelegationSummary 应成功: %v", err)
	}
	if sum.TasksHeld != 2 {
		t.Errorf("期望持有 2 项任务，实际=%d", sum.TasksHeld)
	}
	if sum.ActivityCounts[model.ActivityTaskAssigned] != 2 || sum.TotalActivities != 2 {
		t.Errorf("期望 2 条转交记录，实际=%+v", sum.ActivityCounts)
	}
	if sum.DaysRemaining != 5 {
		t.Errorf("期望剩余 5 天，实际=%d", sum.DaysRemaining)
	}
}

func TestDelegationService_GetUserDelegations(t *testing.T) {
	e := setupTestEngine()
	e.start(t, "2025-03-20", "2025-03-21")

	out, err := e.svc.Delegation.GetUserDelegations(context.Background(), "alice", &dto.DelegationListRequest{Direction: repository.DirectionOutgoing})
	if err != nil {
		t.Fatalf("GetUserDelegations 应成功: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("期望 alice 委托出 1 条，实际=%d", len(out))
	}
	in, _ := e.svc.Delegation.GetUserDelegations(context.Background(), "alice", &dto.DelegationListRequest{Direction: repository.DirectionIncoming})
	if len(in) != 0 {
		t.Errorf("期望 alice 无代理他人记录，实际=%d", len(in))
	}
	bob, _ := e.svc.Delegation.GetUserDelegations(context.Background(), "bob", &dto.DelegationListRequest{Status: model.DelegationPending})
	if len(bob) != 1 || bob[0].Delegator == nil {
		t.Error("期望 bob 可查到待生效代理并带出委托人信息")
	}
}

// [自证通过] internal/service/delegation_service_test.go
