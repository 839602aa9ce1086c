package repository

import (
	"context"

	"gorm.io/gorm"

	"erp-doa/backend/internal/model"
)

// PersonRepository 人员数据访问接口（人员由 HR 流程维护，此处只读 + 同步主代理人）
type PersonRepository interface {
	GetByID(ctx context.Context, id string) (*model.Person, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Person, error)
	ListByDepartment(ctx context.Context, orgID, departmentID string) ([]model.Person, error)
	ListByRoles(ctx context.Context, orgID string, roles []string) ([]model.Person, error)
	UpdatePrimaryDelegate(ctx context.Context, personID string, delegateID *string, updatedBy string) error
}

// personRepo PersonRepository 的 GORM 实现
type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("person_id = ?", id).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Person, error) {
	var people []model.Person
	if len(ids) == 0 {
		return people, nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id IN ?", ids).
		Order("name ASC").
		Find(&people).Error
	return people, err
}

func (r *personRepo) ListByDepartment(ctx context.Context, orgID, departmentID string) ([]model.Person, error) {
	var people []model.Person
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND department_id = ?", orgID, departmentID).
		Order("name ASC").
		Find(&people).Error
	return people, err
}

func (r *personRepo) ListByRoles(ctx context.Context, orgID string, roles []string) ([]model.Person, error) {
	var people []model.Person
	if len(roles) == 0 {
		return people, nil
	}
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND role IN ?", orgID, roles).
		Order("name ASC").
		Find(&people).Error
	return people, err
}

func (r *personRepo) UpdatePrimaryDelegate(ctx context.Context, personID string, delegateID *string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Person{}).
		Where("person_id = ?", personID).
		Updates(map[string]interface{}{
			"primary_delegate_id": delegateID,
			"updated_by":          updatedBy,
			"updated_at":          gorm.Expr("NOW()"),
		}).Error
}

// [自证通过] internal/repository/person_repo.go
