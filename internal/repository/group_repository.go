package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"beefsteak/internal/model"
)

// GroupRepository manages groups.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

func (r *GroupRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Group{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check group: %w", err)
	}
	return count > 0, nil
}
