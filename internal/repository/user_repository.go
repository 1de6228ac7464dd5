package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"beefsteak/internal/model"
)

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// SetGroup points the user at groupID.
func (r *UserRepository) SetGroup(ctx context.Context, userID, groupID uint) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("group_id", groupID)
	if res.Error != nil {
		return fmt.Errorf("set user group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByGroup returns the group roster ordered by user name.
func (r *UserRepository) ListByGroup(ctx context.Context, groupID uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("user_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetTelegramChat links or, with a nil chatID, unlinks a Telegram chat.
// A chat already linked to another user is moved to this one.
func (r *UserRepository) SetTelegramChat(ctx context.Context, userID uint, chatID *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if chatID != nil {
			if err := tx.Model(&model.User{}).
				Where("telegram_chat_id = ? AND id <> ?", *chatID, userID).
				Update("telegram_chat_id", nil).Error; err != nil {
				return fmt.Errorf("release telegram chat: %w", err)
			}
		}
		res := tx.Model(&model.User{}).Where("id = ?", userID).Update("telegram_chat_id", chatID)
		if res.Error != nil {
			return fmt.Errorf("set telegram chat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) FindByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListLinked returns every user with a Telegram chat attached.
func (r *UserRepository) ListLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id IS NOT NULL").Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
