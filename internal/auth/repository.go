package auth

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]User, error)
	UpdatePushToken(ctx context.Context, userID uint, token string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetUsersByIDs(ctx context.Context, ids []uint) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *repository) UpdatePushToken(ctx context.Context, userID uint, token string) error {
	return r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("push_token", token).Error
}
