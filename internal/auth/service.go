package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/juetgo/outing-management-backend/internal/apperr"
)

type Service interface {
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]User, error)
	UpdatePushToken(ctx context.Context, userID uint, token string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetUserByID(ctx context.Context, id uint) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	return u, err
}

func (s *service) GetUsersByIDs(ctx context.Context, ids []uint) ([]User, error) {
	return s.repo.GetUsersByIDs(ctx, ids)
}

func (s *service) UpdatePushToken(ctx context.Context, userID uint, token string) error {
	if token == "" {
		return apperr.Validation("push token is required")
	}
	return s.repo.UpdatePushToken(ctx, userID, token)
}
