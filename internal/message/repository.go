package message

import (
	"context"

	"gorm.io/gorm"
)

// listLimit caps a single history fetch.
const listLimit = 100

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, msg *Message) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

// ListByTarget returns the newest messages for a target in chronological
// order.
func (r *Repository) ListByTarget(ctx context.Context, targetID uint) ([]Message, error) {
	var newest []Message
	err := r.DB.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("created_at DESC").
		Limit(listLimit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}

	// reverse to ascending for the chat view
	out := make([]Message, len(newest))
	for i := range newest {
		out[len(newest)-1-i] = newest[i]
	}
	return out, nil
}
