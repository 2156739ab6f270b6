package location

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, event *GateEvent) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

// LatestPerUser returns each user's most recent gate event for the target.
func (r *Repository) LatestPerUser(ctx context.Context, targetID uint) (map[uint]GateEvent, error) {
	var events []GateEvent
	err := r.DB.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uint]GateEvent)
	for _, e := range events {
		if _, seen := latest[e.UserID]; !seen {
			latest[e.UserID] = e
		}
	}
	return latest, nil
}

// History returns a user's gate events newest first, for reporting.
func (r *Repository) History(ctx context.Context, userID uint, limit int) ([]GateEvent, error) {
	var events []GateEvent
	query := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}
