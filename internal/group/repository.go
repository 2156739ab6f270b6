package group

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionConflict signals a lost compare-and-swap race on a group row.
var ErrVersionConflict = errors.New("group version conflict")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Upsert creates the group for a request, or refreshes its member set if a
// concurrent writer already created it. The unique request_id index makes
// quorum-crossing idempotent.
func (r *Repository) Upsert(ctx context.Context, g *Group) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"members": g.Members,
			"status":  StatusActive,
		}),
	}).Create(g).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*Group, error) {
	var g Group
	if err := r.DB.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByRequestID returns the group materialized from a request, or nil if
// the request never reached quorum.
func (r *Repository) GetByRequestID(ctx context.Context, requestID uint) (*Group, error) {
	var g Group
	err := r.DB.WithContext(ctx).Where("request_id = ?", requestID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindActiveByMember returns the newest active group containing userID, or
// nil. Membership lives in a JSON column, so candidates are filtered in
// memory.
func (r *Repository) FindActiveByMember(ctx context.Context, userID uint) (*Group, error) {
	var candidates []Group
	err := r.DB.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("created_at DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if candidates[i].HasMember(userID) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// UpdateCAS writes members+status only if the row is unchanged since read.
func (r *Repository) UpdateCAS(ctx context.Context, g *Group) error {
	res := r.DB.WithContext(ctx).Model(&Group{}).
		Where("id = ? AND version = ?", g.ID, g.Version).
		Updates(map[string]interface{}{
			"members": g.Members,
			"status":  g.Status,
			"version": g.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	g.Version++
	return nil
}

// SetMembers replaces a group's member set keyed by request id, used when a
// request-side mutation must be mirrored without caring about group version.
func (r *Repository) SetMembers(ctx context.Context, requestID uint, members []uint, status string) error {
	return r.DB.WithContext(ctx).Model(&Group{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"members": datatypes.NewJSONSlice(members),
			"status":  status,
		}).Error
}
