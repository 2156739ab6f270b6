package outing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrVersionConflict signals a lost compare-and-swap race; callers re-read
// and retry.
var ErrVersionConflict = errors.New("outing request version conflict")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, req *OutingRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*OutingRequest, error) {
	var req OutingRequest
	if err := r.DB.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateMembershipCAS writes members+status only if nobody else has touched
// the row since it was read. On success the in-memory Version advances to
// match the stored row.
func (r *Repository) UpdateMembershipCAS(ctx context.Context, req *OutingRequest) error {
	res := r.DB.WithContext(ctx).Model(&OutingRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(map[string]interface{}{
			"members": req.Members,
			"status":  req.Status,
			"version": req.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	req.Version++
	return nil
}

// FindActiveByCreator returns the creator's non-expired request in any of
// the given statuses, or nil.
func (r *Repository) FindActiveByCreator(ctx context.Context, userID uint, statuses []string, now time.Time) (*OutingRequest, error) {
	var req OutingRequest
	err := r.DB.WithContext(ctx).
		Where("creator_id = ? AND status IN ? AND expires_at > ?", userID, statuses, now).
		Order("created_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveByMember returns the first non-expired active request whose
// member set contains userID. Membership lives in a JSON column, so the
// candidate rows are filtered in memory.
func (r *Repository) FindActiveByMember(ctx context.Context, userID uint, now time.Time) (*OutingRequest, error) {
	var candidates []OutingRequest
	err := r.DB.WithContext(ctx).
		Where("status IN ? AND expires_at > ?", ActiveStatuses, now).
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

// FindCandidates returns other users' matchable requests on the given
// calendar date, excluding one request id.
func (r *Repository) FindCandidates(ctx context.Context, excludeRequestID, excludeUserID uint, date time.Time, now time.Time) ([]OutingRequest, error) {
	dayStart := NormalizeDate(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var requests []OutingRequest
	err := r.DB.WithContext(ctx).
		Where("id <> ? AND creator_id <> ?", excludeRequestID, excludeUserID).
		Where("status IN ?", MatchableStatuses).
		Where("date >= ? AND date < ?", dayStart, dayEnd).
		Where("expires_at > ?", now).
		Find(&requests).Error
	return requests, err
}

// ListBrowse returns joinable requests for the browse screen.
func (r *Repository) ListBrowse(ctx context.Context, filter BrowseFilter, now time.Time) ([]OutingRequest, error) {
	query := r.DB.WithContext(ctx).Model(&OutingRequest{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status IN ?", MatchableStatuses)
	}

	if filter.ExcludeOwn {
		query = query.Where("creator_id <> ?", filter.UserID)
	}

	today := NormalizeDate(now)
	if filter.Date != nil {
		dayStart := NormalizeDate(*filter.Date)
		query = query.Where("date >= ? AND date < ?", dayStart, dayStart.AddDate(0, 0, 1))
	} else {
		query = query.Where("date >= ?", today)
	}

	query = query.Where("expires_at > ?", now)

	var requests []OutingRequest
	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// ListByUser returns requests where the user is creator or still a member,
// excluding cancelled ones.
func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]OutingRequest, error) {
	var all []OutingRequest
	err := r.DB.WithContext(ctx).
		Where("status <> ?", StatusCancelled).
		Order("created_at DESC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	var mine []OutingRequest
	for i := range all {
		if all[i].CreatorID == userID || all[i].HasMember(userID) {
			mine = append(mine, all[i])
		}
	}
	return mine, nil
}
