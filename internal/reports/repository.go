package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/juetgo/outing-management-backend/internal/auth"
	"github.com/juetgo/outing-management-backend/internal/group"
	"github.com/juetgo/outing-management-backend/internal/location"
	"github.com/juetgo/outing-management-backend/internal/outing"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// OutingRows builds the flattened outing history. Member counts come from
// the JSON member column, check-in counts from the gate event log.
func (r *Repository) OutingRows(ctx context.Context, filter OutingReportFilter) ([]OutingReportRow, error) {
	query := r.DB.WithContext(ctx).Model(&outing.OutingRequest{}).
		Where("date >= ? AND date < ?", filter.Start, filter.End)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var requests []outing.OutingRequest
	if err := query.Order("date ASC, created_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}

	if filter.UserID != nil {
		filtered := requests[:0]
		for _, req := range requests {
			if req.CreatorID == *filter.UserID || req.HasMember(*filter.UserID) {
				filtered = append(filtered, req)
			}
		}
		requests = filtered
	}
	if len(requests) == 0 {
		return []OutingReportRow{}, nil
	}

	creatorIDs := make([]uint, 0, len(requests))
	requestIDs := make([]uint, 0, len(requests))
	for _, req := range requests {
		creatorIDs = append(creatorIDs, req.CreatorID)
		requestIDs = append(requestIDs, req.ID)
	}

	var creators []auth.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", creatorIDs).Find(&creators).Error; err != nil {
		return nil, err
	}
	nameByID := make(map[uint]string, len(creators))
	for _, u := range creators {
		nameByID[u.ID] = u.Name
	}

	var groups []group.Group
	if err := r.DB.WithContext(ctx).Where("request_id IN ?", requestIDs).Find(&groups).Error; err != nil {
		return nil, err
	}
	groupByRequest := make(map[uint]group.Group, len(groups))
	targetIDs := make([]uint, 0, len(groups)+len(requestIDs))
	targetIDs = append(targetIDs, requestIDs...)
	for _, g := range groups {
		groupByRequest[g.RequestID] = g
		targetIDs = append(targetIDs, g.ID)
	}

	var events []location.GateEvent
	if err := r.DB.WithContext(ctx).
		Where("target_id IN ? AND type = ?", targetIDs, location.EventCheckin).
		Find(&events).Error; err != nil {
		return nil, err
	}

	type tally struct{ total, verified int }
	counts := make(map[uint]map[uint]tally) // target -> user -> tally
	for _, e := range events {
		if counts[e.TargetID] == nil {
			counts[e.TargetID] = make(map[uint]tally)
		}
		t := counts[e.TargetID][e.UserID]
		t.total++
		if e.Verified {
			t.verified++
		}
		counts[e.TargetID][e.UserID] = t
	}

	rows := make([]OutingReportRow, 0, len(requests))
	for _, req := range requests {
		row := OutingReportRow{
			RequestID:   req.ID,
			CreatorName: nameByID[req.CreatorID],
			Date:        req.Date,
			Time:        req.Time,
			Status:      req.Status,
			MemberCount: len(req.Members),
			CreatedAt:   req.CreatedAt,
		}

		targetID := req.ID
		if g, ok := groupByRequest[req.ID]; ok {
			gid := g.ID
			row.GroupID = &gid
			targetID = g.ID
		}
		for _, t := range counts[targetID] {
			row.CheckedIn++
			if t.verified > 0 {
				row.VerifiedIn++
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
