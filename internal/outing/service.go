package outing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/juetgo/outing-management-backend/internal/apperr"
	"github.com/juetgo/outing-management-backend/internal/auditlog"
	"github.com/juetgo/outing-management-backend/internal/group"
	"github.com/juetgo/outing-management-backend/internal/notification"
)

// casRetries bounds optimistic-lock retries before surfacing a conflict.
const casRetries = 3

type Service interface {
	Create(ctx context.Context, userID uint, input CreateOutingRequest, ip string) (*OutingRequest, error)
	Browse(ctx context.Context, filter BrowseFilter) ([]OutingRequest, error)
	MyRequests(ctx context.Context, userID uint) ([]OutingRequest, error)
	Get(ctx context.Context, id uint) (*OutingRequest, error)
	Leave(ctx context.Context, userID uint, requestID uint, ip string) (*OutingRequest, error)
}

type service struct {
	repo     *Repository
	groups   *group.Repository
	notifier notification.Notifier
	audit    auditlog.Service
	now      func() time.Time
}

func NewService(repo *Repository, groups *group.Repository, notifier notification.Notifier, audit auditlog.Service) Service {
	return &service{
		repo:     repo,
		groups:   groups,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
	}
}

// Create opens a new outing request with the creator as its only member.
// One non-expired active request per creator at a time.
func (s *service) Create(ctx context.Context, userID uint, input CreateOutingRequest, ip string) (*OutingRequest, error) {
	date, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		return nil, apperr.Validation("invalid date format, use YYYY-MM-DD")
	}

	now := s.now()
	if NormalizeDate(date).Before(NormalizeDate(now)) {
		return nil, apperr.Validation("outing date cannot be in the past")
	}

	if ok, reason := ValidateOutingTime(date, input.Time); !ok {
		return nil, apperr.Policy(reason)
	}

	expiry := ExpiryFor(date)
	if !expiry.After(now) {
		return nil, apperr.Policy("outing window for this date has already closed")
	}

	existing, err := s.repo.FindActiveByCreator(ctx, userID, ActiveStatuses, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("you already have an active outing request")
	}

	joined, err := s.repo.FindActiveByMember(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if joined != nil {
		return nil, apperr.Conflict("you are already part of another active outing request")
	}

	inGroup, err := s.groups.FindActiveByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if inGroup != nil {
		return nil, apperr.Conflict("you are already part of an active outing group")
	}

	prefs := Preferences{}
	if input.Preferences != nil {
		prefs = *input.Preferences
	}

	req := &OutingRequest{
		CreatorID:   userID,
		Date:        NormalizeDate(date),
		Time:        input.Time,
		Status:      StatusPending,
		Members:     datatypes.NewJSONSlice([]uint{userID}),
		Preferences: datatypes.NewJSONType(prefs),
		ExpiresAt:   expiry,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logAction(ctx, userID, req.ID, "outing_request_created", map[string]interface{}{
		"date": input.Date,
		"time": input.Time,
	}, ip)

	return req, nil
}

func (s *service) Browse(ctx context.Context, filter BrowseFilter) ([]OutingRequest, error) {
	return s.repo.ListBrowse(ctx, filter, s.now())
}

func (s *service) MyRequests(ctx context.Context, userID uint) ([]OutingRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, id uint) (*OutingRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("outing request not found")
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Leave removes the caller from a request. The creator leaving cancels the
// whole request; anyone else shrinks the member set and the status is
// re-derived from the remaining count.
func (s *service) Leave(ctx context.Context, userID uint, requestID uint, ip string) (*OutingRequest, error) {
	var (
		req       *OutingRequest
		cancelled bool
	)

	for attempt := 0; attempt < casRetries; attempt++ {
		var err error
		req, err = s.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}

		if IsTerminal(req.Status) {
			return nil, apperr.Conflict("outing request is already closed")
		}
		if !req.HasMember(userID) {
			return nil, apperr.Authorization("you are not a member of this outing request")
		}

		if userID == req.CreatorID {
			cancelled = true
			req.Status = StatusCancelled
		} else {
			cancelled = false
			req.RemoveMember(userID)
			req.Status = DeriveStatus(len(req.Members))
		}

		err = s.repo.UpdateMembershipCAS(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		if attempt == casRetries-1 {
			return nil, apperr.Conflict("outing request was modified concurrently, please retry")
		}
	}

	grp, err := s.groups.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if grp != nil {
		// a group that shrinks below quorum is no longer a valid outing
		groupStatus := group.StatusActive
		if cancelled || len(req.Members) < Quorum {
			groupStatus = group.StatusCancelled
		}
		if err := s.groups.SetMembers(ctx, requestID, req.MemberIDs(), groupStatus); err != nil {
			return nil, err
		}
	}

	channelID := requestID
	if grp != nil {
		channelID = grp.ID
	}

	s.notifier.Publish(ctx, channelID, notification.EventMemberLeft, map[string]interface{}{
		"request_id": requestID,
		"user_id":    userID,
		"members":    req.MemberIDs(),
		"status":     req.Status,
	})
	if cancelled {
		s.notifier.Publish(ctx, channelID, notification.EventRequestCancelled, map[string]interface{}{
			"request_id": requestID,
		})
		s.notifier.PushToUsers(ctx, othersOf(req.MemberIDs(), userID),
			"Outing cancelled",
			"The creator cancelled your outing plan",
			map[string]string{"request_id": fmt.Sprint(requestID)})
		s.logAction(ctx, userID, requestID, "outing_request_cancelled", nil, ip)
	} else {
		s.notifier.PushToUsers(ctx, req.MemberIDs(),
			"Member left",
			"A member left your outing group",
			map[string]string{"request_id": fmt.Sprint(requestID)})
		s.logAction(ctx, userID, requestID, "outing_member_left", map[string]interface{}{
			"remaining": len(req.Members),
		}, ip)
	}

	return req, nil
}

func (s *service) logAction(ctx context.Context, userID, requestID uint, action string, details map[string]interface{}, ip string) {
	uid := userID
	rid := requestID
	// auditing never blocks the mutation
	_ = s.audit.LogAction(ctx, &uid, &rid, action, details, ip, "success")
}

// othersOf returns ids minus the excluded user.
func othersOf(ids []uint, exclude uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
