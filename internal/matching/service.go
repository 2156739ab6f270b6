package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/juetgo/outing-management-backend/internal/apperr"
	"github.com/juetgo/outing-management-backend/internal/auditlog"
	"github.com/juetgo/outing-management-backend/internal/auth"
	"github.com/juetgo/outing-management-backend/internal/group"
	"github.com/juetgo/outing-management-backend/internal/notification"
	"github.com/juetgo/outing-management-backend/internal/outing"
)

// matchTimeTolerance is how far apart two requests' preferred times may be
// and still auto-match.
const matchTimeTolerance = 30 // minutes

const casRetries = 3

// Target is the resolved destination of a scoped action: an outing group
// when one exists, otherwise the request itself once it has company.
type Target struct {
	Kind      string `json:"kind"` // "group" or "request"
	ID        uint   `json:"id"`
	RequestID uint   `json:"request_id"`
	Members   []uint `json:"members"`
	Status    string `json:"status"`
}

type AutoMatchResult struct {
	Request *outing.OutingRequest  `json:"request"`
	Joined  []outing.OutingRequest `json:"joined_requests"`
	Group   *group.Group           `json:"group,omitempty"`
}

type Suggestion struct {
	Request     outing.OutingRequest `json:"request"`
	CreatorName string               `json:"creator_name"`
	TimeDelta   int                  `json:"time_delta_minutes"`
}

type Service interface {
	Join(ctx context.Context, userID uint, requestID uint, ip string) (*outing.OutingRequest, *group.Group, error)
	AutoMatch(ctx context.Context, userID uint, ip string) (*AutoMatchResult, error)
	Suggestions(ctx context.Context, userID uint) ([]Suggestion, error)
	ActiveGroup(ctx context.Context, userID uint) (*Target, error)
	ResolveTarget(ctx context.Context, id uint) (*Target, error)
}

type service struct {
	outings   *outing.Repository
	groups    *group.Repository
	users     auth.Repository
	notifier  notification.Notifier
	audit     auditlog.Service
	memberCap int
	now       func() time.Time
}

func NewService(outings *outing.Repository, groups *group.Repository, users auth.Repository, notifier notification.Notifier, audit auditlog.Service, memberCap int) Service {
	return &service{
		outings:   outings,
		groups:    groups,
		users:     users,
		notifier:  notifier,
		audit:     audit,
		memberCap: memberCap,
		now:       time.Now,
	}
}

// ===========================
// Join

// Join adds the caller to another user's request. Crossing quorum
// materializes the outing group; the unique request_id index keeps that
// idempotent under races.
func (s *service) Join(ctx context.Context, userID uint, requestID uint, ip string) (*outing.OutingRequest, *group.Group, error) {
	now := s.now()

	elsewhere, err := s.outings.FindActiveByMember(ctx, userID, now)
	if err != nil {
		return nil, nil, err
	}
	if elsewhere != nil && elsewhere.ID != requestID {
		return nil, nil, apperr.Conflict("you are already part of another active outing request")
	}

	var req *outing.OutingRequest
	for attempt := 0; attempt < casRetries; attempt++ {
		req, err = s.outings.GetByID(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("outing request not found")
		}
		if err != nil {
			return nil, nil, err
		}

		if outing.IsTerminal(req.Status) {
			return nil, nil, apperr.Conflict("outing request is no longer open")
		}
		if !req.ExpiresAt.After(now) {
			return nil, nil, apperr.Policy("outing request has expired")
		}
		if req.CreatorID == userID || req.HasMember(userID) {
			return nil, nil, apperr.Conflict("you have already joined this outing request")
		}

		req.Members = append(req.Members, userID)
		req.Status = outing.DeriveStatus(len(req.Members))

		err = s.outings.UpdateMembershipCAS(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, outing.ErrVersionConflict) {
			return nil, nil, err
		}
		if attempt == casRetries-1 {
			return nil, nil, apperr.Conflict("outing request was modified concurrently, please retry")
		}
	}

	grp, err := s.materializeIfReady(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	channelID := req.ID
	if grp != nil {
		channelID = grp.ID
	}

	s.notifier.Publish(ctx, channelID, notification.EventMemberJoined, map[string]interface{}{
		"request_id": req.ID,
		"user_id":    userID,
		"members":    req.MemberIDs(),
		"status":     req.Status,
	})
	s.notifier.PushToUsers(ctx, othersOf(req.MemberIDs(), userID),
		"New member joined",
		"Someone joined your outing plan",
		map[string]string{"request_id": fmt.Sprint(req.ID)})
	if req.Status == outing.StatusReady && grp != nil {
		s.notifier.Publish(ctx, grp.ID, notification.EventGroupReady, map[string]interface{}{
			"request_id": req.ID,
			"group_id":   grp.ID,
			"members":    req.MemberIDs(),
		})
		s.notifier.PushToUsers(ctx, req.MemberIDs(),
			"Outing group ready",
			"Your outing group is complete, see you at the gate!",
			map[string]string{"group_id": fmt.Sprint(grp.ID)})
	}

	s.logAction(ctx, userID, req.ID, "outing_joined", map[string]interface{}{
		"members": len(req.Members),
		"status":  req.Status,
	}, ip)

	return req, grp, nil
}

// ===========================
// Auto-match

// AutoMatch pairs the caller's request with compatible same-day requests,
// one candidate at a time: the caller joins the candidate's request and the
// candidate's creator joins the caller's. Both requests survive with their
// statuses recomputed; a candidate whose row moved underneath us is simply
// skipped.
func (s *service) AutoMatch(ctx context.Context, userID uint, ip string) (*AutoMatchResult, error) {
	now := s.now()

	mine, err := s.outings.FindActiveByCreator(ctx, userID, outing.MatchableStatuses, now)
	if err != nil {
		return nil, err
	}
	if mine == nil {
		return nil, apperr.NotFound("no matchable outing request found, create one first")
	}

	candidates, err := s.rankedCandidates(ctx, mine, now)
	if err != nil {
		return nil, err
	}

	var joined []outing.OutingRequest
	for i := range candidates {
		if len(mine.Members) >= s.memberCap {
			break
		}
		cand := candidates[i].Request
		if len(cand.Members) >= s.memberCap || cand.HasMember(userID) {
			continue
		}

		cand.Members = append(cand.Members, userID)
		cand.Status = outing.DeriveStatus(len(cand.Members))
		if err := s.outings.UpdateMembershipCAS(ctx, &cand); err != nil {
			if errors.Is(err, outing.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		// mirror the candidate's creator into ours; if that side cannot
		// commit, undo the first so neither request is left half-paired
		if err := s.addMemberCAS(ctx, mine, cand.CreatorID); err != nil {
			s.undoJoin(ctx, cand.ID, userID)
			return nil, err
		}
		joined = append(joined, cand)
	}

	if len(joined) == 0 {
		return nil, apperr.NotFound("no compatible outing requests found right now")
	}

	grp, err := s.materializeIfReady(ctx, mine)
	if err != nil {
		return nil, err
	}

	channelID := mine.ID
	if grp != nil {
		channelID = grp.ID
	}

	joinedIDs := make([]uint, 0, len(joined))
	for i := range joined {
		joinedIDs = append(joinedIDs, joined[i].ID)
	}

	s.notifier.Publish(ctx, channelID, notification.EventMemberJoined, map[string]interface{}{
		"request_id": mine.ID,
		"members":    mine.MemberIDs(),
		"status":     mine.Status,
		"matched":    joinedIDs,
	})
	if mine.Status == outing.StatusReady && grp != nil {
		s.notifier.Publish(ctx, grp.ID, notification.EventGroupReady, map[string]interface{}{
			"request_id": mine.ID,
			"group_id":   grp.ID,
			"members":    mine.MemberIDs(),
		})
	}
	s.notifier.PushToUsers(ctx, mine.MemberIDs(),
		"Matched for an outing",
		"We found you outing buddies for "+mine.Date.Format("Jan 2"),
		map[string]string{"request_id": fmt.Sprint(mine.ID)})

	s.logAction(ctx, userID, mine.ID, "outing_auto_matched", map[string]interface{}{
		"matched": joinedIDs,
		"members": len(mine.Members),
	}, ip)

	return &AutoMatchResult{Request: mine, Joined: joined, Group: grp}, nil
}

// addMemberCAS folds memberID into req, retrying on version conflicts by
// refetching the row and reapplying the addition.
func (s *service) addMemberCAS(ctx context.Context, req *outing.OutingRequest, memberID uint) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		if !req.HasMember(memberID) {
			req.Members = append(req.Members, memberID)
			req.Status = outing.DeriveStatus(len(req.Members))
		}
		err := s.outings.UpdateMembershipCAS(ctx, req)
		if err == nil {
			return nil
		}
		if !errors.Is(err, outing.ErrVersionConflict) {
			return err
		}
		fresh, ferr := s.outings.GetByID(ctx, req.ID)
		if ferr != nil {
			return ferr
		}
		*req = *fresh
	}
	return apperr.Conflict("outing request was modified concurrently, please retry")
}

// undoJoin removes memberID from a request we joined moments ago, best
// effort, so a failed pairing does not strand the caller in two requests.
func (s *service) undoJoin(ctx context.Context, requestID, memberID uint) {
	for attempt := 0; attempt < casRetries; attempt++ {
		req, err := s.outings.GetByID(ctx, requestID)
		if err != nil {
			return
		}
		if !req.RemoveMember(memberID) {
			return
		}
		req.Status = outing.DeriveStatus(len(req.Members))
		if err := s.outings.UpdateMembershipCAS(ctx, req); err == nil || !errors.Is(err, outing.ErrVersionConflict) {
			return
		}
	}
}

// Suggestions returns the same ranked candidate list auto-match would
// consume, without committing anything.
func (s *service) Suggestions(ctx context.Context, userID uint) ([]Suggestion, error) {
	now := s.now()

	mine, err := s.outings.FindActiveByCreator(ctx, userID, outing.MatchableStatuses, now)
	if err != nil {
		return nil, err
	}
	if mine == nil {
		return nil, apperr.NotFound("no matchable outing request found, create one first")
	}

	return s.rankedCandidates(ctx, mine, now)
}

// rankedCandidates filters same-day matchable requests by time proximity
// and year/semester preferences, emptiest first so small requests merge
// before big ones.
func (s *service) rankedCandidates(ctx context.Context, mine *outing.OutingRequest, now time.Time) ([]Suggestion, error) {
	myMinutes, err := outing.ParseClock(mine.Time)
	if err != nil {
		return nil, apperr.Validation("stored outing time is malformed")
	}

	raw, err := s.outings.FindCandidates(ctx, mine.ID, mine.CreatorID, mine.Date, now)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	creatorIDs := make([]uint, 0, len(raw))
	for i := range raw {
		creatorIDs = append(creatorIDs, raw[i].CreatorID)
	}
	creators, err := s.users.GetUsersByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]auth.User, len(creators))
	for _, u := range creators {
		byID[u.ID] = u
	}

	me, err := s.users.GetUserByID(ctx, mine.CreatorID)
	if err != nil {
		return nil, err
	}

	prefs := mine.Preferences.Data()

	var out []Suggestion
	for i := range raw {
		cand := raw[i]

		candMinutes, err := outing.ParseClock(cand.Time)
		if err != nil {
			continue
		}
		delta := candMinutes - myMinutes
		if delta < 0 {
			delta = -delta
		}
		if delta > matchTimeTolerance {
			continue
		}

		creator, ok := byID[cand.CreatorID]
		if !ok {
			continue
		}
		if !prefs.Matches(creator.Year, creator.Semester) {
			continue
		}
		// the candidate's own preferences also have to accept us; a
		// one-sided match would just get abandoned
		if !cand.Preferences.Data().Matches(me.Year, me.Semester) {
			continue
		}

		out = append(out, Suggestion{
			Request:     cand,
			CreatorName: creator.Name,
			TimeDelta:   delta,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Request.Members) != len(out[j].Request.Members) {
			return len(out[i].Request.Members) < len(out[j].Request.Members)
		}
		return out[i].TimeDelta < out[j].TimeDelta
	})

	return out, nil
}

// ===========================
// Target resolution

// ActiveGroup returns the caller's current outing context: the active group
// if one formed, otherwise their request once it has at least one other
// member.
func (s *service) ActiveGroup(ctx context.Context, userID uint) (*Target, error) {
	grp, err := s.groups.FindActiveByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if grp != nil {
		return &Target{
			Kind:      "group",
			ID:        grp.ID,
			RequestID: grp.RequestID,
			Members:   grp.MemberIDs(),
			Status:    grp.Status,
		}, nil
	}

	req, err := s.outings.FindActiveByMember(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if req != nil && len(req.Members) >= 2 {
		return &Target{
			Kind:      "request",
			ID:        req.ID,
			RequestID: req.ID,
			Members:   req.MemberIDs(),
			Status:    req.Status,
		}, nil
	}

	return nil, apperr.NotFound("no active outing group found")
}

// ResolveTarget maps an id to a group or, failing that, a request. Groups
// win because chat and check-in move to the group id once it forms.
func (s *service) ResolveTarget(ctx context.Context, id uint) (*Target, error) {
	grp, err := s.groups.GetByID(ctx, id)
	if err == nil {
		return &Target{
			Kind:      "group",
			ID:        grp.ID,
			RequestID: grp.RequestID,
			Members:   grp.MemberIDs(),
			Status:    grp.Status,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req, err := s.outings.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("no group or outing request with that id")
	}
	if err != nil {
		return nil, err
	}

	return &Target{
		Kind:      "request",
		ID:        req.ID,
		RequestID: req.ID,
		Members:   req.MemberIDs(),
		Status:    req.Status,
	}, nil
}

// ===========================
// helpers

func (s *service) materializeIfReady(ctx context.Context, req *outing.OutingRequest) (*group.Group, error) {
	if req.Status != outing.StatusReady {
		return s.groups.GetByRequestID(ctx, req.ID)
	}

	grp := &group.Group{
		RequestID: req.ID,
		Members:   datatypes.NewJSONSlice(req.MemberIDs()),
		Date:      req.Date,
		Time:      req.Time,
		Status:    group.StatusActive,
	}
	if err := s.groups.Upsert(ctx, grp); err != nil {
		return nil, err
	}
	if grp.ID == 0 {
		// conflict path: the row already existed, fetch it for its id
		return s.groups.GetByRequestID(ctx, req.ID)
	}
	return grp, nil
}

func (s *service) logAction(ctx context.Context, userID, requestID uint, action string, details map[string]interface{}, ip string) {
	uid := userID
	rid := requestID
	_ = s.audit.LogAction(ctx, &uid, &rid, action, details, ip, "success")
}

func othersOf(ids []uint, exclude uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
