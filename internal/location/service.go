package location

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/juetgo/outing-management-backend/internal/apperr"
	"github.com/juetgo/outing-management-backend/internal/auditlog"
	"github.com/juetgo/outing-management-backend/internal/matching"
	"github.com/juetgo/outing-management-backend/internal/notification"
	"github.com/juetgo/outing-management-backend/internal/outing"
)

// Gate is the campus gate geofence.
type Gate struct {
	Latitude  float64
	Longitude float64
	Radius    float64 // meters
}

type Service interface {
	CheckIn(ctx context.Context, userID uint, input CheckRequest, ip string) (*GateEvent, error)
	CheckOut(ctx context.Context, userID uint, input CheckRequest, ip string) (*GateEvent, error)
	GateStatus(ctx context.Context, userID uint, targetID uint) (*GateStatusResponse, error)
}

type service struct {
	repo     *Repository
	resolver matching.Service
	notifier notification.Notifier
	audit    auditlog.Service
	gate     Gate
	now      func() time.Time
}

func NewService(repo *Repository, resolver matching.Service, notifier notification.Notifier, audit auditlog.Service, gate Gate) Service {
	return &service{
		repo:     repo,
		resolver: resolver,
		notifier: notifier,
		audit:    audit,
		gate:     gate,
		now:      time.Now,
	}
}

// CheckIn records a gate check-in for a member of a ready outing group. The
// event is stored whether or not the coordinates fall inside the geofence;
// Verified carries the geofence verdict.
func (s *service) CheckIn(ctx context.Context, userID uint, input CheckRequest, ip string) (*GateEvent, error) {
	target, err := s.memberTarget(ctx, userID, input.GroupID)
	if err != nil {
		return nil, err
	}

	if len(target.Members) < outing.Quorum {
		return nil, apperr.Policy("gate check-in opens once your group has at least 3 members")
	}

	event, err := s.record(ctx, userID, target, input, EventCheckin, false)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, target.ID, notification.EventMemberCheckin, map[string]interface{}{
		"user_id":  userID,
		"verified": event.Verified,
		"distance": event.DistanceMeters,
	})
	s.notifier.PushToUsers(ctx, othersOf(target.Members, userID),
		"Gate check-in",
		"A member checked in at the gate",
		map[string]string{"group_id": fmt.Sprint(target.ID)})

	s.logAction(ctx, userID, target.RequestID, "gate_checkin", map[string]interface{}{
		"verified": event.Verified,
		"distance": event.DistanceMeters,
	}, ip)

	return event, nil
}

// CheckOut records the member leaving through the gate. Check-out is always
// marked verified; the gate staff confirm it in person.
func (s *service) CheckOut(ctx context.Context, userID uint, input CheckRequest, ip string) (*GateEvent, error) {
	target, err := s.memberTarget(ctx, userID, input.GroupID)
	if err != nil {
		return nil, err
	}

	event, err := s.record(ctx, userID, target, input, EventCheckout, true)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, target.ID, notification.EventMemberCheckout, map[string]interface{}{
		"user_id": userID,
	})

	s.logAction(ctx, userID, target.RequestID, "gate_checkout", nil, ip)

	return event, nil
}

// GateStatus returns each member's latest gate activity plus the geofence
// the client should draw.
func (s *service) GateStatus(ctx context.Context, userID uint, targetID uint) (*GateStatusResponse, error) {
	target, err := s.memberTarget(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestPerUser(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	members := make([]MemberGateStatus, 0, len(target.Members))
	for _, memberID := range target.Members {
		status := MemberGateStatus{UserID: memberID}
		if event, ok := latest[memberID]; ok {
			e := event
			status.LastEvent = &e
			status.CheckedIn = event.Type == EventCheckin
			status.Verified = event.Verified
		}
		members = append(members, status)
	}

	return &GateStatusResponse{
		TargetID:      target.ID,
		TargetKind:    target.Kind,
		Members:       members,
		GateLatitude:  s.gate.Latitude,
		GateLongitude: s.gate.Longitude,
		GateRadius:    s.gate.Radius,
	}, nil
}

func (s *service) memberTarget(ctx context.Context, userID uint, targetID uint) (*matching.Target, error) {
	target, err := s.resolver.ResolveTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !containsUint(target.Members, userID) {
		return nil, apperr.Authorization("you are not a member of this outing group")
	}
	return target, nil
}

func (s *service) record(ctx context.Context, userID uint, target *matching.Target, input CheckRequest, eventType string, alwaysVerified bool) (*GateEvent, error) {
	lat, lng := *input.Latitude, *input.Longitude
	distance := HaversineMeters(lat, lng, s.gate.Latitude, s.gate.Longitude)
	verified := alwaysVerified || distance <= s.gate.Radius

	event := &GateEvent{
		UserID:         userID,
		TargetID:       target.ID,
		TargetKind:     target.Kind,
		Type:           eventType,
		Latitude:       lat,
		Longitude:      lng,
		Verified:       verified,
		DistanceMeters: math.Round(distance),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
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

func containsUint(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
