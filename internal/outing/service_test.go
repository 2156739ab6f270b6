package outing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/juetgo/outing-management-backend/internal/apperr"
	"github.com/juetgo/outing-management-backend/internal/auditlog"
	"github.com/juetgo/outing-management-backend/internal/auth"
	"github.com/juetgo/outing-management-backend/internal/group"
)

var dbSeq int64

// fixedNow is a Sunday morning inside the request lifecycle window.
var fixedNow = time.Date(2026, time.September, 6, 9, 0, 0, 0, time.Local)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:outing%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&auth.User{}, &auditlog.AuditLog{}, &OutingRequest{}, &group.Group{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type noopNotifier struct {
	events []string
}

func (n *noopNotifier) Publish(_ context.Context, _ uint, event string, _ map[string]interface{}) {
	n.events = append(n.events, event)
}

func (n *noopNotifier) PushToUsers(_ context.Context, _ []uint, _, _ string, _ map[string]string) {}

func newTestService(t *testing.T, db *gorm.DB) (*service, *noopNotifier) {
	t.Helper()

	notifier := &noopNotifier{}
	return &service{
		repo:     NewRepository(db),
		groups:   group.NewRepository(db),
		notifier: notifier,
		audit:    auditlog.NewService(auditlog.NewRepository(db)),
		now:      func() time.Time { return fixedNow },
	}, notifier
}

func TestCreateOutingRequest(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	req, err := svc.Create(ctx, 1, CreateOutingRequest{Date: "2026-09-06", Time: "12:00"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if req.Status != StatusPending {
		t.Errorf("status = %s, want %s", req.Status, StatusPending)
	}
	if len(req.Members) != 1 || req.Members[0] != 1 {
		t.Errorf("members = %v, want [1]", req.Members)
	}
	if req.ExpiresAt.Hour() != 19 {
		t.Errorf("expiry hour = %d, want 19", req.ExpiresAt.Hour())
	}
}

func TestCreateRejections(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateOutingRequest
		kind  apperr.Kind
	}{
		{"bad date", CreateOutingRequest{Date: "06-09-2026", Time: "12:00"}, apperr.KindValidation},
		{"past date", CreateOutingRequest{Date: "2026-09-01", Time: "17:30"}, apperr.KindValidation},
		{"outside window", CreateOutingRequest{Date: "2026-09-08", Time: "09:00"}, apperr.KindPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tt.input, "")
			if !apperr.Is(err, tt.kind) {
				t.Errorf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestCreateRejectsSecondActiveRequest(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, CreateOutingRequest{Date: "2026-09-06", Time: "12:00"}, ""); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, 1, CreateOutingRequest{Date: "2026-09-06", Time: "14:00"}, "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second create err = %v, want conflict", err)
	}
}

func TestLeaveRecomputesStatus(t *testing.T) {
	db := newTestDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()

	req := &OutingRequest{
		CreatorID: 1,
		Date:      NormalizeDate(fixedNow),
		Time:      "12:00",
		Status:    StatusReady,
		Members:   datatypes.NewJSONSlice([]uint{1, 2, 3}),
		ExpiresAt: ExpiryFor(fixedNow),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.Leave(ctx, 3, req.ID, "")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got.Status != StatusMatched {
		t.Errorf("status after one leave = %s, want %s", got.Status, StatusMatched)
	}
	if got.HasMember(3) {
		t.Error("leaver must be removed from members")
	}

	got, err = svc.Leave(ctx, 2, req.ID, "")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("sole remaining creator status = %s, want %s", got.Status, StatusPending)
	}

	for _, e := range notifier.events {
		if e != "member-left" {
			t.Errorf("unexpected event %s", e)
		}
	}
}

func TestCreatorLeaveCancelsRequestAndGroup(t *testing.T) {
	db := newTestDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()

	req := &OutingRequest{
		CreatorID: 1,
		Date:      NormalizeDate(fixedNow),
		Time:      "12:00",
		Status:    StatusReady,
		Members:   datatypes.NewJSONSlice([]uint{1, 2, 3}),
		ExpiresAt: ExpiryFor(fixedNow),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	grp := &group.Group{
		RequestID: req.ID,
		Members:   datatypes.NewJSONSlice([]uint{1, 2, 3}),
		Status:    group.StatusActive,
	}
	if err := db.Create(grp).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}

	got, err := svc.Leave(ctx, 1, req.ID, "")
	if err != nil {
		t.Fatalf("creator leave: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("request status = %s, want %s", got.Status, StatusCancelled)
	}

	var mirrored group.Group
	if err := db.First(&mirrored, grp.ID).Error; err != nil {
		t.Fatalf("refetch group: %v", err)
	}
	if mirrored.Status != group.StatusCancelled {
		t.Errorf("group status = %s, want %s", mirrored.Status, group.StatusCancelled)
	}

	// subscribers get the departure itself plus the cancellation
	var left, cancelled bool
	for _, e := range notifier.events {
		switch e {
		case "member-left":
			left = true
		case "request-cancelled":
			cancelled = true
		}
	}
	if !left {
		t.Errorf("missing member-left event, got %v", notifier.events)
	}
	if !cancelled {
		t.Errorf("missing request-cancelled event, got %v", notifier.events)
	}

	// terminal request rejects further leaves
	if _, err := svc.Leave(ctx, 2, req.ID, ""); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("leave after cancel err = %v, want conflict", err)
	}
}

func TestMemberLeaveBelowQuorumCancelsGroup(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	req := &OutingRequest{
		CreatorID: 1,
		Date:      NormalizeDate(fixedNow),
		Time:      "12:00",
		Status:    StatusReady,
		Members:   datatypes.NewJSONSlice([]uint{1, 2, 3}),
		ExpiresAt: ExpiryFor(fixedNow),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	grp := &group.Group{
		RequestID: req.ID,
		Members:   datatypes.NewJSONSlice([]uint{1, 2, 3}),
		Status:    group.StatusActive,
	}
	if err := db.Create(grp).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}

	got, err := svc.Leave(ctx, 3, req.ID, "")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got.Status != StatusMatched {
		t.Errorf("request status = %s, want %s", got.Status, StatusMatched)
	}

	var mirrored group.Group
	if err := db.First(&mirrored, grp.ID).Error; err != nil {
		t.Fatalf("refetch group: %v", err)
	}
	if mirrored.Status != group.StatusCancelled {
		t.Errorf("group below quorum status = %s, want %s", mirrored.Status, group.StatusCancelled)
	}
	if len(mirrored.Members) != 2 {
		t.Errorf("group members = %d, want 2", len(mirrored.Members))
	}
}

func TestLeaveRejectsNonMember(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	req := &OutingRequest{
		CreatorID: 1,
		Date:      NormalizeDate(fixedNow),
		Time:      "12:00",
		Status:    StatusPending,
		Members:   datatypes.NewJSONSlice([]uint{1}),
		ExpiresAt: ExpiryFor(fixedNow),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Leave(ctx, 42, req.ID, ""); !apperr.Is(err, apperr.KindAuthorization) {
		t.Errorf("err = %v, want authorization", err)
	}
}
