package matching

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
	"github.com/juetgo/outing-management-backend/internal/outing"
)

var dbSeq int64

// fixedNow is a Sunday morning, well before the 19:00 window close.
var fixedNow = time.Date(2026, time.September, 6, 9, 0, 0, 0, time.Local)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:matching%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&auth.User{}, &auditlog.AuditLog{}, &outing.OutingRequest{}, &group.Group{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeNotifier struct {
	events []string
	pushes []string
}

func (f *fakeNotifier) Publish(_ context.Context, _ uint, event string, _ map[string]interface{}) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) PushToUsers(_ context.Context, _ []uint, title, _ string, _ map[string]string) {
	f.pushes = append(f.pushes, title)
}

func (f *fakeNotifier) has(event string) bool {
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, db *gorm.DB) (*service, *fakeNotifier) {
	t.Helper()

	notifier := &fakeNotifier{}
	auditSvc := auditlog.NewService(auditlog.NewRepository(db))

	return &service{
		outings:   outing.NewRepository(db),
		groups:    group.NewRepository(db),
		users:     auth.NewRepository(db),
		notifier:  notifier,
		audit:     auditSvc,
		memberCap: 5,
		now:       func() time.Time { return fixedNow },
	}, notifier
}

func seedUser(t *testing.T, db *gorm.DB, name string, year, semester int) uint {
	t.Helper()

	u := auth.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@test.local", name, atomic.AddInt64(&dbSeq, 1)),
		Year:     year,
		Semester: semester,
		IsActive: true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func seedRequest(t *testing.T, db *gorm.DB, creatorID uint, clock string) *outing.OutingRequest {
	t.Helper()

	date := outing.NormalizeDate(fixedNow)
	req := &outing.OutingRequest{
		CreatorID: creatorID,
		Date:      date,
		Time:      clock,
		Status:    outing.StatusPending,
		Members:   datatypes.NewJSONSlice([]uint{creatorID}),
		ExpiresAt: outing.ExpiryFor(date),
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func TestJoinFormsGroupAtQuorum(t *testing.T) {
	db := newTestDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 2, 4)

	req := seedRequest(t, db, alice, "12:00")

	got, grp, err := svc.Join(ctx, bob, req.ID, "10.0.0.2")
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if got.Status != outing.StatusMatched {
		t.Errorf("after second member status = %s, want %s", got.Status, outing.StatusMatched)
	}
	if grp != nil {
		t.Error("group must not form before quorum")
	}

	got, grp, err = svc.Join(ctx, carol, req.ID, "10.0.0.3")
	if err != nil {
		t.Fatalf("carol join: %v", err)
	}
	if got.Status != outing.StatusReady {
		t.Errorf("after third member status = %s, want %s", got.Status, outing.StatusReady)
	}
	if grp == nil {
		t.Fatal("group must form at quorum")
	}
	if grp.RequestID != req.ID {
		t.Errorf("group request id = %d, want %d", grp.RequestID, req.ID)
	}
	if len(grp.Members) != 3 {
		t.Errorf("group members = %d, want 3", len(grp.Members))
	}

	if !notifier.has("member-joined") || !notifier.has("group-ready") {
		t.Errorf("missing events, got %v", notifier.events)
	}
	if n := len(notifier.events); n < 2 ||
		notifier.events[n-2] != "member-joined" || notifier.events[n-1] != "group-ready" {
		t.Errorf("event order = %v, want member-joined announced before group-ready", notifier.events)
	}
	// the quorum-crossing join itself still announces the member, then the group
	if n := len(notifier.pushes); n < 2 ||
		notifier.pushes[n-2] != "New member joined" || notifier.pushes[n-1] != "Outing group ready" {
		t.Errorf("pushes = %v, want the join push followed by the group-ready push", notifier.pushes)
	}

	var count int64
	db.Model(&group.Group{}).Where("request_id = ?", req.ID).Count(&count)
	if count != 1 {
		t.Errorf("group rows = %d, want exactly 1", count)
	}
}

func TestJoinIsIdempotentPerUser(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	req := seedRequest(t, db, alice, "12:00")

	if _, _, err := svc.Join(ctx, bob, req.ID, ""); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, _, err := svc.Join(ctx, bob, req.ID, "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second join err = %v, want conflict", err)
	}

	fresh, err := outing.NewRepository(db).GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(fresh.Members) != 2 {
		t.Errorf("members = %d, want 2", len(fresh.Members))
	}
}

func TestJoinRejectsMemberOfAnotherRequest(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 3, 5)

	first := seedRequest(t, db, alice, "12:00")
	second := seedRequest(t, db, bob, "12:00")

	if _, _, err := svc.Join(ctx, carol, first.ID, ""); err != nil {
		t.Fatalf("join first: %v", err)
	}

	_, _, err := svc.Join(ctx, carol, second.ID, "")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("join second err = %v, want conflict", err)
	}
}

func TestJoinRejectsExpiredRequest(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)

	req := seedRequest(t, db, alice, "12:00")
	db.Model(req).Update("expires_at", fixedNow.Add(-time.Hour))

	_, _, err := svc.Join(ctx, bob, req.ID, "")
	if !apperr.Is(err, apperr.KindPolicy) {
		t.Errorf("join expired err = %v, want policy", err)
	}
}

func TestAutoMatchPairsCompatibleRequests(t *testing.T) {
	db := newTestDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 2, 4)

	seedRequest(t, db, alice, "12:00")
	theirs := seedRequest(t, db, bob, "12:15")
	far := seedRequest(t, db, carol, "14:00") // outside the 30 minute window

	result, err := svc.AutoMatch(ctx, alice, "")
	if err != nil {
		t.Fatalf("auto-match: %v", err)
	}

	if len(result.Joined) != 1 || result.Joined[0].ID != theirs.ID {
		t.Fatalf("joined = %v, want [%d]", result.Joined, theirs.ID)
	}
	if result.Request.Status != outing.StatusMatched {
		t.Errorf("status = %s, want %s", result.Request.Status, outing.StatusMatched)
	}
	if !result.Request.HasMember(bob) {
		t.Error("bob must be mirrored into the caller's request")
	}

	// the candidate's request survives with alice added, never cancelled
	repo := outing.NewRepository(db)
	paired, _ := repo.GetByID(ctx, theirs.ID)
	if paired.Status != outing.StatusMatched {
		t.Errorf("paired request status = %s, want %s", paired.Status, outing.StatusMatched)
	}
	if !paired.HasMember(alice) {
		t.Errorf("paired request members = %v, want alice added", paired.MemberIDs())
	}
	if paired.CreatorID != bob {
		t.Errorf("paired request creator = %d, want %d", paired.CreatorID, bob)
	}

	untouched, _ := repo.GetByID(ctx, far.ID)
	if untouched.Status != outing.StatusPending {
		t.Errorf("distant request status = %s, want untouched", untouched.Status)
	}
	if !notifier.has("member-joined") {
		t.Errorf("missing member-joined event, got %v", notifier.events)
	}
}

func TestAutoMatchSkipsFullCandidates(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)

	seedRequest(t, db, alice, "12:00")
	full := seedRequest(t, db, bob, "12:10")
	db.Model(full).Update("members", datatypes.NewJSONSlice([]uint{bob, 90, 91, 92, 93}))

	_, err := svc.AutoMatch(ctx, alice, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("auto-match err = %v, want not_found (full candidate skipped)", err)
	}

	fresh, _ := outing.NewRepository(db).GetByID(ctx, full.ID)
	if fresh.HasMember(alice) {
		t.Errorf("full request members = %v, alice must not be added", fresh.MemberIDs())
	}
}

func TestAutoMatchReachesQuorumAndFormsGroup(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 3, 5)

	seedRequest(t, db, alice, "12:00")
	seedRequest(t, db, bob, "12:10")
	seedRequest(t, db, carol, "12:20")

	result, err := svc.AutoMatch(ctx, alice, "")
	if err != nil {
		t.Fatalf("auto-match: %v", err)
	}

	if result.Request.Status != outing.StatusReady {
		t.Errorf("status = %s, want %s", result.Request.Status, outing.StatusReady)
	}
	if result.Group == nil {
		t.Fatal("quorum reached, group must be materialized")
	}
	if len(result.Group.Members) != 3 {
		t.Errorf("group members = %d, want 3", len(result.Group.Members))
	}

	// both paired requests survive with alice mirrored in
	repo := outing.NewRepository(db)
	for _, j := range result.Joined {
		fresh, err := repo.GetByID(ctx, j.ID)
		if err != nil {
			t.Fatalf("refetch %d: %v", j.ID, err)
		}
		if fresh.Status != outing.StatusMatched {
			t.Errorf("request %d status = %s, want %s", j.ID, fresh.Status, outing.StatusMatched)
		}
		if !fresh.HasMember(alice) {
			t.Errorf("request %d members = %v, want alice added", j.ID, fresh.MemberIDs())
		}
	}
}

func TestAutoMatchHonorsPreferences(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	junior := seedUser(t, db, "junior", 1, 1)

	mine := seedRequest(t, db, alice, "12:00")
	db.Model(mine).Update("preferences", datatypes.NewJSONType(outing.Preferences{Year: []int{3}}))
	seedRequest(t, db, junior, "12:00")

	_, err := svc.AutoMatch(ctx, alice, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("auto-match err = %v, want not_found (junior filtered out)", err)
	}
}

func TestSuggestionsRankEmptiestFirst(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 3, 5)
	dave := seedUser(t, db, "dave", 3, 5)

	seedRequest(t, db, alice, "12:00")
	crowded := seedRequest(t, db, bob, "12:00")
	if _, _, err := svc.Join(ctx, dave, crowded.ID, ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	solo := seedRequest(t, db, carol, "12:05")

	suggestions, err := svc.Suggestions(ctx, alice)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(suggestions))
	}
	if suggestions[0].Request.ID != solo.ID {
		t.Errorf("first suggestion = %d, want the smaller request %d", suggestions[0].Request.ID, solo.ID)
	}
}

func TestActiveGroupResolution(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	bob := seedUser(t, db, "bob", 3, 5)
	carol := seedUser(t, db, "carol", 3, 5)

	req := seedRequest(t, db, alice, "12:00")

	if _, err := svc.ActiveGroup(ctx, alice); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("solo creator err = %v, want not_found", err)
	}

	if _, _, err := svc.Join(ctx, bob, req.ID, ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	target, err := svc.ActiveGroup(ctx, alice)
	if err != nil {
		t.Fatalf("active group at two members: %v", err)
	}
	if target.Kind != "request" {
		t.Errorf("kind = %s, want request before quorum", target.Kind)
	}

	if _, _, err := svc.Join(ctx, carol, req.ID, ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	target, err = svc.ActiveGroup(ctx, bob)
	if err != nil {
		t.Fatalf("active group at quorum: %v", err)
	}
	if target.Kind != "group" {
		t.Errorf("kind = %s, want group after quorum", target.Kind)
	}
	if target.RequestID != req.ID {
		t.Errorf("target request id = %d, want %d", target.RequestID, req.ID)
	}
}

func TestResolveTargetPrefersGroup(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", 3, 5)
	req := seedRequest(t, db, alice, "12:00")

	target, err := svc.ResolveTarget(ctx, req.ID)
	if err != nil {
		t.Fatalf("resolve request: %v", err)
	}
	if target.Kind != "request" || target.ID != req.ID {
		t.Errorf("resolved %s/%d, want request/%d", target.Kind, target.ID, req.ID)
	}

	if _, err := svc.ResolveTarget(ctx, 9999); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown id err = %v, want not_found", err)
	}
}
