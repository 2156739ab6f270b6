package outing

import (
	"time"

	"gorm.io/datatypes"
)

// Request statuses. Terminal states (cancelled, completed) are never
// re-opened.
const (
	StatusPending    = "pending"
	StatusMatched    = "matched"
	StatusReady      = "ready"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Quorum is the member count at which a request becomes a ready outing
// group.
const Quorum = 3

// Preferences narrows auto-match candidates by the candidate creator's
// year/semester. Empty lists match everyone.
type Preferences struct {
	Year     []int `json:"year,omitempty"`
	Semester []int `json:"semester,omitempty"`
}

// Matches reports whether a creator with the given year/semester passes
// these preferences. An empty list places no constraint.
func (p Preferences) Matches(year, semester int) bool {
	if len(p.Year) > 0 && !containsInt(p.Year, year) {
		return false
	}
	if len(p.Semester) > 0 && !containsInt(p.Semester, semester) {
		return false
	}
	return true
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// OutingRequest is the single source of truth for membership and status.
// Members always contains CreatorID. The Version column guards every
// membership/status mutation with compare-and-swap semantics.
type OutingRequest struct {
	ID          uint                            `gorm:"primaryKey" json:"id"`
	CreatorID   uint                            `gorm:"not null;index:idx_outings_creator_status" json:"creator_id"`
	Date        time.Time                       `gorm:"not null;index" json:"date"`
	Time        string                          `gorm:"type:varchar(5);not null" json:"time"` // "15:04"
	Status      string                          `gorm:"type:varchar(20);not null;default:'pending';index:idx_outings_creator_status" json:"status"`
	Members     datatypes.JSONSlice[uint]       `json:"members"`
	Preferences datatypes.JSONType[Preferences] `json:"preferences"`
	ExpiresAt   time.Time                       `gorm:"not null;index" json:"expires_at"`
	Version     int                             `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time                       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutingRequest) TableName() string {
	return "outing_requests"
}

// ActiveStatuses are the states in which a request still holds its members.
var ActiveStatuses = []string{StatusPending, StatusMatched, StatusReady}

// MatchableStatuses are the states auto-match considers on both sides.
var MatchableStatuses = []string{StatusPending, StatusMatched}

// DeriveStatus maps a member count to the matching state, independent of
// join/leave history.
func DeriveStatus(memberCount int) string {
	switch {
	case memberCount >= Quorum:
		return StatusReady
	case memberCount == 2:
		return StatusMatched
	default:
		return StatusPending
	}
}

// IsTerminal reports whether status is immutable.
func IsTerminal(status string) bool {
	return status == StatusCancelled || status == StatusCompleted
}

// HasMember reports whether userID belongs to the request.
func (r *OutingRequest) HasMember(userID uint) bool {
	for _, id := range r.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// RemoveMember drops userID from the member set, returning whether it was
// present.
func (r *OutingRequest) RemoveMember(userID uint) bool {
	for i, id := range r.Members {
		if id == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// MemberIDs returns the member set as a plain slice.
func (r *OutingRequest) MemberIDs() []uint {
	ids := make([]uint, len(r.Members))
	copy(ids, r.Members)
	return ids
}

// ===========================
// Request/response DTOs

type CreateOutingRequest struct {
	Date        string       `json:"date" binding:"required"` // "2006-01-02"
	Time        string       `json:"time" binding:"required"` // "15:04"
	Preferences *Preferences `json:"preferences,omitempty"`
}

type BrowseFilter struct {
	Status     string
	Date       *time.Time
	Year       int
	Semester   int
	ExcludeOwn bool
	UserID     uint
}
