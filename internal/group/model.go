package group

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Group is the materialized outing group, created once when its request
// reaches quorum and kept in sync with the request's member set afterwards.
// RequestID carries a unique index so concurrent quorum-crossers converge
// on a single row.
type Group struct {
	ID        uint                      `gorm:"primaryKey" json:"id"`
	RequestID uint                      `gorm:"not null;uniqueIndex" json:"request_id"`
	Members   datatypes.JSONSlice[uint] `json:"members"`
	Date      time.Time                 `gorm:"index" json:"date"`
	Time      string                    `gorm:"type:varchar(5)" json:"time"`
	Status    string                    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Version   int                       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID uint) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member set as a plain slice.
func (g *Group) MemberIDs() []uint {
	ids := make([]uint, len(g.Members))
	copy(ids, g.Members)
	return ids
}
