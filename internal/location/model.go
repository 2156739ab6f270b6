package location

import "time"

const (
	EventCheckin  = "checkin"
	EventCheckout = "checkout"
)

// GateEvent is one recorded check-in or check-out at the campus gate.
// Unverified events are stored too; the gate staff UI shows them flagged.
type GateEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_gate_events_target_user" json:"user_id"`
	TargetID       uint      `gorm:"not null;index:idx_gate_events_target_user" json:"target_id"`
	TargetKind     string    `gorm:"type:varchar(10);not null" json:"target_kind"`
	Type           string    `gorm:"type:varchar(10);not null" json:"type"`
	Latitude       float64   `gorm:"not null" json:"latitude"`
	Longitude      float64   `gorm:"not null" json:"longitude"`
	Verified       bool      `gorm:"not null" json:"verified"`
	DistanceMeters float64   `json:"distance_meters"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (GateEvent) TableName() string {
	return "gate_events"
}

// Latitude and longitude are pointers so "required" means present, not
// non-zero; 0.0 is a legitimate coordinate.
type CheckRequest struct {
	GroupID   uint     `json:"group_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// MemberGateStatus is one member's latest gate activity for the status view.
type MemberGateStatus struct {
	UserID    uint       `json:"user_id"`
	CheckedIn bool       `json:"checked_in"`
	Verified  bool       `json:"verified"`
	LastEvent *GateEvent `json:"last_event,omitempty"`
}

type GateStatusResponse struct {
	TargetID      uint               `json:"target_id"`
	TargetKind    string             `json:"target_kind"`
	Members       []MemberGateStatus `json:"members"`
	GateLatitude  float64            `json:"gate_latitude"`
	GateLongitude float64            `json:"gate_longitude"`
	GateRadius    float64            `json:"gate_radius_meters"`
}
