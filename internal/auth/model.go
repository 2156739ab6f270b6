package auth

import "time"

// User is the student account the external auth service issues tokens for.
// Registration/OTP live in that service; this table mirrors the profile
// fields matching and notifications need.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	Year      int       `gorm:"index" json:"year"`
	Semester  int       `gorm:"index" json:"semester"`
	PushToken string    `gorm:"type:text" json:"-"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required"`
}
