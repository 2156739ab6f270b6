package message

import "time"

// Message is a chat line scoped to an outing group (or a pre-quorum request
// once it has company). Messages are append-only.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TargetID   uint      `gorm:"not null;index" json:"target_id"`
	TargetKind string    `gorm:"type:varchar(10);not null" json:"target_kind"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

type SendMessageRequest struct {
	GroupID uint   `json:"group_id" binding:"required"`
	Content string `json:"content" binding:"required,max=1000"`
}
