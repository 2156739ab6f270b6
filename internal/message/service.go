package message

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juetgo/outing-management-backend/internal/apperr"
	"github.com/juetgo/outing-management-backend/internal/matching"
	"github.com/juetgo/outing-management-backend/internal/notification"
)

type Service interface {
	Send(ctx context.Context, userID uint, input SendMessageRequest) (*Message, error)
	List(ctx context.Context, userID uint, targetID uint) ([]Message, error)
}

type service struct {
	repo     *Repository
	resolver matching.Service
	notifier notification.Notifier
	now      func() time.Time
}

func NewService(repo *Repository, resolver matching.Service, notifier notification.Notifier) Service {
	return &service{
		repo:     repo,
		resolver: resolver,
		notifier: notifier,
		now:      time.Now,
	}
}

// Send appends a chat message and fans it out to the other members. Chat
// opens as soon as a request has a second member; it does not wait for the
// full group.
func (s *service) Send(ctx context.Context, userID uint, input SendMessageRequest) (*Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperr.Validation("message content cannot be empty")
	}

	target, err := s.memberTarget(ctx, userID, input.GroupID)
	if err != nil {
		return nil, err
	}
	if len(target.Members) < 2 {
		return nil, apperr.Policy("chat opens once someone joins your outing request")
	}

	msg := &Message{
		TargetID:   target.ID,
		TargetKind: target.Kind,
		SenderID:   userID,
		Content:    content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, target.ID, notification.EventNewMessage, map[string]interface{}{
		"message_id": msg.ID,
		"sender_id":  userID,
		"content":    content,
	})
	s.notifier.PushToUsers(ctx, othersOf(target.Members, userID),
		"New message",
		truncate(content, 80),
		map[string]string{"group_id": fmt.Sprint(target.ID)})

	return msg, nil
}

func (s *service) List(ctx context.Context, userID uint, targetID uint) ([]Message, error) {
	target, err := s.memberTarget(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTarget(ctx, target.ID)
}

func (s *service) memberTarget(ctx context.Context, userID uint, targetID uint) (*matching.Target, error) {
	target, err := s.resolver.ResolveTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	for _, id := range target.Members {
		if id == userID {
			return target, nil
		}
	}
	return nil, apperr.Authorization("you are not a member of this outing group")
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

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
