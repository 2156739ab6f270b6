package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/juetgo/outing-management-backend/utils"
)

// Notifier is the best-effort fan-out boundary the domain services talk to.
// Both methods commit-then-notify: callers invoke them only after the core
// mutation has been persisted, and neither ever fails the caller.
type Notifier interface {
	// Publish emits a structured event on the real-time channel of the
	// group or request id.
	Publish(ctx context.Context, channelID uint, event string, payload map[string]interface{})

	// PushToUsers enqueues a push notification for each user id; users
	// without a registered device token are silently skipped downstream.
	PushToUsers(ctx context.Context, userIDs []uint, title, body string, data map[string]string)
}

type notifier struct{}

func NewNotifier() Notifier {
	return &notifier{}
}

func (n *notifier) Publish(ctx context.Context, channelID uint, event string, payload map[string]interface{}) {
	if utils.RedisClient == nil {
		return
	}

	body := map[string]interface{}{
		"event":     event,
		"event_id":  uuid.NewString(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		body[k] = v
	}

	raw, err := json.Marshal(body)
	if err != nil {
		log.Printf("⚠️ Failed to marshal %s event: %v", event, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := utils.RedisClient.Publish(ctx, utils.GroupChannel(channelID), raw).Err(); err != nil {
		log.Printf("⚠️ Failed to publish %s to %s: %v", event, utils.GroupChannel(channelID), err)
	}
}

func (n *notifier) PushToUsers(ctx context.Context, userIDs []uint, title, body string, data map[string]string) {
	if len(userIDs) == 0 {
		return
	}

	raw, err := json.Marshal(PushMessage{
		UserIDs: userIDs,
		Title:   title,
		Body:    body,
		Data:    data,
	})
	if err != nil {
		log.Printf("⚠️ Failed to marshal push message: %v", err)
		return
	}

	if err := utils.WriteKafkaMessage(title, raw); err != nil {
		log.Printf("⚠️ Failed to enqueue push notification: %v", err)
	}
}
