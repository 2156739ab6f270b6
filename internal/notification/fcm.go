package notification

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"

	"github.com/juetgo/outing-management-backend/utils"
)

// FCMChannel sends push notifications through Firebase Cloud Messaging.
type FCMChannel struct {
	client *messaging.Client
}

// NewFCMChannel wraps the shared FCM client. A nil client (Firebase not
// configured) degrades to log-only delivery.
func NewFCMChannel() *FCMChannel {
	return &FCMChannel{client: utils.GetFCMClient()}
}

// Send delivers one notification to every token. Tokens are FCM device
// tokens; subject becomes the notification title.
func (f *FCMChannel) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	if f.client == nil {
		log.Printf("[push] %s: %s (FCM not configured, %d tokens skipped)", title, body, len(tokens))
		return nil
	}

	if len(tokens) == 1 {
		return f.sendSingle(ctx, tokens[0], title, body, data)
	}
	return f.sendMulticast(ctx, tokens, title, body, data)
}

func (f *FCMChannel) sendSingle(ctx context.Context, token, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				ChannelID:    "outing_notifications",
				Priority:     messaging.PriorityHigh,
				DefaultSound: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
	}

	if _, err := f.client.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send FCM message: %v", err)
	}
	return nil
}

func (f *FCMChannel) sendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	// FCM allows max 500 tokens per multicast
	batchSize := 500
	failed := 0

	for i := 0; i < len(tokens); i += batchSize {
		end := i + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		batch := tokens[i:end]
		message := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound:        "default",
					ChannelID:    "outing_notifications",
					Priority:     messaging.PriorityHigh,
					DefaultSound: true,
				},
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Sound: "default",
						Badge: intPtr(1),
					},
				},
			},
		}

		response, err := f.client.SendEachForMulticast(ctx, message)
		if err != nil {
			log.Printf("❌ FCM multicast batch failed: %v", err)
			failed += len(batch)
			continue
		}
		failed += response.FailureCount
	}

	if failed > 0 {
		return fmt.Errorf("failed to send to %d/%d tokens", failed, len(tokens))
	}
	return nil
}

func intPtr(i int) *int {
	return &i
}
