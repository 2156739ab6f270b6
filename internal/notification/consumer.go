package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/juetgo/outing-management-backend/internal/auth"
	"github.com/juetgo/outing-management-backend/utils"
)

// StartKafkaConsumer drains the notification topic and dispatches pushes
// over FCM. Delivery is best-effort: failures are logged and the offset is
// committed regardless.
func StartKafkaConsumer(authRepo auth.Repository) {
	reader := utils.NewKafkaReader("outing-push-dispatcher")
	if reader == nil {
		log.Println("⚠️ Kafka not configured, push dispatcher not started")
		return
	}

	fcm := NewFCMChannel()

	go func() {
		ctx := context.Background()
		log.Println("✅ Push dispatcher consuming notification topic")

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				log.Printf("❌ Kafka read error, stopping push dispatcher: %v", err)
				return
			}

			var push PushMessage
			if err := json.Unmarshal(msg.Value, &push); err != nil {
				log.Printf("⚠️ Dropping malformed push message: %v", err)
				continue
			}

			users, err := authRepo.GetUsersByIDs(ctx, push.UserIDs)
			if err != nil {
				log.Printf("⚠️ Failed to resolve push recipients: %v", err)
				continue
			}

			var tokens []string
			for _, u := range users {
				if u.PushToken != "" {
					tokens = append(tokens, u.PushToken)
				}
			}

			if err := fcm.Send(ctx, tokens, push.Title, push.Body, push.Data); err != nil {
				log.Printf("⚠️ Push dispatch failed (%s): %v", push.Title, err)
			}
		}
	}()
}
