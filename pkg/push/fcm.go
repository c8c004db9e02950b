package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/phamquangminh/mealio/internal/notify"
	"google.golang.org/api/option"
)

// FCMTransport delivers push batches through Firebase Cloud Messaging. It
// implements notify.Transport; a nil transport is valid and reports every
// message as undeliverable, so the server can start without credentials.
type FCMTransport struct {
	client *messaging.Client
}

// NewFCMTransport creates an FCM-backed transport
func NewFCMTransport(credentialsFile string) (*FCMTransport, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &FCMTransport{client: client}, nil
}

// SendBatch sends one push per message and maps FCM responses to per-message
// outcomes in input order. A transport-level error fails the whole batch.
func (t *FCMTransport) SendBatch(ctx context.Context, msgs []notify.Message) ([]notify.SendResult, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("push transport not configured")
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	tokens := make([]string, 0, len(msgs))
	for _, m := range msgs {
		tokens = append(tokens, m.Token)
	}

	// All messages in one engine batch share title/body/data, so a single
	// multicast message covers the chunk.
	first := msgs[0]
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: first.Title,
			Body:  first.Body,
		},
		Data: first.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := t.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	results := make([]notify.SendResult, len(br.Responses))
	for i, resp := range br.Responses {
		if resp.Success {
			results[i] = notify.SendResult{OK: true, ReceiptID: resp.MessageID}
			continue
		}
		results[i] = notify.SendResult{
			Unregistered: messaging.IsUnregistered(resp.Error),
			Err:          resp.Error,
		}
	}
	return results, nil
}
