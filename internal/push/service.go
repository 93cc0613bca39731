package push

import (
	"context"
	"fmt"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPIDKeys identifies this server to the browser push services.
type VAPIDKeys struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

// Service broadcasts Web Push payloads to every stored subscription. It
// satisfies notification.PushSender.
type Service struct {
	repo Repository
	keys VAPIDKeys
}

func NewService(repo Repository, keys VAPIDKeys) *Service {
	return &Service{repo: repo, keys: keys}
}

func (s *Service) Subscribe(ctx context.Context, sub *Subscription, userID, userAgent string) error {
	if sub == nil || sub.Endpoint == "" {
		return fmt.Errorf("subscription endpoint is required")
	}
	return s.repo.Upsert(ctx, sub, userID, userAgent)
}

// Broadcast sends the payload to every subscription. Gone subscriptions
// (404/410 from the push service) are pruned; other failures are logged and
// skipped so one bad endpoint cannot block the rest.
func (s *Service) Broadcast(ctx context.Context, payload []byte) error {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256dh,
				Auth:   sub.Keys.Auth,
			},
		}, &webpush.Options{
			Subscriber:      s.keys.Subject,
			VAPIDPublicKey:  s.keys.PublicKey,
			VAPIDPrivateKey: s.keys.PrivateKey,
			TTL:             86400,
		})
		if err != nil {
			log.Printf("Push to %s failed: %v", sub.Endpoint, err)
			continue
		}

		if resp.StatusCode == 404 || resp.StatusCode == 410 {
			if err := s.repo.Delete(ctx, sub.Endpoint); err != nil {
				log.Printf("Failed to prune dead subscription %s: %v", sub.Endpoint, err)
			}
		}
		resp.Body.Close()
	}

	return nil
}
