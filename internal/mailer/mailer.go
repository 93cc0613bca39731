package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"

	"github.com/resend/resend-go/v2"
)

const restaurantName = "Maki Express Ramen House"

// Service sends transactional email through Resend. It satisfies
// notification.EmailSender, so all sends flow through the outbox dispatcher.
type Service struct {
	client *resend.Client
	from   string
}

func NewService(apiKey, from string) *Service {
	return &Service{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *Service) Send(ctx context.Context, event, recipient string, payload []byte) error {
	if recipient == "" {
		return errors.New("missing recipient")
	}

	subject, html, err := Render(event, payload)
	if err != nil {
		return err
	}

	_, err = s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", restaurantName, s.from),
		To:      []string{recipient},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// Render produces the subject and HTML body for an outbox event.
func Render(event string, payload []byte) (subject, html string, err error) {
	switch event {
	case notification.EventOrderConfirmation:
		var d ConfirmationData
		if err := json.Unmarshal(payload, &d); err != nil {
			return "", "", err
		}
		html, err := renderConfirmation(&d)
		return d.subject(), html, err

	case notification.EventStatusUpdate:
		var d StatusUpdateData
		if err := json.Unmarshal(payload, &d); err != nil {
			return "", "", err
		}
		html, err := renderStatusUpdate(&d)
		return d.subject(), html, err

	case notification.EventItemSwap,
		notification.EventVariantSwap,
		notification.EventItemRemoved,
		notification.EventOrderCancelled,
		notification.EventPaymentRequired:
		var d SubstitutionData
		if err := json.Unmarshal(payload, &d); err != nil {
			return "", "", err
		}
		d.Type = event
		html, err := renderSubstitution(&d)
		return d.subject(), html, err

	default:
		return "", "", fmt.Errorf("unknown email event: %s", event)
	}
}
