package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Email notification types understood by the downstream mailer.
const (
	emailTypeVerify     = "verify_email"
	emailTypeChangeTask = "change_task"
)

// Transport is the opaque outbound publish capability. Production wiring
// uses NATS (internal/platform/natspub); tests use an in-memory transport.
type Transport interface {
	Publish(ctx context.Context, payload []byte) error
}

// emailMessage is the payload shape the downstream mailer consumes.
type emailMessage struct {
	TypeNotification string          `json:"type_notification"`
	ToAddress        string          `json:"to_address"`
	Subject          json.RawMessage `json:"subject,omitempty"`
}

// EmailObserver delivers mutation notifications as email requests over
// the outbound transport: one message per contact point.
type EmailObserver struct {
	transport Transport
	logger    *slog.Logger
}

// NewEmailObserver creates an EmailObserver publishing through the given transport.
func NewEmailObserver(transport Transport, logger *slog.Logger) *EmailObserver {
	return &EmailObserver{
		transport: transport,
		logger:    logger.With("component", "email_observer"),
	}
}

// Ensure EmailObserver implements Observer
var _ Observer = (*EmailObserver)(nil)

// Name implements Observer.
func (o *EmailObserver) Name() string { return "email" }

// Notify implements Observer. A user create event produces a verify-email
// message; task events produce change-task messages. Events with no
// contact points are valid no-ops.
func (o *EmailObserver) Notify(ctx context.Context, event Event) error {
	typeNotification := emailTypeChangeTask
	if event.Entity == EntityUser {
		typeNotification = emailTypeVerify
	}

	for _, address := range event.ContactPoints {
		msg := emailMessage{
			TypeNotification: typeNotification,
			ToAddress:        address,
			Subject:          event.Subject,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode email message: %w", err)
		}
		if err := o.transport.Publish(ctx, payload); err != nil {
			return fmt.Errorf("failed to publish email message: %w", err)
		}
		o.logger.Debug("published email notification",
			"type", typeNotification,
			"event_id", event.ID)
	}

	return nil
}
