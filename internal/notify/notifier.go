package notify

import (
	"context"

	"inovacode-contact-api/internal/model"
)

// Notifier delivers the notification email for an accepted contact. Its
// outcome is logged and counted but never surfaced to the submitter; a
// failed notification does not undo or retry the persisted record.
type Notifier interface {
	SendContactNotification(ctx context.Context, contactID uint, sub model.Submission) error
}

// Noop is used when mail credentials or recipients are not configured
type Noop struct{}

// SendContactNotification does nothing
func (Noop) SendContactNotification(context.Context, uint, model.Submission) error {
	return nil
}
