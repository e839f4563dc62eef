package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/model"
	"inovacode-contact-api/internal/notify"
	"inovacode-contact-api/internal/repository"
)

// Confirmation message returned to the submitter, independent of whether the
// notification email goes out
const confirmationMessage = "Mensagem enviada com sucesso! Entraremos em contato em breve."

// Receipt is the synchronous result of an accepted submission
type Receipt struct {
	ID        uint
	Message   string
	Timestamp time.Time
}

// ContactService persists validated submissions and dispatches notification
// emails. The persistence write completes before Submit returns; the
// notification is detached and its outcome never reaches the caller.
type ContactService struct {
	repo          repository.ContactRepository
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	notifyTimeout time.Duration
}

// NewContactService creates a contact service
func NewContactService(repo repository.ContactRepository, notifier notify.Notifier, m *metrics.Metrics, notifyTimeout time.Duration) *ContactService {
	if notifyTimeout <= 0 {
		notifyTimeout = 15 * time.Second
	}
	return &ContactService{
		repo:          repo,
		notifier:      notifier,
		metrics:       m,
		notifyTimeout: notifyTimeout,
	}
}

// Submit inserts the contact record and fires the notification. The record
// exists before the receipt is produced; repository.ErrDuplicate passes
// through unwrapped so the handler can answer 400 instead of 500.
func (s *ContactService) Submit(ctx context.Context, sub model.Submission) (*Receipt, error) {
	contact := &model.Contact{
		Name:    sub.Name,
		Email:   sub.Email,
		Message: sub.Message,
		Status:  model.StatusPending,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.Duplicates.Inc()
			return nil, err
		}
		return nil, fmt.Errorf("persisting contact: %w", err)
	}

	s.metrics.Submissions.Inc()
	s.dispatchNotification(contact.ID, sub)

	return &Receipt{
		ID:        contact.ID,
		Message:   confirmationMessage,
		Timestamp: contact.CreatedAt,
	}, nil
}

// dispatchNotification sends the notification email on a detached goroutine.
// It runs under its own timeout, not the request's, so a slow or failing
// mail provider cannot delay or change the submitter's response.
func (s *ContactService) dispatchNotification(contactID uint, sub model.Submission) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.SendContactNotification(ctx, contactID, sub); err != nil {
			s.metrics.NotifyFailures.Inc()
			logrus.Errorf("Failed to send notification for contact %d: %v", contactID, err)
			return
		}
		s.metrics.NotifySuccesses.Inc()
	}()
}

// List returns stored contacts for the admin listing
func (s *ContactService) List(ctx context.Context, opts model.ListOptions) ([]model.Contact, error) {
	return s.repo.List(ctx, opts)
}

// UpdateStatus transitions a contact between pending, read and archived
func (s *ContactService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("unknown contact status %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
