package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/model"
)

// GmailNotifier sends contact notifications through the Gmail API
type GmailNotifier struct {
	service   *gmail.Service
	userEmail string
	from      string
	to        []string
}

// NewGmailNotifier creates a notifier from OAuth2 refresh-token credentials.
// It returns a Noop notifier with a warning when credentials or recipients
// are missing, so an unconfigured mailer never blocks submissions.
func NewGmailNotifier(cfg *config.MailConfig) (Notifier, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		logrus.Warn("Gmail credentials not set; email notifications disabled")
		return Noop{}, nil
	}
	if cfg.EmailTo == "" {
		logrus.Warn("EMAIL_TO not set; email notifications disabled")
		return Noop{}, nil
	}

	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	to := make([]string, 0)
	for _, addr := range strings.Split(cfg.EmailTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}

	from := cfg.EmailFrom
	if from == "" && len(to) > 0 {
		from = to[0]
	}

	return &GmailNotifier{
		service:   service,
		userEmail: cfg.UserEmail,
		from:      from,
		to:        to,
	}, nil
}

// SendContactNotification builds and sends the notification email with
// retry logic for quota errors
func (n *GmailNotifier) SendContactNotification(ctx context.Context, contactID uint, sub model.Submission) error {
	raw := n.buildNotificationEmail(contactID, sub)
	encodedEmail := base64.URLEncoding.EncodeToString([]byte(raw))

	message := &gmail.Message{
		Raw: encodedEmail,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("notification cancelled: %w", err)
		}

		_, err := n.service.Users.Messages.Send(n.userEmail, message).Context(ctx).Do()
		if err == nil {
			logrus.Infof("Sent contact notification for contact %d", contactID)
			return nil
		}

		lastErr = err
		logrus.Warnf("Failed to send contact notification (attempt %d/%d): %v", attempt, 3, err)

		if strings.Contains(err.Error(), "quota") || strings.Contains(err.Error(), "rate") {
			waitTime := time.Duration(attempt*attempt) * time.Second
			logrus.Infof("Rate limited by Gmail, waiting %v before retry", waitTime)
			time.Sleep(waitTime)
		} else {
			break
		}
	}

	return fmt.Errorf("failed to send contact notification after 3 attempts: %w", lastErr)
}

// buildNotificationEmail renders the RFC 2822 message for a submission
func (n *GmailNotifier) buildNotificationEmail(contactID uint, sub model.Submission) string {
	subject := fmt.Sprintf("New contact form submission (#%d)", contactID)
	if sub.Subject != "" {
		subject = fmt.Sprintf("New contact form submission (#%d): %s", contactID, sub.Subject)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", n.from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(n.to, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString(fmt.Sprintf("Reply-To: %s\r\n", sub.Email))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")

	b.WriteString("New contact form submission\r\n\r\n")
	b.WriteString(fmt.Sprintf("ID: %d\r\n", contactID))
	b.WriteString(fmt.Sprintf("Name: %s\r\n", sub.Name))
	b.WriteString(fmt.Sprintf("Email: %s\r\n", sub.Email))
	if sub.Subject != "" {
		b.WriteString(fmt.Sprintf("Subject: %s\r\n", sub.Subject))
	}
	b.WriteString(fmt.Sprintf("Received: %s\r\n", time.Now().UTC().Format(time.RFC3339)))
	b.WriteString("\r\nMessage:\r\n")
	b.WriteString(sub.Message)
	b.WriteString("\r\n")

	return b.String()
}
