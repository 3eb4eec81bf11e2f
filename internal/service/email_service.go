package service

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// EmailService sends result notifications to students
type EmailService interface {
	// SendAttemptResult notifies the student about a graded attempt.
	SendAttemptResult(to, quizTitle string, percentage int, passed, pendingManual bool) error
}

// NoopEmailService discards all notifications. Used when email is disabled
// in the configuration.
type NoopEmailService struct{}

// NewNoopEmailService creates a no-op email service
func NewNoopEmailService() *NoopEmailService {
	return &NoopEmailService{}
}

// SendAttemptResult does nothing
func (s *NoopEmailService) SendAttemptResult(to, quizTitle string, percentage int, passed, pendingManual bool) error {
	return nil
}

// ResendEmailService sends notifications through the Resend API
type ResendEmailService struct {
	client *resend.Client
	from   string
}

// NewResendEmailService creates an email service backed by Resend
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	return &ResendEmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}, nil
}

// SendAttemptResult sends the result summary email
func (s *ResendEmailService) SendAttemptResult(to, quizTitle string, percentage int, passed, pendingManual bool) error {
	if to == "" {
		return nil // token carried no email claim
	}

	var outcome string
	switch {
	case pendingManual:
		outcome = "Your result is preliminary: some answers are awaiting manual grading."
	case passed:
		outcome = "Congratulations, you passed!"
	default:
		outcome = "Unfortunately, you did not pass this time."
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: fmt.Sprintf("Your result for %q", quizTitle),
		Html: fmt.Sprintf(
			"<p>You scored <strong>%d%%</strong> on %q.</p><p>%s</p>",
			percentage, quizTitle, outcome,
		),
		Headers: map[string]string{
			// Resend deduplicates retried sends by this key
			"Idempotency-Key": uuid.NewString(),
		},
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send result email: %w", err)
	}
	log.Printf("[EmailService] Result email %s sent to %s", sent.Id, to)
	return nil
}
