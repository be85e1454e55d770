package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"email-service/internal/domain"
)

type EmailSender interface {
	Send(ctx context.Context, email domain.Email) (string, error)
}

type InquiryReader interface {
	GetInquiry(ctx context.Context, id string) (domain.Inquiry, bool, error)
}

type ProcessService struct {
	inquiries InquiryReader
	mailer    EmailSender
	renderer  *NotificationRenderer
	from      string
}

// NewProcessService builds the processor use case. from is the sender
// address; empty means each notification is sent from its recipient.
func NewProcessService(inquiries InquiryReader, mailer EmailSender, renderer *NotificationRenderer, from string) (*ProcessService, error) {
	if inquiries == nil {
		return nil, errors.New("usecase: inquiry reader must not be nil")
	}
	if mailer == nil {
		return nil, errors.New("usecase: email sender must not be nil")
	}
	if renderer == nil {
		return nil, errors.New("usecase: notification renderer must not be nil")
	}
	return &ProcessService{
		inquiries: inquiries,
		mailer:    mailer,
		renderer:  renderer,
		from:      strings.TrimSpace(from),
	}, nil
}

// Process sends the notification for one queued inquiry.
//
// A message whose record is gone was rolled back by intake after a send that
// reported failure but reached the queue; it is rejected without an email.
func (s *ProcessService) Process(ctx context.Context, msg domain.InquiryMessage) error {
	_, found, err := s.inquiries.GetInquiry(ctx, msg.InquiryID)
	if err != nil {
		return newError(ErrorInternal, "dynamodb_read_error", err)
	}
	if !found {
		return newError(ErrorInvalidMessage, "inquiry_not_found", nil)
	}

	email, err := s.renderer.Render(msg, s.from)
	if err != nil {
		return newError(ErrorInvalidMessage, "render_error", err)
	}
	sesID, err := s.mailer.Send(ctx, email)
	if err != nil {
		return newError(ErrorInternal, "ses_send_error", err)
	}
	slog.InfoContext(ctx, "inquiry notification sent", "inquiry_id", msg.InquiryID, "ses_message_id", sesID)
	return nil
}

var validate = validator.New()

// DecodeMessage parses and validates a queue message body.
func DecodeMessage(body string) (domain.InquiryMessage, error) {
	var msg domain.InquiryMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return domain.InquiryMessage{}, newError(ErrorInvalidMessage, "malformed_json", err)
	}
	if err := validate.Struct(msg); err != nil {
		return domain.InquiryMessage{}, newError(ErrorInvalidMessage, "invalid_fields", err)
	}
	return msg, nil
}
