package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"email-service/internal/domain"
)

// reservedFields are owned by the service and dropped from submissions.
var reservedFields = []string{"id"}

// cleanupTimeout bounds the compensating delete after a failed enqueue.
const cleanupTimeout = 3 * time.Second

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type InquiryStore interface {
	PutInquiry(ctx context.Context, inq domain.Inquiry) error
	DeleteInquiry(ctx context.Context, id string) error
}

type MessageSender interface {
	Send(ctx context.Context, msg domain.InquiryMessage, correlationID string) (string, error)
}

// SubmitConfig carries the recipient settings for new inquiries.
// AdminEmailParameter, when set, names an SSM parameter that overrides AdminEmail.
type SubmitConfig struct {
	AdminEmail          string
	AdminEmailParameter string
}

type SubmitService struct {
	store  InquiryStore
	sender MessageSender
	params ParamGetter

	adminEmail          string
	adminEmailParameter string
}

type SubmitInput struct {
	Fields        map[string]any
	Source        string
	CorrelationID string
}

type SubmitOutput struct {
	ID        string
	MessageID string
}

// NewSubmitService builds the intake use case. params may be nil when no
// recipient parameter is configured.
func NewSubmitService(store InquiryStore, sender MessageSender, params ParamGetter, cfg SubmitConfig) (*SubmitService, error) {
	if store == nil {
		return nil, errors.New("usecase: inquiry store must not be nil")
	}
	if sender == nil {
		return nil, errors.New("usecase: message sender must not be nil")
	}
	adminEmail := strings.TrimSpace(cfg.AdminEmail)
	if adminEmail == "" {
		return nil, errors.New("usecase: admin email must not be empty")
	}
	param := strings.TrimSpace(cfg.AdminEmailParameter)
	if param != "" && params == nil {
		return nil, errors.New("usecase: param getter must not be nil when an admin email parameter is set")
	}
	return &SubmitService{
		store:               store,
		sender:              sender,
		params:              params,
		adminEmail:          adminEmail,
		adminEmailParameter: param,
	}, nil
}

// Submit records a new inquiry and schedules it for processing.
//
// The record is written before the message is sent. If sending fails the
// record is deleted again so that no stored inquiry lacks a processing
// message.
func (s *SubmitService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	fields := lo.OmitByKeys(in.Fields, reservedFields)
	if len(fields) == 0 {
		return SubmitOutput{}, newError(ErrorInvalidInput, "empty_inquiry", nil)
	}
	for k := range fields {
		if strings.TrimSpace(k) == "" {
			return SubmitOutput{}, newError(ErrorInvalidInput, "empty_field_name", nil)
		}
	}

	recipient := s.recipient(ctx)
	log := slog.With("correlation_id", in.CorrelationID)

	inq := domain.Inquiry{
		ID:        newUUID(),
		CreatedAt: now().UTC(),
		Fields:    fields,
		Source:    strings.TrimSpace(in.Source),
	}
	if err := s.store.PutInquiry(ctx, inq); err != nil {
		return SubmitOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}

	msgID, err := s.sender.Send(ctx, domain.InquiryMessage{
		InquiryID:   inq.ID,
		Recipient:   recipient,
		SubmittedAt: inq.CreatedAt,
		Fields:      fields,
	}, in.CorrelationID)
	if err != nil {
		// the request context is often already expired when the send gave up.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		delErr := s.store.DeleteInquiry(cleanupCtx, inq.ID)
		cancel()
		if delErr != nil {
			log.ErrorContext(ctx, "orphaned inquiry record after enqueue failure",
				"inquiry_id", inq.ID, "err", delErr)
		}
		return SubmitOutput{}, newError(ErrorInternal, "queue_send_error", err)
	}

	log.InfoContext(ctx, "inquiry accepted", "inquiry_id", inq.ID, "message_id", msgID)
	return SubmitOutput{ID: inq.ID, MessageID: msgID}, nil
}

// recipient returns the parameter value when configured and readable, and the
// static admin email otherwise.
func (s *SubmitService) recipient(ctx context.Context) string {
	if s.adminEmailParameter == "" {
		return s.adminEmail
	}
	v, err := s.params.GetParameter(ctx, s.adminEmailParameter)
	if err != nil || strings.TrimSpace(v) == "" {
		slog.WarnContext(ctx, "admin email parameter unavailable, using static address",
			"parameter", s.adminEmailParameter, "err", err)
		return s.adminEmail
	}
	return strings.TrimSpace(v)
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = time.Now
