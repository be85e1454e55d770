package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/samber/lo"

	"email-service/internal/domain"
	"email-service/internal/integrations/queue"
	"email-service/internal/usecase"
)

type Processor interface {
	Process(ctx context.Context, msg domain.InquiryMessage) error
}

// QueueHandler adapts SQS batches to the processor use case and reports
// failed records so that only those are redelivered.
type QueueHandler struct {
	uc Processor
}

func NewQueueHandler(uc Processor) (*QueueHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: processor must not be nil")
	}
	return &QueueHandler{uc: uc}, nil
}

func (h *QueueHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var failed []string
	for i, record := range event.Records {
		if ctx.Err() != nil {
			// out of time: hand the rest back to the queue untouched.
			rest := lo.Map(event.Records[i:], func(r events.SQSMessage, _ int) string { return r.MessageId })
			failed = append(failed, rest...)
			slog.WarnContext(ctx, "batch interrupted", "remaining", len(rest), "err", ctx.Err())
			break
		}

		log := slog.With("message_id", record.MessageId, "correlation_id", correlationIDOf(record))

		msg, err := usecase.DecodeMessage(record.Body)
		if err != nil {
			// A malformed message never succeeds; redelivering it only loops.
			log.ErrorContext(ctx, "dropping malformed inquiry message", "err", err)
			continue
		}

		if err := h.uc.Process(ctx, msg); err != nil {
			if !usecase.IsRetryable(err) {
				log.WarnContext(ctx, "dropping inquiry message", "inquiry_id", msg.InquiryID, "err", err)
				continue
			}
			log.ErrorContext(ctx, "inquiry processing failed", "inquiry_id", msg.InquiryID, "err", err)
			failed = append(failed, record.MessageId)
		}
	}

	return events.SQSEventResponse{
		BatchItemFailures: lo.Map(failed, func(id string, _ int) events.SQSBatchItemFailure {
			return events.SQSBatchItemFailure{ItemIdentifier: id}
		}),
	}, nil
}

func correlationIDOf(record events.SQSMessage) string {
	attr, ok := record.MessageAttributes[queue.AttrCorrelationID]
	if !ok || attr.StringValue == nil {
		return ""
	}
	return *attr.StringValue
}
