package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"email-service/internal/usecase"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	defaultMaxBodyBytes = 16 << 10
	statusQueued        = "queued"
	errMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type Submitter interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler adapts API Gateway proxy requests for POST /inquiries to the intake use case.
type Handler struct {
	uc           Submitter
	maxBodyBytes int
}

type Option func(*Handler)

// WithMaxBodyBytes caps the accepted request body size. Non-positive values keep the default.
func WithMaxBodyBytes(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHandler(uc Submitter, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: submitter must not be nil")
	}
	h := &Handler{uc: uc, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, headerCorrelationID)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := slog.With("correlation_id", correlationID)

	if req.HTTPMethod != http.MethodPost {
		resp := jsonResponse(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: errMethodNotAllowed})
		resp.Headers["Allow"] = http.MethodPost
		return resp, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return invalidInput(correlationID, "invalid_base64"), nil
		}
		body = decoded
	}
	if len(body) > h.maxBodyBytes {
		return invalidInput(correlationID, "body_too_large"), nil
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return invalidInput(correlationID, "invalid_json_object"), nil
	}

	out, err := h.uc.Submit(ctx, usecase.SubmitInput{
		Fields:        fields,
		Source:        req.RequestContext.Identity.SourceIP,
		CorrelationID: correlationID,
	})
	if err != nil {
		status, resp := errorToResponse(err)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "inquiry submission failed", "err", err)
		}
		return jsonResponse(status, correlationID, resp), nil
	}

	return jsonResponse(http.StatusCreated, correlationID, submitResponse{ID: out.ID, Status: statusQueued}), nil
}

func errorToResponse(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	default:
		// internal reasons name backing services and stay in the logs only.
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
}

func invalidInput(correlationID, reason string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
		Error:  string(usecase.ErrorInvalidInput),
		Reason: reason,
	})
}

func jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerCorrelationID: correlationID,
		},
		Body: string(buf),
	}
}

// headerValue looks up name case-insensitively; API Gateway passes headers as sent.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
