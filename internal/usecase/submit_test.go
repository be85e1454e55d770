package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"email-service/internal/domain"
)

type mockStore struct {
	putErr    error
	deleteErr error
	put       []domain.Inquiry
	deleted   []string

	// deleteHonorsContext makes DeleteInquiry fail like the SDK does on a done context.
	deleteHonorsContext bool
	lastDeleteErr       error
}

func (m *mockStore) PutInquiry(_ context.Context, inq domain.Inquiry) error {
	m.put = append(m.put, inq)
	return m.putErr
}

func (m *mockStore) DeleteInquiry(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	m.lastDeleteErr = m.deleteErr
	if m.deleteHonorsContext {
		if _, ok := ctx.Deadline(); !ok {
			m.lastDeleteErr = errors.New("cleanup without deadline")
		}
		if err := ctx.Err(); err != nil {
			m.lastDeleteErr = err
		}
	}
	return m.lastDeleteErr
}

type mockSender struct {
	err           error
	sent          []domain.InquiryMessage
	correlationID string
}

func (m *mockSender) Send(_ context.Context, msg domain.InquiryMessage, correlationID string) (string, error) {
	m.sent = append(m.sent, msg)
	m.correlationID = correlationID
	if m.err != nil {
		return "", m.err
	}
	return "msg-1", nil
}

// expiringSender cancels the request context before failing, as the SDK does
// when its retries run into the Lambda deadline.
type expiringSender struct {
	cancel context.CancelFunc
}

func (s *expiringSender) Send(_ context.Context, _ domain.InquiryMessage, _ string) (string, error) {
	s.cancel()
	return "", context.DeadlineExceeded
}

type mockParams struct {
	vals  map[string]string
	err   error
	calls int
}

func (m *mockParams) GetParameter(_ context.Context, name string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.vals[name], nil
}

func fixClock(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	prevNow, prevUUID := now, newUUID
	now = func() time.Time { return fixed }
	newUUID = func() string { return "2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11" }
	t.Cleanup(func() {
		now = prevNow
		newUUID = prevUUID
	})
	return fixed
}

func newTestSubmitService(t *testing.T, store InquiryStore, sender MessageSender, params ParamGetter, cfg SubmitConfig) *SubmitService {
	t.Helper()
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@example.com"
	}
	svc, err := NewSubmitService(store, sender, params, cfg)
	require.NoError(t, err)
	return svc
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewSubmitService_Validation(t *testing.T) {
	cfg := SubmitConfig{AdminEmail: "admin@example.com"}

	_, err := NewSubmitService(nil, &mockSender{}, nil, cfg)
	require.ErrorContains(t, err, "inquiry store")

	_, err = NewSubmitService(&mockStore{}, nil, nil, cfg)
	require.ErrorContains(t, err, "message sender")

	_, err = NewSubmitService(&mockStore{}, &mockSender{}, nil, SubmitConfig{})
	require.ErrorContains(t, err, "admin email")

	_, err = NewSubmitService(&mockStore{}, &mockSender{}, nil, SubmitConfig{AdminEmail: "a@b.c", AdminEmailParameter: "/p"})
	require.ErrorContains(t, err, "param getter")
}

func TestSubmit_HappyPath(t *testing.T) {
	fixed := fixClock(t)
	store := &mockStore{}
	sender := &mockSender{}
	svc := newTestSubmitService(t, store, sender, nil, SubmitConfig{})

	out, err := svc.Submit(context.Background(), SubmitInput{
		Fields:        map[string]any{"name": "Ada", "message": "Hello"},
		Source:        "203.0.113.7",
		CorrelationID: "corr-1",
	})
	require.NoError(t, err)
	require.Equal(t, SubmitOutput{ID: "2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11", MessageID: "msg-1"}, out)

	require.Len(t, store.put, 1)
	require.Equal(t, domain.Inquiry{
		ID:        "2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11",
		CreatedAt: fixed,
		Fields:    map[string]any{"name": "Ada", "message": "Hello"},
		Source:    "203.0.113.7",
	}, store.put[0])

	require.Len(t, sender.sent, 1)
	require.Equal(t, domain.InquiryMessage{
		InquiryID:   "2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11",
		Recipient:   "admin@example.com",
		SubmittedAt: fixed,
		Fields:      map[string]any{"name": "Ada", "message": "Hello"},
	}, sender.sent[0])
	require.Equal(t, "corr-1", sender.correlationID)
	require.Empty(t, store.deleted)
}

func TestSubmit_DropsClientSuppliedID(t *testing.T) {
	fixClock(t)
	store := &mockStore{}
	svc := newTestSubmitService(t, store, &mockSender{}, nil, SubmitConfig{})

	out, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"id": "mine", "name": "Ada"}})
	require.NoError(t, err)
	require.Equal(t, "2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11", out.ID)
	require.NotContains(t, store.put[0].Fields, "id")
}

func TestSubmit_InvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]any
		reason string
	}{
		{name: "nil", fields: nil, reason: "empty_inquiry"},
		{name: "empty", fields: map[string]any{}, reason: "empty_inquiry"},
		{name: "only reserved", fields: map[string]any{"id": "x"}, reason: "empty_inquiry"},
		{name: "blank key", fields: map[string]any{" ": "x"}, reason: "empty_field_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{}
			svc := newTestSubmitService(t, store, &mockSender{}, nil, SubmitConfig{})
			_, err := svc.Submit(context.Background(), SubmitInput{Fields: tc.fields})
			expectError(t, err, ErrorInvalidInput, tc.reason)
			require.Empty(t, store.put)
		})
	}
}

func TestSubmit_TableWriteFailure(t *testing.T) {
	fixClock(t)
	store := &mockStore{putErr: errors.New("throttled")}
	sender := &mockSender{}
	svc := newTestSubmitService(t, store, sender, nil, SubmitConfig{})

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"name": "Ada"}})
	expectError(t, err, ErrorInternal, "dynamodb_write_error")
	require.Empty(t, sender.sent)
	require.Empty(t, store.deleted)
}

func TestSubmit_EnqueueFailureRemovesRecord(t *testing.T) {
	fixClock(t)
	store := &mockStore{}
	sender := &mockSender{err: errors.New("queue unavailable")}
	svc := newTestSubmitService(t, store, sender, nil, SubmitConfig{})

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"name": "Ada"}})
	expectError(t, err, ErrorInternal, "queue_send_error")
	require.Equal(t, []string{"2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11"}, store.deleted)
}

func TestSubmit_CleanupSurvivesExpiredRequestContext(t *testing.T) {
	fixClock(t)
	store := &mockStore{deleteHonorsContext: true}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newTestSubmitService(t, store, &expiringSender{cancel: cancel}, nil, SubmitConfig{})

	_, err := svc.Submit(ctx, SubmitInput{Fields: map[string]any{"name": "Ada"}})
	expectError(t, err, ErrorInternal, "queue_send_error")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Error(t, ctx.Err())
	require.Equal(t, []string{"2b1f6a4e-0c55-4a43-9b0e-1f0f6e0f7a11"}, store.deleted)
	require.NoError(t, store.lastDeleteErr)
}

func TestSubmit_EnqueueFailureWithFailedCleanupStillReportsEnqueueError(t *testing.T) {
	fixClock(t)
	store := &mockStore{deleteErr: errors.New("delete failed")}
	sender := &mockSender{err: errors.New("queue unavailable")}
	svc := newTestSubmitService(t, store, sender, nil, SubmitConfig{})

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"name": "Ada"}})
	expectError(t, err, ErrorInternal, "queue_send_error")
	require.ErrorContains(t, err, "queue unavailable")
	require.Len(t, store.deleted, 1)
}

func TestSubmit_RecipientFromParameter(t *testing.T) {
	fixClock(t)
	sender := &mockSender{}
	params := &mockParams{vals: map[string]string{"/email-service/admin-email": "ops@example.com"}}
	svc := newTestSubmitService(t, &mockStore{}, sender, params, SubmitConfig{AdminEmailParameter: "/email-service/admin-email"})

	_, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", sender.sent[0].Recipient)
	require.Equal(t, 1, params.calls)
}

func TestSubmit_RecipientFallsBackToStaticAddress(t *testing.T) {
	cases := []struct {
		name   string
		params *mockParams
	}{
		{name: "lookup error", params: &mockParams{err: errors.New("AccessDenied")}},
		{name: "blank value", params: &mockParams{vals: map[string]string{"/p": "  "}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixClock(t)
			sender := &mockSender{}
			svc := newTestSubmitService(t, &mockStore{}, sender, tc.params, SubmitConfig{AdminEmailParameter: "/p"})

			_, err := svc.Submit(context.Background(), SubmitInput{Fields: map[string]any{"name": "Ada"}})
			require.NoError(t, err)
			require.Equal(t, "admin@example.com", sender.sent[0].Recipient)
		})
	}
}
