package usecase

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"email-service/internal/domain"
)

const (
	subjectTemplate = `New inquiry from {{ regexReplaceAll "[\r\n]+" (.Fields.name | default "a website visitor" | toString) " " | trunc 80 }}`

	bodyTemplate = `A new inquiry was submitted.

Inquiry ID: {{ .InquiryID }}
Submitted:  {{ dateInZone "2006-01-02 15:04:05 MST" .SubmittedAt "UTC" }}
{{ range $k := keys .Fields | sortAlpha }}
{{ $k }}: {{ index $.Fields $k | toString }}
{{- end }}
`
)

// NotificationRenderer turns a queued inquiry into an email.
type NotificationRenderer struct {
	subject *template.Template
	body    *template.Template
}

func NewNotificationRenderer() (*NotificationRenderer, error) {
	subject, err := template.New("subject").Funcs(sprig.TxtFuncMap()).Parse(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("usecase: parse subject template: %w", err)
	}
	body, err := template.New("body").Funcs(sprig.TxtFuncMap()).Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("usecase: parse body template: %w", err)
	}
	return &NotificationRenderer{subject: subject, body: body}, nil
}

// Render builds the notification for msg. from is the sender address; when
// empty the recipient sends to itself.
func (r *NotificationRenderer) Render(msg domain.InquiryMessage, from string) (domain.Email, error) {
	if msg.Fields == nil {
		msg.Fields = map[string]any{}
	}

	var subject bytes.Buffer
	if err := r.subject.Execute(&subject, msg); err != nil {
		return domain.Email{}, fmt.Errorf("usecase: render subject: %w", err)
	}
	var body bytes.Buffer
	if err := r.body.Execute(&body, msg); err != nil {
		return domain.Email{}, fmt.Errorf("usecase: render body: %w", err)
	}

	if strings.TrimSpace(from) == "" {
		from = msg.Recipient
	}
	return domain.Email{
		From:    from,
		To:      msg.Recipient,
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}
