package domain

import "time"

// Inquiry is a single submitted inquiry record.
type Inquiry struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
	Source    string
}

// InquiryMessage is the queue payload that schedules processing of an inquiry.
// It carries the submitted fields so the processor never reads the table.
type InquiryMessage struct {
	InquiryID   string         `json:"inquiryId" validate:"required,uuid"`
	Recipient   string         `json:"recipient" validate:"required"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Fields      map[string]any `json:"fields"`
}

// Email is an outbound plain-text notification.
type Email struct {
	From    string
	To      string
	Subject string
	Body    string
}
