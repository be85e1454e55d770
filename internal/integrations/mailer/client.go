package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"email-service/internal/domain"
)

const charset = "UTF-8"

// sesAPI is the minimal SES v2 interface required by Client.
// *sesv2.Client from aws-sdk-go-v2 satisfies this interface.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Client sends plain-text email through SES.
type Client struct {
	api sesAPI
}

// New creates a Client with the given SES API implementation.
func New(api sesAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("mailer: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Send delivers email and returns the SES message id.
func (c *Client) Send(ctx context.Context, email domain.Email) (string, error) {
	if strings.TrimSpace(email.To) == "" {
		return "", errors.New("mailer: recipient is required")
	}
	if strings.TrimSpace(email.From) == "" {
		return "", errors.New("mailer: sender is required")
	}

	out, err := c.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(email.From),
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(email.Body), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mailer: send email to %q: %w", email.To, err)
	}
	if out == nil || out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}
