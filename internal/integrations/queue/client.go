package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"email-service/internal/domain"
)

// AttrCorrelationID is the message attribute carrying the intake correlation id.
const AttrCorrelationID = "correlationId"

// sqsAPI is the minimal SQS interface required by Client.
// *sqs.Client from aws-sdk-go-v2 satisfies this interface.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Client enqueues inquiry processing messages.
type Client struct {
	api      sqsAPI
	queueURL string
}

// New creates a Client that sends to queueURL.
func New(api sqsAPI, queueURL string) (*Client, error) {
	if api == nil {
		return nil, errors.New("queue: api must not be nil")
	}
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, errors.New("queue: queue url must not be empty")
	}
	return &Client{api: api, queueURL: queueURL}, nil
}

// Send enqueues msg and returns the SQS message id.
func (c *Client) Send(ctx context.Context, msg domain.InquiryMessage, correlationID string) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("queue: marshal message: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if correlationID != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			AttrCorrelationID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(correlationID),
			},
		}
	}

	out, err := c.api.SendMessage(ctx, in)
	if err != nil {
		return "", fmt.Errorf("queue: send message: %w", err)
	}
	if out == nil || out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}
