package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"email-service/internal/domain"
)

const (
	attrID        = "id"
	attrCreatedAt = "createdAt"
	attrFields    = "fields"
	attrSource    = "source"

	conditionNew    = "attribute_not_exists(id)"
	conditionExists = "attribute_exists(id)"
)

// ErrAlreadyExists is returned when an inquiry id is already taken.
var ErrAlreadyExists = errors.New("repository: inquiry already exists")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Client wraps the inquiry table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// PutInquiry writes a new inquiry record. It never overwrites an existing id.
func (c *Client) PutInquiry(ctx context.Context, inq domain.Inquiry) error {
	if strings.TrimSpace(inq.ID) == "" {
		return errors.New("repository: PutInquiry: id is required")
	}
	item, err := inquiryItem(inq)
	if err != nil {
		return fmt.Errorf("repository: PutInquiry marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String(conditionNew),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("repository: PutInquiry %q: %w", inq.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("repository: PutInquiry: %w", err)
	}
	return nil
}

// GetInquiry reads a record by id. found is false when no record exists.
func (c *Client) GetInquiry(ctx context.Context, id string) (inq domain.Inquiry, found bool, err error) {
	if strings.TrimSpace(id) == "" {
		return domain.Inquiry{}, false, errors.New("repository: GetInquiry: id is required")
	}

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            inquiryKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Inquiry{}, false, fmt.Errorf("repository: GetInquiry get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Inquiry{}, false, nil
	}

	inq, err = itemToInquiry(out.Item)
	if err != nil {
		return domain.Inquiry{}, false, fmt.Errorf("repository: GetInquiry decode: %w", err)
	}
	return inq, true, nil
}

// DeleteInquiry removes a record that was written but never scheduled for
// processing. A missing record is not an error.
func (c *Client) DeleteInquiry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("repository: DeleteInquiry: id is required")
	}

	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 inquiryKey(id),
		ConditionExpression: aws.String(conditionExists),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil
		}
		return fmt.Errorf("repository: DeleteInquiry: %w", err)
	}
	return nil
}

func inquiryKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func inquiryItem(inq domain.Inquiry) (map[string]types.AttributeValue, error) {
	fields := inq.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	fieldsAV, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, err
	}

	item := map[string]types.AttributeValue{
		attrID:        &types.AttributeValueMemberS{Value: inq.ID},
		attrCreatedAt: &types.AttributeValueMemberS{Value: inq.CreatedAt.UTC().Format(time.RFC3339)},
		attrFields:    &types.AttributeValueMemberM{Value: fieldsAV},
	}
	if inq.Source != "" {
		item[attrSource] = &types.AttributeValueMemberS{Value: inq.Source}
	}
	return item, nil
}

func itemToInquiry(item map[string]types.AttributeValue) (domain.Inquiry, error) {
	id, err := strAttr(item, attrID)
	if err != nil {
		return domain.Inquiry{}, err
	}
	created, err := strAttr(item, attrCreatedAt)
	if err != nil {
		return domain.Inquiry{}, err
	}
	createdAt, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return domain.Inquiry{}, fmt.Errorf("repository: attribute %q: %w", attrCreatedAt, err)
	}
	source, _ := strAttr(item, attrSource) // optional

	fields := map[string]any{}
	if m, ok := item[attrFields].(*types.AttributeValueMemberM); ok {
		if err := attributevalue.UnmarshalMap(m.Value, &fields); err != nil {
			return domain.Inquiry{}, fmt.Errorf("repository: attribute %q: %w", attrFields, err)
		}
	}

	return domain.Inquiry{
		ID:        id,
		CreatedAt: createdAt,
		Fields:    fields,
		Source:    source,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
