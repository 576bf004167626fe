package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultTable is the DynamoDB table hosting the key-value data unless a
// different one is configured.
const DefaultTable = "arestor_data"

// membersAttr is the string-set attribute backing the set primitives.
const membersAttr = "members"

// DynamoAPI is the subset of the DynamoDB client used by DynamoKeyValue.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoKeyValue hosts the hash+set primitives on a single DynamoDB table.
// The partition key attribute "pk" carries the hash or set name; hash fields
// are item attributes, a set is a string-set attribute on its item.
type DynamoKeyValue struct {
	client DynamoAPI
	table  string
}

// NewDynamoKeyValue creates a DynamoDB-backed KeyValue. A nil client is
// allowed; Dial then builds one from the ambient AWS configuration.
func NewDynamoKeyValue(client DynamoAPI, table string) *DynamoKeyValue {
	if table == "" {
		table = DefaultTable
	}
	return &DynamoKeyValue{
		client: client,
		table:  table,
	}
}

// Dial builds the client from the default AWS config chain when none was
// injected. Reconnecting an existing client is a no-op: the SDK client is
// stateless between requests.
func (d *DynamoKeyValue) Dial(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	d.client = dynamodb.NewFromConfig(cfg)
	return nil
}

var errNotDialed = errors.New("arestor: dynamodb client not dialed")

// Ping probes liveness with a DescribeTable call.
func (d *DynamoKeyValue) Ping(ctx context.Context) error {
	if d.client == nil {
		return errNotDialed
	}
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.table),
	})
	return err
}

// HSet writes one hash field.
func (d *DynamoKeyValue) HSet(ctx context.Context, hash, field, value string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(hash),
		UpdateExpression:         aws.String("SET #f = :v"),
		ExpressionAttributeNames: map[string]string{"#f": field},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	return err
}

// HGet reads one hash field, returning ErrKeyNotFound when the item or the
// attribute is absent.
func (d *DynamoKeyValue) HGet(ctx context.Context, hash, field string) (string, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(hash),
		ProjectionExpression:     aws.String("#f"),
		ExpressionAttributeNames: map[string]string{"#f": field},
	})
	if err != nil {
		return "", err
	}
	attr, ok := result.Item[field]
	if !ok {
		return "", ErrKeyNotFound
	}
	var value string
	if err := attributevalue.Unmarshal(attr, &value); err != nil {
		return "", fmt.Errorf("unmarshal field %q: %w", field, err)
	}
	return value, nil
}

// HDel removes one hash field.
func (d *DynamoKeyValue) HDel(ctx context.Context, hash, field string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(hash),
		UpdateExpression:         aws.String("REMOVE #f"),
		ExpressionAttributeNames: map[string]string{"#f": field},
	})
	return err
}

// SAdd adds a member to a set.
func (d *DynamoKeyValue) SAdd(ctx context.Context, key, member string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(key),
		UpdateExpression:         aws.String("ADD #m :v"),
		ExpressionAttributeNames: map[string]string{"#m": membersAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberSS{Value: []string{member}},
		},
	})
	return err
}

// SRem removes a member from a set. Removing the last member drops the
// attribute, which is indistinguishable from an empty set.
func (d *DynamoKeyValue) SRem(ctx context.Context, key, member string) error {
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(key),
		UpdateExpression:         aws.String("DELETE #m :v"),
		ExpressionAttributeNames: map[string]string{"#m": membersAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberSS{Value: []string{member}},
		},
	})
	return err
}

// SIsMember reports membership of a set.
func (d *DynamoKeyValue) SIsMember(ctx context.Context, key, member string) (bool, error) {
	members, err := d.SMembers(ctx, key)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m == member {
			return true, nil
		}
	}
	return false, nil
}

// SMembers enumerates a set. An absent item is an empty set.
func (d *DynamoKeyValue) SMembers(ctx context.Context, key string) ([]string, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(key),
		ProjectionExpression:     aws.String("#m"),
		ExpressionAttributeNames: map[string]string{"#m": membersAttr},
	})
	if err != nil {
		return nil, err
	}
	attr, ok := result.Item[membersAttr]
	if !ok {
		return nil, nil
	}
	var members []string
	if err := attributevalue.Unmarshal(attr, &members); err != nil {
		return nil, fmt.Errorf("unmarshal set %q: %w", key, err)
	}
	return members, nil
}

func (d *DynamoKeyValue) key(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: name},
	}
}
