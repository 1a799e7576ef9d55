package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abuse-guard/internal/counter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB attribute names. Using constants prevents silent runtime bugs
// caused by key typos in expressions.
const (
	attrKey       = "counter_key"
	attrValue     = "val"
	attrCount     = "cnt"
	attrExpiresAt = "expires_at"
)

// Store implements counter.Store on a single DynamoDB table.
// PK: counter_key. Flags and records live in `val` (string), pure counters
// in `cnt` (number). DynamoDB's TTL deletion is lazy, so every read treats
// an item whose expires_at has passed as absent.
type Store struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

// NewStore wraps the given DynamoDB client and table as a counter.Store.
func NewStore(client *dynamodb.Client, tableName string) *Store {
	return &Store{client: client, tableName: tableName, now: time.Now}
}

type item struct {
	Key       string `dynamodbav:"counter_key"`
	Value     string `dynamodbav:"val,omitempty"`
	Count     int64  `dynamodbav:"cnt,omitempty"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"` // unix seconds, 0 = no expiry
}

func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: key},
	}
}

func (s *Store) getItem(ctx context.Context, key string) (*item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	if out.Item == nil {
		return nil, counter.ErrNotFound
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	if it.ExpiresAt != 0 && it.ExpiresAt <= s.now().Unix() {
		return nil, counter.ErrNotFound
	}
	return &it, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	it, err := s.getItem(ctx, key)
	if err != nil {
		return "", err
	}
	if it.Value != "" {
		return it.Value, nil
	}
	return strconv.FormatInt(it.Count, 10), nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	it := item{Key: key, Value: value}
	if ttl > 0 {
		it.ExpiresAt = s.now().Add(ttl).Unix()
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	exp := int64(0)
	if ttl > 0 {
		exp = s.now().Add(ttl).Unix()
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tableName),
		Key:              s.key(key),
		UpdateExpression: aws.String("SET #exp = if_not_exists(#exp, :exp) ADD #cnt :one"),
		ExpressionAttributeNames: map[string]string{
			"#exp": attrExpiresAt,
			"#cnt": attrCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
	}

	// A lingering item past its expires_at means TTL deletion hasn't run
	// yet; start a fresh window instead of resuming the stale count.
	if it.ExpiresAt != 0 && it.ExpiresAt <= s.now().Unix() {
		fresh := item{Key: key, Count: 1}
		if ttl > 0 {
			fresh.ExpiresAt = s.now().Add(ttl).Unix()
		}
		av, mErr := attributevalue.MarshalMap(fresh)
		if mErr != nil {
			return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, mErr)
		}
		if _, pErr := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		}); pErr != nil {
			return 0, fmt.Errorf("%w: %v", counter.ErrUnavailable, pErr)
		}
		return 1, nil
	}

	return it.Count, nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       s.key(k),
		}); err != nil {
			return fmt.Errorf("%w: %v", counter.ErrUnavailable, err)
		}
	}
	return nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	it, err := s.getItem(ctx, key)
	if err != nil {
		return 0, err
	}
	if it.ExpiresAt == 0 {
		return 0, nil
	}
	return time.Until(time.Unix(it.ExpiresAt, 0)), nil
}
