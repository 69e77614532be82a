package repo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client the store calls.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

const batchWriteMax = 25

// Store is a thin pass-through over one table. It adds no retry or backoff
// beyond what the SDK already does; errors propagate unchanged.
type Store struct {
	client DynamoDBAPI
	table  string
}

func NewStore(client DynamoDBAPI, table string) *Store {
	return &Store{client: client, table: table}
}

func (s *Store) PutItem(ctx context.Context, item map[string]types.AttributeValue) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// GetItem reads one record by full key. A missing key is an explicit absent
// result, not an error.
func (s *Store) GetItem(ctx context.Context, key map[string]types.AttributeValue) (map[string]types.AttributeValue, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return nil, false, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}
	return out.Item, true, nil
}

// UpdateItem applies the expression to the keyed record and returns the
// record as stored after the update.
func (s *Store) UpdateItem(ctx context.Context, key map[string]types.AttributeValue, expr expression.Expression) (map[string]types.AttributeValue, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	return out.Attributes, nil
}

func (s *Store) DeleteItem(ctx context.Context, key map[string]types.AttributeValue) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

type QueryRequest struct {
	Expr              expression.Expression
	Limit             int32
	ExclusiveStartKey map[string]types.AttributeValue
}

type QueryResult struct {
	Items            []map[string]types.AttributeValue
	Count            int32
	LastEvaluatedKey map[string]types.AttributeValue
}

// Query runs one page of a key-condition query with an optional filter and
// projection carried in the expression.
func (s *Store) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    req.Expr.KeyCondition(),
		FilterExpression:          req.Expr.Filter(),
		ProjectionExpression:      req.Expr.Projection(),
		ExpressionAttributeNames:  req.Expr.Names(),
		ExpressionAttributeValues: req.Expr.Values(),
		ExclusiveStartKey:         req.ExclusiveStartKey,
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(req.Limit)
	}
	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &QueryResult{
		Items:            out.Items,
		Count:            out.Count,
		LastEvaluatedKey: out.LastEvaluatedKey,
	}, nil
}

// Scan walks the whole table, following continuation keys until exhausted.
func (s *Store) Scan(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// BatchWrite puts the items in chunks of 25, resubmitting whatever the
// service reports unprocessed.
func (s *Store) BatchWrite(ctx context.Context, items []map[string]types.AttributeValue) error {
	for start := 0; start < len(items); start += batchWriteMax {
		end := min(start+batchWriteMax, len(items))
		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		pending := map[string][]types.WriteRequest{s.table: requests}
		for len(pending) > 0 {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return fmt.Errorf("batch write: %w", err)
			}
			pending = out.UnprocessedItems
			if len(pending[s.table]) == 0 {
				break
			}
		}
	}
	return nil
}
