// Package mocks provides a testify mock for the DynamoDB client surface the
// engine drives, plus helpers for scripting multi-page responses.
//
// Example usage:
//
//	mockClient := new(mocks.MockDynamoDBAPI)
//	mockClient.On("Query", mock.Anything, mock.Anything, mock.Anything).
//		Return(&dynamodb.QueryOutput{Count: 2}, nil)
//
//	it, err := query.NewQuery(tbl).Where(expr.Eq("pk", "USER#1")).Iter()
package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/mock"
)

// MockDynamoDBAPI is a testify mock implementing core.DynamoDBAPI.
type MockDynamoDBAPI struct {
	mock.Mock
}

// Query mocks the DynamoDB Query operation
func (m *MockDynamoDBAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.QueryOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.QueryOutput")
	}
	return output, args.Error(1)
}

// Scan mocks the DynamoDB Scan operation
func (m *MockDynamoDBAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.ScanOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.ScanOutput")
	}
	return output, args.Error(1)
}

// GetItem mocks the DynamoDB GetItem operation
func (m *MockDynamoDBAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.GetItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.GetItemOutput")
	}
	return output, args.Error(1)
}

// PutItem mocks the DynamoDB PutItem operation
func (m *MockDynamoDBAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.PutItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.PutItemOutput")
	}
	return output, args.Error(1)
}

// UpdateItem mocks the DynamoDB UpdateItem operation
func (m *MockDynamoDBAPI) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.UpdateItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.UpdateItemOutput")
	}
	return output, args.Error(1)
}

// DeleteItem mocks the DynamoDB DeleteItem operation
func (m *MockDynamoDBAPI) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.DeleteItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.DeleteItemOutput")
	}
	return output, args.Error(1)
}

// BatchGetItem mocks the DynamoDB BatchGetItem operation
func (m *MockDynamoDBAPI) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.BatchGetItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.BatchGetItemOutput")
	}
	return output, args.Error(1)
}

// BatchWriteItem mocks the DynamoDB BatchWriteItem operation
func (m *MockDynamoDBAPI) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.BatchWriteItemOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.BatchWriteItemOutput")
	}
	return output, args.Error(1)
}

// DescribeTable mocks the DynamoDB DescribeTable operation
func (m *MockDynamoDBAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	output, ok := args.Get(0).(*dynamodb.DescribeTableOutput)
	if !ok {
		panic("unexpected type: expected *dynamodb.DescribeTableOutput")
	}
	return output, args.Error(1)
}
