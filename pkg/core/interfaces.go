// Package core defines the shared interfaces and wire-level types for dynamori
package core

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client the engine drives.
// *dynamodb.Client satisfies it; tests substitute fakes.
type DynamoDBAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// KeySchema names the partition key and the optional sort key of an access
// path (base table or secondary index).
type KeySchema struct {
	PartitionKey string
	SortKey      string // optional
}

// Contains reports whether the attribute participates in this key.
func (k KeySchema) Contains(attr string) bool {
	return attr == k.PartitionKey || (k.SortKey != "" && attr == k.SortKey)
}

// TableSchema declares the attributes and access paths of one table. It is
// the engine's entire knowledge of the remote schema; attribute marshaling
// is handled by the codec, not here.
type TableSchema struct {
	TableName  string
	Key        KeySchema
	Attributes map[string]string // attribute name -> DynamoDB scalar type (S, N, B, BOOL, ...)
	Indexes    map[string]KeySchema
}

// HasAttribute reports whether the attribute is declared on the schema.
func (s *TableSchema) HasAttribute(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Attributes[name]
	return ok
}

// KeyFor returns the key schema for the named index, or the base key when
// indexName is empty.
func (s *TableSchema) KeyFor(indexName string) (KeySchema, bool) {
	if indexName == "" {
		return s.Key, true
	}
	key, ok := s.Indexes[indexName]
	return key, ok
}

// Queryable is the capability shared by a table and its secondary indexes:
// enough schema knowledge to validate and compile a query, plus the name of
// the access path the request should target.
type Queryable interface {
	// TableName is the table the request is sent to.
	TableName() string
	// IndexName is empty for the base table.
	IndexName() string
	// Key is the hash/range schema of this access path.
	Key() KeySchema
	// Schema exposes the declared attributes for validation.
	Schema() *TableSchema
}

// CompiledRequest carries the wire-ready fragments of one query or scan.
// The expression compiler fills the expression fields; the iterators own
// Limit and ExclusiveStartKey per page.
type CompiledRequest struct {
	ExpressionAttributeValues map[string]types.AttributeValue
	ExpressionAttributeNames  map[string]string
	ConsistentRead            *bool
	ScanIndexForward          *bool
	Segment                   *int32
	TotalSegments             *int32
	TableName                 string
	IndexName                 string
	KeyConditionExpression    string
	FilterExpression          string
	ProjectionExpression      string
	Select                    string
	ReturnConsumedCapacity    string
	Operation                 string // OperationQuery or OperationScan
}

// Operation kinds for CompiledRequest.
const (
	OperationQuery = "Query"
	OperationScan  = "Scan"
)

// Select values understood by the protocol.
const (
	SelectCount = "COUNT"
)

// ReturnConsumedCapacityTotal asks the server to report per-request cost;
// the rate-limited scan driver depends on it.
const ReturnConsumedCapacityTotal = "TOTAL"

// Page is the result of one RPC within a multi-call query or scan.
type Page struct {
	Items                 []map[string]types.AttributeValue
	LastEvaluatedKey      map[string]types.AttributeValue
	Count                 int32
	ScannedCount          int32
	ConsumedCapacityUnits float64
	HasConsumedCapacity   bool
}

// HasMore reports whether the server indicated another page exists.
func (p *Page) HasMore() bool {
	return len(p.LastEvaluatedKey) > 0
}
