// Package dynamori is a client-side query engine for Amazon DynamoDB:
// a condition compiler with deterministic placeholder aliases, lazy
// query/scan pagination with limit bookkeeping, chunked batch write/get
// coordinators with bounded unprocessed-item retries, and a rate-limited
// scan driver.
//
// Import path:
//
//	import "github.com/dynamori/dynamori"
//
// Implementation lives under pkg/ and internal/; the repo root re-exports
// the surface most callers need.
package dynamori

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/batch"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/query"
	"github.com/dynamori/dynamori/pkg/session"
	"github.com/dynamori/dynamori/pkg/table"
)

type (
	// Condition is an immutable expression-tree node.
	Condition = expr.Condition
	// Keyword is one legacy suffix-based filter entry.
	Keyword = expr.Keyword

	// Table and Index are the query targets.
	Table = table.Table
	Index = table.Index

	// Schema declares a table's key and attributes.
	Schema    = core.TableSchema
	KeySchema = core.KeySchema
	Queryable = core.Queryable
	Page      = core.Page

	// Query and Scan are the request builders.
	Query            = query.Query
	Scan             = query.Scan
	PageIterator     = query.PageIterator
	ResultIterator   = query.ResultIterator
	DecodeFunc       = query.DecodeFunc
	RateLimitOptions = query.RateLimitOptions

	// BatchWriter and BatchGetter are the batch coordinators.
	BatchWriter   = batch.Writer
	BatchGetter   = batch.Getter
	WriterOptions = batch.WriterOptions
	GetterOptions = batch.GetterOptions
	RetryPolicy   = core.RetryPolicy

	// Session plumbing.
	Config           = session.Config
	Session          = session.Session
	Registry         = session.Registry
	AssumeRoleConfig = session.AssumeRoleConfig
)

// Condition constructors.
var (
	Eq         = expr.Eq
	Ne         = expr.Ne
	Lt         = expr.Lt
	Le         = expr.Le
	Gt         = expr.Gt
	Ge         = expr.Ge
	Between    = expr.Between
	In         = expr.In
	Exists     = expr.Exists
	NotExists  = expr.NotExists
	BeginsWith = expr.BeginsWith
	Contains   = expr.Contains
	And        = expr.And
	Or         = expr.Or
	Not        = expr.Not
	Kw         = expr.Kw
)

// NewTable binds a schema to a client.
func NewTable(client core.DynamoDBAPI, schema *Schema) (*Table, error) {
	return table.New(client, schema)
}

// NewQuery starts a query against a table or index.
func NewQuery(target Queryable) *Query {
	return query.NewQuery(target)
}

// NewScan starts a scan against a table or index.
func NewScan(target Queryable) *Scan {
	return query.NewScan(target)
}

// NewBatchWriter creates a batch writer for a table.
func NewBatchWriter(tbl *Table, opts WriterOptions) *BatchWriter {
	return batch.NewWriter(tbl, opts)
}

// NewBatchGetter prepares a chunked batch read.
func NewBatchGetter(tbl *Table, keys []map[string]types.AttributeValue, opts GetterOptions) *BatchGetter {
	return batch.NewGetter(tbl, keys, opts)
}

// NewSession builds a session from a connection config.
func NewSession(cfg *Config) (*Session, error) {
	return session.NewSession(cfg)
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return session.NewRegistry()
}

// UnmarshalItem decodes a raw item into dest.
func UnmarshalItem(item map[string]types.AttributeValue, dest any) error {
	return attributevalue.UnmarshalMap(item, dest)
}

// UnmarshalItems decodes a slice of raw items into a slice pointed to by
// dest.
func UnmarshalItems(items []map[string]types.AttributeValue, dest any) error {
	return attributevalue.UnmarshalListOfMaps(items, dest)
}

// MarshalItem encodes a struct or map into a raw item.
func MarshalItem(in any) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(in)
}
