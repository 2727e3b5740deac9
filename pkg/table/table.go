// Package table models the client-side view of a DynamoDB table: its key
// schema, declared attributes, and secondary indexes. A Table and its
// Indexes both satisfy core.Queryable, so the query engine treats them
// uniformly.
package table

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// Table binds a declared schema to a client. Construct with New; the zero
// value is not usable.
type Table struct {
	client core.DynamoDBAPI
	schema *core.TableSchema
}

// New validates the schema and returns a table handle.
func New(client core.DynamoDBAPI, schema *core.TableSchema) (*Table, error) {
	if client == nil {
		return nil, fmt.Errorf("table: client is nil")
	}
	if schema == nil || schema.TableName == "" {
		return nil, fmt.Errorf("table: schema with a table name is required")
	}
	if schema.Key.PartitionKey == "" {
		return nil, fmt.Errorf("table %s: partition key is required", schema.TableName)
	}
	for name, key := range schema.Indexes {
		if key.PartitionKey == "" {
			return nil, fmt.Errorf("table %s: index %s has no partition key", schema.TableName, name)
		}
	}
	return &Table{client: client, schema: schema}, nil
}

// TableName returns the table this handle targets.
func (t *Table) TableName() string { return t.schema.TableName }

// IndexName is empty for the base table.
func (t *Table) IndexName() string { return "" }

// Key returns the base key schema.
func (t *Table) Key() core.KeySchema { return t.schema.Key }

// Schema exposes the declared attributes.
func (t *Table) Schema() *core.TableSchema { return t.schema }

// Client returns the underlying DynamoDB client.
func (t *Table) Client() core.DynamoDBAPI { return t.client }

// Index returns a handle for a declared secondary index.
func (t *Table) Index(name string) (*Index, error) {
	key, ok := t.schema.Indexes[name]
	if !ok {
		return nil, &errors.TableError{
			Err:       fmt.Errorf("index %q is not declared", name),
			TableName: t.schema.TableName,
			Op:        "Index",
		}
	}
	return &Index{table: t, name: name, key: key}, nil
}

// Exists reports whether the table exists on the server.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	_, err := t.Describe(ctx)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, errors.ErrTableNotFound) {
		return false, nil
	}
	return false, err
}

// Describe fetches the live table description. A missing table yields
// ErrTableNotFound.
func (t *Table) Describe(ctx context.Context) (*types.TableDescription, error) {
	out, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(t.schema.TableName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if stderrors.As(err, &notFound) {
			return nil, &errors.TableError{
				Err:       errors.ErrTableNotFound,
				TableName: t.schema.TableName,
				Op:        "DescribeTable",
			}
		}
		return nil, &errors.TableError{
			Err:       err,
			TableName: t.schema.TableName,
			Op:        "DescribeTable",
		}
	}
	return out.Table, nil
}

// Index is a secondary-index handle. It queries the parent table with
// IndexName set.
type Index struct {
	table *Table
	name  string
	key   core.KeySchema
}

// TableName returns the parent table's name.
func (i *Index) TableName() string { return i.table.schema.TableName }

// IndexName returns the index this handle targets.
func (i *Index) IndexName() string { return i.name }

// Key returns the index key schema.
func (i *Index) Key() core.KeySchema { return i.key }

// Schema exposes the parent table's declared attributes.
func (i *Index) Schema() *core.TableSchema { return i.table.schema }

// Client returns the parent table's client.
func (i *Index) Client() core.DynamoDBAPI { return i.table.client }
