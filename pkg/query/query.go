package query

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
	"github.com/dynamori/dynamori/pkg/table"
)

// Query builds a key-condition query against a table or index. Methods
// return the builder for chaining; nothing touches the network until Iter,
// Pages, All, or Count runs.
type Query struct {
	target              core.Queryable
	client              core.DynamoDBAPI
	keyCond             *expr.Condition
	filter              *expr.Condition
	keywords            []expr.Keyword
	conditionalOperator string
	projection          []string
	startKey            map[string]types.AttributeValue
	decode              DecodeFunc
	consistentRead      *bool
	scanForward         *bool
	limit               int32
	pageSize            int32
}

// clientProvider is satisfied by Table and Index handles.
type clientProvider interface {
	Client() core.DynamoDBAPI
}

// NewQuery starts a query against a table or one of its indexes.
func NewQuery(target core.Queryable) *Query {
	q := &Query{target: target}
	if p, ok := target.(clientProvider); ok {
		q.client = p.Client()
	}
	return q
}

// WithClient overrides the client, for targets that do not carry one.
func (q *Query) WithClient(client core.DynamoDBAPI) *Query {
	q.client = client
	return q
}

// Where sets the key condition.
func (q *Query) Where(cond *expr.Condition) *Query {
	q.keyCond = cond
	return q
}

// Filter sets the post-match filter condition.
func (q *Query) Filter(cond *expr.Condition) *Query {
	q.filter = cond
	return q
}

// FilterKeywords adds legacy keyword filters, folded in declaration order.
func (q *Query) FilterKeywords(filters ...expr.Keyword) *Query {
	q.keywords = append(q.keywords, filters...)
	return q
}

// ConditionalOperator joins keyword filters with AND (default) or OR.
func (q *Query) ConditionalOperator(op string) *Query {
	q.conditionalOperator = op
	return q
}

// Limit caps the total number of items yielded across all pages.
func (q *Query) Limit(n int32) *Query {
	q.limit = n
	return q
}

// PageSize sets the Limit sent on each RPC, independent of the overall cap.
func (q *Query) PageSize(n int32) *Query {
	q.pageSize = n
	return q
}

// ConsistentRead requests strongly consistent reads.
func (q *Query) ConsistentRead(on bool) *Query {
	q.consistentRead = &on
	return q
}

// ScanIndexForward sets sort-key ordering; false reverses it.
func (q *Query) ScanIndexForward(forward bool) *Query {
	q.scanForward = &forward
	return q
}

// StartAt resumes from a previous iteration's LastEvaluatedKey.
func (q *Query) StartAt(key map[string]types.AttributeValue) *Query {
	q.startKey = key
	return q
}

// Project restricts returned attributes.
func (q *Query) Project(paths ...string) *Query {
	q.projection = append(q.projection, paths...)
	return q
}

// Decode sets the per-item decode function.
func (q *Query) Decode(fn DecodeFunc) *Query {
	q.decode = fn
	return q
}

// Compile validates the query and renders its wire-ready fragments.
func (q *Query) Compile() (*core.CompiledRequest, error) {
	filter, err := q.combinedFilter()
	if err != nil {
		return nil, err
	}
	if err := table.ValidateKeyCondition(q.target, q.keyCond); err != nil {
		return nil, err
	}
	if err := table.ValidateFilter(q.target, filter); err != nil {
		return nil, err
	}

	compiler := expr.NewCompiler()
	keyExpr, err := compiler.Compile(q.keyCond)
	if err != nil {
		return nil, err
	}
	filterExpr, err := compiler.Compile(filter)
	if err != nil {
		return nil, err
	}

	return &core.CompiledRequest{
		TableName:                 q.target.TableName(),
		IndexName:                 q.target.IndexName(),
		Operation:                 core.OperationQuery,
		KeyConditionExpression:    keyExpr,
		FilterExpression:          filterExpr,
		ProjectionExpression:      projectionExpression(compiler, q.projection),
		ExpressionAttributeNames:  compiler.Names(),
		ExpressionAttributeValues: compiler.Values(),
		ConsistentRead:            q.consistentRead,
		ScanIndexForward:          q.scanForward,
	}, nil
}

func (q *Query) combinedFilter() (*expr.Condition, error) {
	fromKeywords, err := expr.NormalizeKeywordFilters(q.keywords, q.conditionalOperator)
	if err != nil {
		return nil, err
	}
	return expr.And(q.filter, fromKeywords), nil
}

// Pages compiles the query and returns its page iterator.
func (q *Query) Pages() (*PageIterator, error) {
	req, err := q.Compile()
	if err != nil {
		return nil, err
	}
	return NewPageIterator(NewExecutor(q.client), req, q.limit, q.pageSize, q.startKey), nil
}

// Iter compiles the query and returns a decoded result iterator.
func (q *Query) Iter() (*ResultIterator, error) {
	pages, err := q.Pages()
	if err != nil {
		return nil, err
	}
	return NewResultIterator(pages, q.decode, q.limit, keyAttributes(q.target)), nil
}

// All runs the query and collects every yielded item.
func (q *Query) All(ctx context.Context) ([]any, error) {
	it, err := q.Iter()
	if err != nil {
		return nil, err
	}
	return it.All(ctx)
}

// First yields the first matching item, or ErrItemNotFound.
func (q *Query) First(ctx context.Context) (any, error) {
	it, err := q.Limit(1).Iter()
	if err != nil {
		return nil, err
	}
	item, err := it.Next(ctx)
	if err == errors.ErrIteratorExhausted {
		return nil, errors.ErrItemNotFound
	}
	return item, err
}

// Count runs the query in COUNT mode and sums matches across pages without
// transferring items.
func (q *Query) Count(ctx context.Context) (int32, error) {
	req, err := q.Compile()
	if err != nil {
		return 0, err
	}
	req.Select = core.SelectCount

	pages := NewPageIterator(NewExecutor(q.client), req, q.limit, q.pageSize, q.startKey)
	for {
		_, err := pages.Next(ctx)
		if err != nil {
			if err == errors.ErrIteratorExhausted {
				return pages.TotalCount(), nil
			}
			return 0, err
		}
	}
}

// projectionExpression renders a projection through the request's shared
// compiler so name aliases stay consistent.
func projectionExpression(compiler *expr.Compiler, paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	refs := make([]string, len(paths))
	for i, path := range paths {
		refs[i] = compiler.Ref(path)
	}
	return strings.Join(refs, ", ")
}

// keyAttributes lists the attributes a continuation key carries for this
// access path: the base key, plus the index key when targeting an index.
func keyAttributes(target core.Queryable) []string {
	schema := target.Schema()
	attrs := []string{schema.Key.PartitionKey}
	if schema.Key.SortKey != "" {
		attrs = append(attrs, schema.Key.SortKey)
	}
	if target.IndexName() != "" {
		key := target.Key()
		for _, attr := range []string{key.PartitionKey, key.SortKey} {
			if attr != "" && !containsString(attrs, attr) {
				attrs = append(attrs, attr)
			}
		}
	}
	return attrs
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
