package query

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
	"github.com/dynamori/dynamori/pkg/table"
)

// Scan builds a full-table or parallel-segment scan.
type Scan struct {
	target              core.Queryable
	client              core.DynamoDBAPI
	filter              *expr.Condition
	keywords            []expr.Keyword
	conditionalOperator string
	projection          []string
	startKey            map[string]types.AttributeValue
	decode              DecodeFunc
	consistentRead      *bool
	segment             *int32
	totalSegments       *int32
	limit               int32
	pageSize            int32
}

// NewScan starts a scan against a table or one of its indexes.
func NewScan(target core.Queryable) *Scan {
	s := &Scan{target: target}
	if p, ok := target.(clientProvider); ok {
		s.client = p.Client()
	}
	return s
}

// WithClient overrides the client, for targets that do not carry one.
func (s *Scan) WithClient(client core.DynamoDBAPI) *Scan {
	s.client = client
	return s
}

// Filter sets the scan filter condition.
func (s *Scan) Filter(cond *expr.Condition) *Scan {
	s.filter = cond
	return s
}

// FilterKeywords adds legacy keyword filters, folded in declaration order.
func (s *Scan) FilterKeywords(filters ...expr.Keyword) *Scan {
	s.keywords = append(s.keywords, filters...)
	return s
}

// ConditionalOperator joins keyword filters with AND (default) or OR.
func (s *Scan) ConditionalOperator(op string) *Scan {
	s.conditionalOperator = op
	return s
}

// Limit caps the total number of items yielded across all pages.
func (s *Scan) Limit(n int32) *Scan {
	s.limit = n
	return s
}

// PageSize sets the Limit sent on each RPC.
func (s *Scan) PageSize(n int32) *Scan {
	s.pageSize = n
	return s
}

// ConsistentRead requests strongly consistent reads.
func (s *Scan) ConsistentRead(on bool) *Scan {
	s.consistentRead = &on
	return s
}

// Segment restricts this scan to one partition of a parallel scan.
func (s *Scan) Segment(segment, totalSegments int32) *Scan {
	s.segment = &segment
	s.totalSegments = &totalSegments
	return s
}

// StartAt resumes from a previous iteration's LastEvaluatedKey.
func (s *Scan) StartAt(key map[string]types.AttributeValue) *Scan {
	s.startKey = key
	return s
}

// Project restricts returned attributes.
func (s *Scan) Project(paths ...string) *Scan {
	s.projection = append(s.projection, paths...)
	return s
}

// Decode sets the per-item decode function.
func (s *Scan) Decode(fn DecodeFunc) *Scan {
	s.decode = fn
	return s
}

// Compile validates the scan and renders its wire-ready fragments.
func (s *Scan) Compile() (*core.CompiledRequest, error) {
	fromKeywords, err := expr.NormalizeKeywordFilters(s.keywords, s.conditionalOperator)
	if err != nil {
		return nil, err
	}
	filter := expr.And(s.filter, fromKeywords)
	if err := table.ValidateFilter(s.target, filter); err != nil {
		return nil, err
	}

	compiler := expr.NewCompiler()
	filterExpr, err := compiler.Compile(filter)
	if err != nil {
		return nil, err
	}

	return &core.CompiledRequest{
		TableName:                 s.target.TableName(),
		IndexName:                 s.target.IndexName(),
		Operation:                 core.OperationScan,
		FilterExpression:          filterExpr,
		ProjectionExpression:      projectionExpression(compiler, s.projection),
		ExpressionAttributeNames:  compiler.Names(),
		ExpressionAttributeValues: compiler.Values(),
		ConsistentRead:            s.consistentRead,
		Segment:                   s.segment,
		TotalSegments:             s.totalSegments,
	}, nil
}

// Pages compiles the scan and returns its page iterator.
func (s *Scan) Pages() (*PageIterator, error) {
	req, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return NewPageIterator(NewExecutor(s.client), req, s.limit, s.pageSize, s.startKey), nil
}

// Iter compiles the scan and returns a decoded result iterator.
func (s *Scan) Iter() (*ResultIterator, error) {
	pages, err := s.Pages()
	if err != nil {
		return nil, err
	}
	return NewResultIterator(pages, s.decode, s.limit, keyAttributes(s.target)), nil
}

// All runs the scan and collects every yielded item.
func (s *Scan) All(ctx context.Context) ([]any, error) {
	it, err := s.Iter()
	if err != nil {
		return nil, err
	}
	return it.All(ctx)
}

// Count runs the scan in COUNT mode and sums matches across pages.
func (s *Scan) Count(ctx context.Context) (int32, error) {
	req, err := s.Compile()
	if err != nil {
		return 0, err
	}
	req.Select = core.SelectCount

	pages := NewPageIterator(NewExecutor(s.client), req, s.limit, s.pageSize, s.startKey)
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

// RateLimited compiles the scan into a capacity-budgeted driver.
func (s *Scan) RateLimited(opts RateLimitOptions) (*RateLimitedScanner, error) {
	req, err := s.Compile()
	if err != nil {
		return nil, err
	}
	scanner := NewRateLimitedScanner(NewExecutor(s.client), req, opts)
	scanner.resumeKey = s.startKey
	return scanner, nil
}
