// Package query implements the pagination engine: compiled query and scan
// requests, lazy page iteration, decoded result iteration, and the
// rate-limited scan driver.
package query

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// Executor turns compiled requests into RPCs. It is stateless; iterators own
// all pagination bookkeeping.
type Executor struct {
	client core.DynamoDBAPI
}

// NewExecutor creates an executor backed by the given client.
func NewExecutor(client core.DynamoDBAPI) *Executor {
	return &Executor{client: client}
}

// FetchPage issues exactly one Query or Scan RPC and normalizes the response
// into a Page. startKey and limit vary per call; everything else comes from
// the compiled request.
func (e *Executor) FetchPage(ctx context.Context, req *core.CompiledRequest, startKey map[string]types.AttributeValue, limit *int32) (*core.Page, error) {
	switch req.Operation {
	case core.OperationQuery:
		out, err := e.client.Query(ctx, buildQueryInput(req, startKey, limit))
		if err != nil {
			return nil, &errors.TableError{Err: err, TableName: req.TableName, Op: "Query"}
		}
		return &core.Page{
			Items:                 out.Items,
			LastEvaluatedKey:      out.LastEvaluatedKey,
			Count:                 out.Count,
			ScannedCount:          out.ScannedCount,
			ConsumedCapacityUnits: capacityUnits(out.ConsumedCapacity),
			HasConsumedCapacity:   hasCapacity(out.ConsumedCapacity),
		}, nil

	case core.OperationScan:
		out, err := e.client.Scan(ctx, buildScanInput(req, startKey, limit))
		if err != nil {
			return nil, &errors.TableError{Err: err, TableName: req.TableName, Op: "Scan"}
		}
		return &core.Page{
			Items:                 out.Items,
			LastEvaluatedKey:      out.LastEvaluatedKey,
			Count:                 out.Count,
			ScannedCount:          out.ScannedCount,
			ConsumedCapacityUnits: capacityUnits(out.ConsumedCapacity),
			HasConsumedCapacity:   hasCapacity(out.ConsumedCapacity),
		}, nil

	default:
		return nil, fmt.Errorf("query: unsupported operation %q", req.Operation)
	}
}

func buildQueryInput(req *core.CompiledRequest, startKey map[string]types.AttributeValue, limit *int32) *dynamodb.QueryInput {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(req.TableName),
		ExpressionAttributeNames:  req.ExpressionAttributeNames,
		ExpressionAttributeValues: req.ExpressionAttributeValues,
		ExclusiveStartKey:         startKey,
		Limit:                     limit,
		ConsistentRead:            req.ConsistentRead,
		ScanIndexForward:          req.ScanIndexForward,
	}
	if req.KeyConditionExpression != "" {
		input.KeyConditionExpression = aws.String(req.KeyConditionExpression)
	}
	if req.FilterExpression != "" {
		input.FilterExpression = aws.String(req.FilterExpression)
	}
	if req.ProjectionExpression != "" {
		input.ProjectionExpression = aws.String(req.ProjectionExpression)
	}
	if req.IndexName != "" {
		input.IndexName = aws.String(req.IndexName)
	}
	if req.Select != "" {
		input.Select = types.Select(req.Select)
	}
	if req.ReturnConsumedCapacity != "" {
		input.ReturnConsumedCapacity = types.ReturnConsumedCapacity(req.ReturnConsumedCapacity)
	}
	return input
}

func buildScanInput(req *core.CompiledRequest, startKey map[string]types.AttributeValue, limit *int32) *dynamodb.ScanInput {
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(req.TableName),
		ExpressionAttributeNames:  req.ExpressionAttributeNames,
		ExpressionAttributeValues: req.ExpressionAttributeValues,
		ExclusiveStartKey:         startKey,
		Limit:                     limit,
		ConsistentRead:            req.ConsistentRead,
		Segment:                   req.Segment,
		TotalSegments:             req.TotalSegments,
	}
	if req.FilterExpression != "" {
		input.FilterExpression = aws.String(req.FilterExpression)
	}
	if req.ProjectionExpression != "" {
		input.ProjectionExpression = aws.String(req.ProjectionExpression)
	}
	if req.IndexName != "" {
		input.IndexName = aws.String(req.IndexName)
	}
	if req.Select != "" {
		input.Select = types.Select(req.Select)
	}
	if req.ReturnConsumedCapacity != "" {
		input.ReturnConsumedCapacity = types.ReturnConsumedCapacity(req.ReturnConsumedCapacity)
	}
	return input
}

func capacityUnits(cc *types.ConsumedCapacity) float64 {
	if cc == nil || cc.CapacityUnits == nil {
		return 0
	}
	return *cc.CapacityUnits
}

func hasCapacity(cc *types.ConsumedCapacity) bool {
	return cc != nil && cc.CapacityUnits != nil
}
