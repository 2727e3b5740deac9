package batch

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
	"github.com/dynamori/dynamori/pkg/query"
)

// GetterOptions tunes a batch getter.
type GetterOptions struct {
	// Projection restricts returned attributes.
	Projection []string
	// ConsistentRead requests strongly consistent reads.
	ConsistentRead bool
	// RetryPolicy bounds the unprocessed-key retry loop. Nil uses the
	// default policy.
	RetryPolicy *core.RetryPolicy
	// Decode maps raw items to caller values; nil decodes to
	// map[string]any.
	Decode query.DecodeFunc
}

// Getter reads many keys in capped chunks, yielding items lazily as each
// chunk arrives. Item order across chunks does not match request order.
// Single-pass; not safe for concurrent use.
type Getter struct {
	client    core.DynamoDBAPI
	tableName string
	keys      []map[string]types.AttributeValue
	opts      GetterOptions
	policy    *core.RetryPolicy
	decode    query.DecodeFunc
	sleep     func(context.Context, time.Duration) error
	buffer    []map[string]types.AttributeValue
	bufIdx    int
	offset    int
}

// NewGetter prepares a batch read for the given keys.
func NewGetter(target Target, keys []map[string]types.AttributeValue, opts GetterOptions) *Getter {
	policy := opts.RetryPolicy
	if policy == nil {
		policy = core.DefaultRetryPolicy()
	}
	decode := opts.Decode
	if decode == nil {
		decode = query.DecodeMap
	}
	return &Getter{
		client:    target.Client(),
		tableName: target.TableName(),
		keys:      keys,
		opts:      opts,
		policy:    policy,
		decode:    decode,
		sleep:     sleepWithContext,
	}
}

// Next returns the next decoded item, fetching the next chunk when the
// current one is drained. Returns ErrIteratorExhausted at the end.
func (g *Getter) Next(ctx context.Context) (any, error) {
	for {
		if g.bufIdx < len(g.buffer) {
			item := g.buffer[g.bufIdx]
			g.bufIdx++
			return g.decode(item)
		}
		if g.offset >= len(g.keys) {
			return nil, errors.ErrIteratorExhausted
		}
		if err := g.fetchChunk(ctx); err != nil {
			return nil, err
		}
	}
}

// All drains the getter into a slice.
func (g *Getter) All(ctx context.Context) ([]any, error) {
	var out []any
	for {
		item, err := g.Next(ctx)
		if err != nil {
			if err == errors.ErrIteratorExhausted {
				return out, nil
			}
			return out, err
		}
		out = append(out, item)
	}
}

// fetchChunk issues RPCs for the next slice of keys, retrying unprocessed
// keys with backoff until none remain or the retry ceiling is hit.
func (g *Getter) fetchChunk(ctx context.Context) error {
	end := g.offset + MaxBatchGetSize
	if end > len(g.keys) {
		end = len(g.keys)
	}
	keys := g.keys[g.offset:end]
	g.offset = end

	var items []map[string]types.AttributeValue
	attempts := 0
	for len(keys) > 0 {
		out, err := g.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				g.tableName: g.keysAndAttributes(keys),
			},
		})
		if err != nil {
			return &errors.BatchError{
				Err:       err,
				TableName: g.tableName,
				Remaining: len(keys),
				Attempts:  attempts,
			}
		}

		items = append(items, out.Responses[g.tableName]...)

		unprocessed, ok := out.UnprocessedKeys[g.tableName]
		if !ok || len(unprocessed.Keys) == 0 {
			break
		}
		keys = unprocessed.Keys

		attempts++
		if attempts > g.policy.MaxRetries {
			return &errors.BatchError{
				Err:       errors.ErrBatchRetriesExhausted,
				TableName: g.tableName,
				Remaining: len(keys),
				Attempts:  attempts,
			}
		}
		if err := g.sleep(ctx, g.policy.Delay(attempts-1)); err != nil {
			return err
		}
	}

	g.buffer = items
	g.bufIdx = 0
	return nil
}

func (g *Getter) keysAndAttributes(keys []map[string]types.AttributeValue) types.KeysAndAttributes {
	ka := types.KeysAndAttributes{Keys: keys}
	if g.opts.ConsistentRead {
		ka.ConsistentRead = aws.Bool(true)
	}
	if len(g.opts.Projection) > 0 {
		compiler := expr.NewCompiler()
		refs := make([]string, len(g.opts.Projection))
		for i, path := range g.opts.Projection {
			refs[i] = compiler.Ref(path)
		}
		ka.ProjectionExpression = aws.String(strings.Join(refs, ", "))
		ka.ExpressionAttributeNames = compiler.Names()
	}
	return ka
}
