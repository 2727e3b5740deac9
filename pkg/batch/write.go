// Package batch implements the chunked batch-write and batch-get
// coordinators: client-side accumulation up to the protocol caps, duplicate
// key validation, and bounded retry of server-reported unprocessed work.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// Protocol caps per RPC.
const (
	MaxBatchWriteSize = 25
	MaxBatchGetSize   = 100
)

// Target is the table surface the coordinators need: name, key schema, and
// a client. *table.Table satisfies it.
type Target interface {
	core.Queryable
	Client() core.DynamoDBAPI
}

// WriterOptions tunes a batch writer.
type WriterOptions struct {
	// AutoCommit flushes automatically the instant the buffer reaches the
	// protocol cap. When disabled, overfilling the buffer is an error.
	AutoCommit bool
	// RetryPolicy bounds the unprocessed-item retry loop. Nil uses the
	// default policy.
	RetryPolicy *core.RetryPolicy
}

// Writer accumulates put and delete requests for one table and flushes them
// in capped chunks. Not safe for concurrent use.
type Writer struct {
	client    core.DynamoDBAPI
	tableName string
	key       core.KeySchema
	policy    *core.RetryPolicy
	pending   []types.WriteRequest
	seen      map[string]bool
	sleep     func(context.Context, time.Duration) error
	auto      bool
}

// NewWriter creates a batch writer for a table.
func NewWriter(target Target, opts WriterOptions) *Writer {
	policy := opts.RetryPolicy
	if policy == nil {
		policy = core.DefaultRetryPolicy()
	}
	return &Writer{
		client:    target.Client(),
		tableName: target.TableName(),
		key:       target.Schema().Key,
		policy:    policy,
		seen:      make(map[string]bool),
		sleep:     sleepWithContext,
		auto:      opts.AutoCommit,
	}
}

// Save queues a put request. The item must carry the full table key. A
// second write against the same key without an intervening commit fails.
func (w *Writer) Save(ctx context.Context, item any) error {
	av, err := toItem(item)
	if err != nil {
		return &errors.BatchError{Err: err, TableName: w.tableName}
	}
	if err := w.enqueue(ctx, av, types.WriteRequest{
		PutRequest: &types.PutRequest{Item: av},
	}); err != nil {
		return err
	}
	return nil
}

// Delete queues a delete request for the given key.
func (w *Writer) Delete(ctx context.Context, key any) error {
	av, err := toItem(key)
	if err != nil {
		return &errors.BatchError{Err: err, TableName: w.tableName}
	}
	return w.enqueue(ctx, av, types.WriteRequest{
		DeleteRequest: &types.DeleteRequest{Key: w.keyOf(av)},
	})
}

// Pending returns the number of queued, unflushed requests.
func (w *Writer) Pending() int { return len(w.pending) }

func (w *Writer) enqueue(ctx context.Context, item map[string]types.AttributeValue, req types.WriteRequest) error {
	fp, err := w.fingerprint(item)
	if err != nil {
		return err
	}
	if w.seen[fp] {
		return &errors.BatchError{Err: errors.ErrDuplicateBatchKey, TableName: w.tableName}
	}

	if len(w.pending) >= MaxBatchWriteSize {
		// Only reachable without auto-commit; the auto path flushes the
		// moment the cap is hit.
		return &errors.BatchError{
			Err:       errors.ErrBatchSizeExceeded,
			TableName: w.tableName,
			Remaining: len(w.pending),
		}
	}

	w.pending = append(w.pending, req)
	w.seen[fp] = true

	if w.auto && len(w.pending) == MaxBatchWriteSize {
		return w.Commit(ctx)
	}
	return nil
}

// Commit flushes every pending request, retrying server-reported
// unprocessed items with backoff until the set is empty or the retry
// ceiling is hit.
func (w *Writer) Commit(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	requests := w.pending
	w.pending = nil
	w.seen = make(map[string]bool)

	attempts := 0
	for len(requests) > 0 {
		out, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{w.tableName: requests},
		})
		if err != nil {
			return &errors.BatchError{
				Err:       err,
				TableName: w.tableName,
				Remaining: len(requests),
				Attempts:  attempts,
			}
		}

		requests = out.UnprocessedItems[w.tableName]
		if len(requests) == 0 {
			return nil
		}

		attempts++
		if attempts > w.policy.MaxRetries {
			return &errors.BatchError{
				Err:       errors.ErrBatchRetriesExhausted,
				TableName: w.tableName,
				Remaining: len(requests),
				Attempts:  attempts,
			}
		}
		if err := w.sleep(ctx, w.policy.Delay(attempts-1)); err != nil {
			return err
		}
	}
	return nil
}

// Write runs fn against a fresh writer and commits on success. On error
// nothing is flushed, mirroring a scoped-resource block.
func Write(ctx context.Context, target Target, opts WriterOptions, fn func(*Writer) error) error {
	w := NewWriter(target, opts)
	if err := fn(w); err != nil {
		return err
	}
	return w.Commit(ctx)
}

// keyOf extracts the table key attributes from an item.
func (w *Writer) keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, 2)
	for _, attr := range []string{w.key.PartitionKey, w.key.SortKey} {
		if attr == "" {
			continue
		}
		if v, ok := item[attr]; ok {
			key[attr] = v
		}
	}
	return key
}

// fingerprint canonicalizes an item's key for duplicate detection.
func (w *Writer) fingerprint(item map[string]types.AttributeValue) (string, error) {
	attrs := []string{w.key.PartitionKey}
	if w.key.SortKey != "" {
		attrs = append(attrs, w.key.SortKey)
	}
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		v, ok := item[attr]
		if !ok {
			return "", &errors.BatchError{
				Err:       fmt.Errorf("missing key attribute %q", attr),
				TableName: w.tableName,
			}
		}
		parts = append(parts, attr+"="+expr.Fingerprint(v))
	}
	sort.Strings(parts)
	return strings.Join(parts, "\x1f"), nil
}

// toItem accepts a raw attribute-value map or any struct/map the codec can
// marshal.
func toItem(item any) (map[string]types.AttributeValue, error) {
	if av, ok := item.(map[string]types.AttributeValue); ok {
		return av, nil
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item of type %T: %w", item, err)
	}
	return av, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
