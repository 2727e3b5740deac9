package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
	"github.com/dynamori/dynamori/pkg/mocks"
	"github.com/dynamori/dynamori/pkg/query"
)

func eventKeys(n int) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, n)
	for i := 0; i < n; i++ {
		out[i] = mocks.Item("pk", "EVENT", "sk", fmt.Sprintf("E#%03d", i))
	}
	return out
}

func noSleepGetter(g *Getter) {
	g.sleep = func(context.Context, time.Duration) error { return nil }
}

func getOutput(items []map[string]types.AttributeValue, unprocessed []map[string]types.AttributeValue) *dynamodb.BatchGetItemOutput {
	out := &dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{"events": items},
	}
	if len(unprocessed) > 0 {
		out.UnprocessedKeys = map[string]types.KeysAndAttributes{
			"events": {Keys: unprocessed},
		}
	}
	return out
}

// 150 keys split into a 100-key chunk and a 50-key chunk, fetched lazily:
// the second RPC happens only once the first chunk is drained.
func TestGetterChunksLazily(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	keys := eventKeys(150)

	var sent [][]map[string]types.AttributeValue
	capture := func(args mock.Arguments) {
		input := args.Get(1).(*dynamodb.BatchGetItemInput)
		sent = append(sent, input.RequestItems["events"].Keys)
	}
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Run(capture).Return(getOutput(keys[:100], nil), nil).Once()
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Run(capture).Return(getOutput(keys[100:], nil), nil).Once()

	g := NewGetter(eventsTable(t, client), keys, GetterOptions{Decode: query.DecodeRaw})
	noSleepGetter(g)

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		_, err := g.Next(ctx)
		require.NoError(t, err)
	}
	require.Len(t, sent, 1)
	assert.Len(t, sent[0], 100)

	items, err := g.All(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 50)
	require.Len(t, sent, 2)
	assert.Len(t, sent[1], 50)
	client.AssertExpectations(t)
}

func TestGetterRetriesUnprocessedKeys(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	keys := eventKeys(4)

	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(getOutput(keys[2:], keys[:2]), nil).Once()
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(getOutput(keys[:2], nil), nil).Once()

	g := NewGetter(eventsTable(t, client), keys, GetterOptions{Decode: query.DecodeRaw})
	noSleepGetter(g)

	items, err := g.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)
	client.AssertExpectations(t)
}

func TestGetterRetriesExhausted(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	keys := eventKeys(2)

	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(getOutput(nil, keys), nil)

	policy := core.DefaultRetryPolicy()
	policy.MaxRetries = 1
	g := NewGetter(eventsTable(t, client), keys, GetterOptions{RetryPolicy: policy})
	noSleepGetter(g)

	_, err := g.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBatchRetriesExhausted)

	var batchErr *errors.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Remaining)
}

func TestGetterProjectionAndConsistency(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	keys := eventKeys(1)

	var input *dynamodb.BatchGetItemInput
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { input = args.Get(1).(*dynamodb.BatchGetItemInput) }).
		Return(getOutput(keys, nil), nil).Once()

	g := NewGetter(eventsTable(t, client), keys, GetterOptions{
		Projection:     []string{"pk", "payload"},
		ConsistentRead: true,
	})
	noSleepGetter(g)

	_, err := g.Next(context.Background())
	require.NoError(t, err)

	require.NotNil(t, input)
	ka := input.RequestItems["events"]
	assert.Equal(t, aws.Bool(true), ka.ConsistentRead)
	assert.Equal(t, aws.String("#0, #1"), ka.ProjectionExpression)
	assert.Equal(t, map[string]string{"#0": "pk", "#1": "payload"}, ka.ExpressionAttributeNames)
}

func TestGetterTransportError(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("connection reset")).Once()

	g := NewGetter(eventsTable(t, client), eventKeys(1), GetterOptions{})
	noSleepGetter(g)

	_, err := g.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetterDefaultDecode(t *testing.T) {
	client := new(mocks.MockDynamoDBAPI)
	keys := eventKeys(1)
	client.On("BatchGetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(getOutput(keys, nil), nil).Once()

	g := NewGetter(eventsTable(t, client), keys, GetterOptions{})
	noSleepGetter(g)

	item, err := g.Next(context.Background())
	require.NoError(t, err)
	decoded, ok := item.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EVENT", decoded["pk"])
}

func TestGetterEmptyKeys(t *testing.T) {
	g := NewGetter(eventsTable(t, new(mocks.MockDynamoDBAPI)), nil, GetterOptions{})
	_, err := g.Next(context.Background())
	assert.ErrorIs(t, err, errors.ErrIteratorExhausted)
}
