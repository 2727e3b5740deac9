package dynamori

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamOrder struct {
	PK    string   `dynamodbav:"pk"`
	Total float64  `dynamodbav:"total"`
	Paid  bool     `dynamodbav:"paid"`
	Tags  []string `dynamodbav:"tags"`
}

func TestUnmarshalStreamImage(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"pk":    events.NewStringAttribute("ORDER#1"),
		"total": events.NewNumberAttribute("99.5"),
		"paid":  events.NewBooleanAttribute(true),
		"tags": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("rush"),
			events.NewStringAttribute("gift"),
		}),
	}

	var order streamOrder
	require.NoError(t, UnmarshalStreamImage(image, &order))
	assert.Equal(t, "ORDER#1", order.PK)
	assert.Equal(t, 99.5, order.Total)
	assert.True(t, order.Paid)
	assert.Equal(t, []string{"rush", "gift"}, order.Tags)
}

func TestUnmarshalStreamImageNested(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"meta": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"source": events.NewStringAttribute("api"),
		}),
	}

	var out struct {
		Meta map[string]string `dynamodbav:"meta"`
	}
	require.NoError(t, UnmarshalStreamImage(image, &out))
	assert.Equal(t, "api", out.Meta["source"])
}

func TestUnmarshalStreamImageEmpty(t *testing.T) {
	var order streamOrder
	assert.NoError(t, UnmarshalStreamImage(map[string]events.DynamoDBAttributeValue{}, &order))
}

func TestUnmarshalStreamImageNilDest(t *testing.T) {
	err := UnmarshalStreamImage(map[string]events.DynamoDBAttributeValue{}, nil)
	assert.Error(t, err)
}
