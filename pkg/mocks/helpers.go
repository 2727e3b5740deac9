package mocks

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item builds an attribute-value map from string pairs. Convenient for
// scripting page contents in tests.
func Item(pairs ...string) map[string]types.AttributeValue {
	if len(pairs)%2 != 0 {
		panic("mocks.Item requires an even number of arguments")
	}
	item := make(map[string]types.AttributeValue, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		item[pairs[i]] = &types.AttributeValueMemberS{Value: pairs[i+1]}
	}
	return item
}

// Items builds n sequential items keyed by pk/sk, useful when only counts
// and keys matter.
func Items(n int, prefix string) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, n)
	for i := 0; i < n; i++ {
		out[i] = Item("pk", prefix, "sk", fmt.Sprintf("%s#%03d", prefix, i))
	}
	return out
}

// QueryPage builds a QueryOutput with counts derived from the items. A nil
// lastKey marks the final page.
func QueryPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) *dynamodb.QueryOutput {
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}
}

// ScanPage builds a ScanOutput with counts derived from the items.
func ScanPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) *dynamodb.ScanOutput {
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}
}

// WithCapacity attaches consumed capacity to a scan page, as returned when
// ReturnConsumedCapacity is TOTAL.
func WithCapacity(page *dynamodb.ScanOutput, units float64) *dynamodb.ScanOutput {
	page.ConsumedCapacity = &types.ConsumedCapacity{CapacityUnits: aws.Float64(units)}
	return page
}
