package dynamori

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UnmarshalStreamImage decodes a DynamoDB stream image (from a Lambda event
// record) into dest, converting Lambda's attribute representation to the
// SDK's first.
//
//	func handleStream(record events.DynamoDBEventRecord) error {
//	    var order Order
//	    if err := dynamori.UnmarshalStreamImage(record.Change.NewImage, &order); err != nil {
//	        return err
//	    }
//	    ...
//	}
func UnmarshalStreamImage(streamImage map[string]events.DynamoDBAttributeValue, dest any) error {
	if dest == nil {
		return fmt.Errorf("dynamori: stream image destination is nil")
	}
	item := make(map[string]types.AttributeValue, len(streamImage))
	for k, v := range streamImage {
		item[k] = convertStreamAttributeValue(v)
	}
	return UnmarshalItem(item, dest)
}

func convertStreamAttributeValue(attr events.DynamoDBAttributeValue) types.AttributeValue {
	switch attr.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: attr.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: attr.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: attr.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: attr.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(attr.List()))
		for _, member := range attr.List() {
			list = append(list, convertStreamAttributeValue(member))
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		m := make(map[string]types.AttributeValue, len(attr.Map()))
		for k, v := range attr.Map() {
			m[k] = convertStreamAttributeValue(v)
		}
		return &types.AttributeValueMemberM{Value: m}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: attr.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: attr.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: attr.BinarySet()}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
