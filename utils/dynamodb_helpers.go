package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractInt reads a numeric attribute, returning 0 when absent or malformed.
func ExtractInt(item map[string]types.AttributeValue, field string) int {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			n, err := strconv.Atoi(v.Value)
			if err == nil {
				return n
			}
			f, err := strconv.ParseFloat(v.Value, 64)
			if err == nil {
				return int(f)
			}
		}
	}
	return 0
}

// ExtractBool reads a boolean attribute.
func ExtractBool(item map[string]types.AttributeValue, field string) bool {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberBOOL); ok {
			return v.Value
		}
	}
	return false
}

// StringKey builds the table key for a partition and sort value.
func StringKey(partition, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"invasion": &types.AttributeValueMemberS{Value: partition},
		"id":       &types.AttributeValueMemberS{Value: id},
	}
}
