package dynamodb

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestGetAttr(t *testing.T) {
	t.Run("it returns the attribute value", func(t *testing.T) {
		item := map[string]types.AttributeValue{
			"Value": &types.AttributeValueMemberB{Value: []byte("<value>")},
		}

		v, err := getAttr[*types.AttributeValueMemberB](item, "Value")
		if err != nil {
			t.Fatal(err)
		}

		if string(v.Value) != "<value>" {
			t.Fatalf("unexpected value: got %q", string(v.Value))
		}
	})

	t.Run("it returns an error if the attribute is missing", func(t *testing.T) {
		_, err := getAttr[*types.AttributeValueMemberB](
			map[string]types.AttributeValue{},
			"Value",
		)

		if err == nil || !strings.Contains(err.Error(), `missing "Value" attribute`) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("it returns an error if the attribute has the wrong type", func(t *testing.T) {
		item := map[string]types.AttributeValue{
			"Value": &types.AttributeValueMemberS{Value: "<value>"},
		}

		_, err := getAttr[*types.AttributeValueMemberB](item, "Value")

		if err == nil || !strings.Contains(err.Error(), "item is corrupt") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
