package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// getAttr returns the attribute with the given name from item, or an error if
// it is missing or has an unexpected type.
func getAttr[T types.AttributeValue](
	item map[string]types.AttributeValue,
	name string,
) (v T, err error) {
	a, ok := item[name]
	if !ok {
		return v, fmt.Errorf("item is corrupt: missing %q attribute", name)
	}

	v, ok = a.(T)
	if !ok {
		return v, fmt.Errorf(
			"item is corrupt: %q attribute should be %T not %T",
			name,
			v,
			a,
		)
	}

	return v, nil
}
