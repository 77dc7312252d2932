package tree

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Text renders a value for embedding inside a larger string. Scalars use their
// natural form; objects and arrays are JSON-encoded.
func Text(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), nil
	case json.Number:
		return typed.String(), nil
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", fmt.Errorf("tree: encode %s: %w", KindOf(typed), err)
		}
		return string(encoded), nil
	default:
		return fmt.Sprint(typed), nil
	}
}
