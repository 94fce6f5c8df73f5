package extraction

import (
	"fmt"
	"strconv"
)

// Flatten collapses a nested object into dotted-path keys with string
// values. Array elements use their index as a path segment; nils are
// dropped.
func Flatten(fields map[string]any) map[string]string {
	out := map[string]string{}
	for key, value := range fields {
		flattenValue(out, key, value)
	}
	return out
}

func flattenValue(out map[string]string, key string, value any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for k, nested := range v {
			flattenValue(out, key+"."+k, nested)
		}
	case []any:
		for i, nested := range v {
			flattenValue(out, key+"."+strconv.Itoa(i), nested)
		}
	case string:
		out[key] = v
	case bool:
		out[key] = strconv.FormatBool(v)
	case float64:
		out[key] = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		out[key] = fmt.Sprintf("%v", v)
	}
}
