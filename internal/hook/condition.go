package hook

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ArgEquals returns a condition that is true when the argument at index
// equals want. Out-of-range indexes evaluate false.
func ArgEquals(index int, want any) Condition {
	return func(args []any) bool {
		if index < 0 || index >= len(args) {
			return false
		}
		return args[index] == want
	}
}

// JSONCondition returns a condition over a JSON payload argument: the
// argument at index is treated as a JSON document (string or []byte) and the
// value at path must equal want. Non-JSON arguments and missing paths
// evaluate false.
//
// Collaborators that pass serialized payloads through hooks use this to gate
// handlers on payload content without decoding it themselves, for example:
//
//	hook.JSONCondition(0, "post.status", "published")
func JSONCondition(index int, path string, want any) Condition {
	return func(args []any) bool {
		if index < 0 || index >= len(args) {
			return false
		}

		var doc string
		switch v := args[index].(type) {
		case string:
			doc = v
		case []byte:
			doc = string(v)
		default:
			return false
		}

		res := gjson.Get(doc, path)
		if !res.Exists() {
			return false
		}

		switch w := want.(type) {
		case string:
			return res.String() == w
		case bool:
			if res.Type != gjson.True && res.Type != gjson.False {
				return false
			}
			return res.Bool() == w
		case nil:
			return res.Type == gjson.Null
		default:
			// Numeric comparison covers int/float variants.
			return res.String() == fmt.Sprint(w)
		}
	}
}
