package swagger

import "strings"

// CleanText returns a copy of doc in which every string value has runs of whitespace collapsed
// to a single space and leading/trailing whitespace removed. Keys are left as they are.
func CleanText(doc Document) Document {
	return Document(cleanValue(map[string]any(doc)).(map[string]any))
}

// CleanString collapses whitespace runs in s and trims it.
func CleanString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return CleanString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cleanValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cleanValue(val)
		}
		return out
	default:
		return v
	}
}
