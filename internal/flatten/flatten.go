// Package flatten collapses nested multi-valued documents, as produced by
// generic XML parsing, into idiomatic JSON-like values.
package flatten

// Flatten normalizes a document node. Strings pass through unchanged. A slice
// of length zero or one is unwrapped to its (flattened) sole element, so the
// common XML case of a single repeated child reads as a plain value. Longer
// slices keep their order with each element flattened. Maps flatten each
// child value under its original key.
func Flatten(node any) any {
	switch v := node.(type) {
	case []any:
		switch len(v) {
		case 0:
			return nil
		case 1:
			return Flatten(v[0])
		default:
			out := make([]any, len(v))
			for i, el := range v {
				out[i] = Flatten(el)
			}
			return out
		}
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			out[k] = Flatten(el)
		}
		return out
	default:
		return v
	}
}
