package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenString(t *testing.T) {
	assert.Equal(t, "hello", Flatten("hello"))
	// idempotent on leaves
	assert.Equal(t, Flatten("hello"), Flatten(Flatten("hello")))
}

func TestFlattenSingletonUnwraps(t *testing.T) {
	assert.Equal(t, "only", Flatten([]any{"only"}))
	// a singleton flattens identically to flattening its sole element
	inner := map[string]any{"q": []any{"v"}}
	assert.Equal(t, Flatten(inner), Flatten([]any{inner}))
}

func TestFlattenEmptySlice(t *testing.T) {
	assert.Nil(t, Flatten([]any{}))
}

func TestFlattenLongSliceKeepsOrder(t *testing.T) {
	got := Flatten([]any{"a", []any{"b"}, "c"})
	assert.Equal(t, []any{"a", "b", "c"}, got)
}

func TestFlattenMap(t *testing.T) {
	doc := map[string]any{
		"q1": []any{"yes"},
		"q2": []any{"red", "blue"},
		"q3": map[string]any{"nested": []any{"x"}},
	}
	got := Flatten(doc)
	assert.Equal(t, map[string]any{
		"q1": "yes",
		"q2": []any{"red", "blue"},
		"q3": map[string]any{"nested": "x"},
	}, got)
}

func TestFlattenDeeplyNestedSingletons(t *testing.T) {
	assert.Equal(t, "leaf", Flatten([]any{[]any{[]any{"leaf"}}}))
}
