package s3io

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingLayoutID is returned when an object key has no layout segment.
var ErrMissingLayoutID = errors.New("object key has no layout segment")

// ParseKey extracts the layout identifier and filename from an object key of
// the form "{layoutId}/{filename}". Nested filenames keep their remaining
// path segments.
func ParseKey(key string) (layoutID, filename string, err error) {
	layoutID, filename, found := strings.Cut(key, "/")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrMissingLayoutID, key)
	}
	if strings.TrimSpace(layoutID) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMissingLayoutID, key)
	}
	return layoutID, filename, nil
}
