package spec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

/*
 * Field paths into merged configurations.
 *
 * A path is a dot-separated list of segments, e.g. "props.colors.0". A
 * segment addresses a record field by name, or an array element when the
 * current value is an array and the segment is a non-negative integer.
 * Paths are limited to MaxPathDepth segments.
 */

// MaxPathDepth bounds the number of segments in a field path.
const MaxPathDepth = 32

var (
	// ErrPathInvalid indicates a malformed field path.
	ErrPathInvalid = errors.New("invalid field path")
	// ErrPathNotFound indicates the path does not resolve in the value.
	ErrPathNotFound = errors.New("field path not found")
)

// ParsePath splits a dotted field path into segments.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrPathInvalid)
	}
	segments := strings.Split(path, ".")
	if len(segments) > MaxPathDepth {
		return nil, fmt.Errorf("%w: %d segments exceeds %d", ErrPathInvalid, len(segments), MaxPathDepth)
	}
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty segment at position %d", ErrPathInvalid, i)
		}
	}
	return segments, nil
}

// Lookup resolves path in v and returns a clone of the value found.
func Lookup(v any, path string) (any, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	current := v
	for i, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, strings.Join(segments[:i+1], "."))
		}
		current = next
	}
	return Clone(current), nil
}

func step(current any, seg string) (any, bool) {
	if rec, ok := asRecord(current); ok {
		val, found := rec[seg]
		return val, found
	}
	if arr, ok := current.([]any); ok {
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(arr) {
			return nil, false
		}
		return arr[idx], true
	}
	return nil, false
}
