package tracer

import (
	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

// Insertion points address the gaps of an ordered path. For a path of
// length N there are exactly N+1 of them, numbered 1..N+1:
//
//	point 1   — after the source, before the first element (index 0)
//	point k   — after the (k-1)-th element (index k-1)
//	point N+1 — before the destination (index N)

// InsertionPointCount returns the number of addressable insertion points for
// a path of length n.
func InsertionPointCount(n int) int {
	return n + 1
}

// insertIndex converts a 1-based insertion point into the array index a new
// element is inserted at. Points outside [1, N+1] are an invalid-position
// error.
func insertIndex(point, pathLen int) (int, error) {
	if point < 1 || point > pathLen+1 {
		return 0, apperrors.InvalidPosition(point, pathLen+1)
	}
	return point - 1, nil
}

// insertAt returns seq with name inserted at index i.
func insertAt(seq []string, i int, name string) []string {
	seq = append(seq, "")
	copy(seq[i+1:], seq[i:])
	seq[i] = name
	return seq
}
