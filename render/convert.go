package render

import (
	"math"
)

// Float is the set of numeric types a depth image can be converted into.
type Float interface {
	~float32 | ~float64
}

// DefaultBadValue is the substitute for missing depths when the caller does not pick one.
func DefaultBadValue[T Float]() T {
	return T(math.Inf(1))
}

// ToVector converts a depth image into a fresh slice of T. Finite depths are copied unchanged,
// which is exact since every depth is a float32. Non-finite ones become bad.
func ToVector[T Float](img DepthImage, bad T) []T {
	out := make([]T, len(img))
	for i, d := range img {
		v := float64(d)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[i] = bad
			continue
		}
		out[i] = T(d)
	}
	return out
}
