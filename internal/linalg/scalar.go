package linalg

import "golang.org/x/exp/constraints"

// ScalarEpsilon is the tolerance used for natural coordinate and degeneracy checks.
const ScalarEpsilon = 1e-10

// Clamp snaps value to max when it is within epsilon of (or above) max,
// otherwise to min when it is within epsilon of (or below) min.
func Clamp[T constraints.Integer | constraints.Float](value *T, min, max, epsilon T) {
	if *value >= max-epsilon {
		*value = max
	} else if *value <= min+epsilon {
		*value = min
	}
}

// ClampValue is the value-returning form of Clamp.
func ClampValue[T constraints.Integer | constraints.Float](value, min, max, epsilon T) T {
	Clamp(&value, min, max, epsilon)
	return value
}
