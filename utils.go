package letchain

import (
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func avg[T Number](list []T) float64 {
	if len(list) == 0 {
		return 0
	}

	var sum T
	sum = 0
	for _, val := range list {
		sum += val
	}
	return float64(sum) / float64(len(list))
}

func gcd[T constraints.Integer](a, b T) T {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm[T constraints.Integer](a, b T) T {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// floorDiv and ceilDiv round towards -inf / +inf, unlike the builtin /, which truncates.
// b must be positive.
func floorDiv[T constraints.Integer](a, b T) T {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv[T constraints.Integer](a, b T) T {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

func findMinIndex[T constraints.Ordered](values []T) int {
	if len(values) == 0 {
		return -1
	}

	minIndex := 0
	minValue := values[0]

	for i, value := range values {
		if value < minValue {
			minIndex = i
			minValue = value
		}
	}

	return minIndex
}
