package util

import "math/rand"

func RangeInt(to int) []int {
	retval := make([]int, to)
	for i := 0; i < to; i++ {
		retval[i] = i
	}
	return retval
}

// Shuffle permutes order in place when r is non-nil.
func Shuffle(order []int, r *rand.Rand) {
	if r == nil {
		return
	}
	r.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
}
