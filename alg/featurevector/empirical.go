package featurevector

// Empirical counts the sufficient statistics of tagging x with y: every
// token t adds 1 to unary block i at (y[t], x[t][i]) and every adjacent pair
// adds 1 to the transition block at (y[t], y[t+1]).
func Empirical(desc *Descriptor, x [][]int, y []int) (*FeatureVector, error) {
	if y == nil {
		y = []int{}
	}
	if err := desc.CheckSequence(x, y); err != nil {
		return nil, err
	}
	counts := New(desc)
	pairwise := len(counts.blocks) - 1
	for t, token := range x {
		for i, val := range token {
			counts.Inc(i, y[t], val, 1)
		}
		if t > 0 {
			counts.Inc(pairwise, y[t-1], y[t], 1)
		}
	}
	return counts, nil
}
