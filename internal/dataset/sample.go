package dataset

import "math/rand"

// Sample draws min(n, Len) rows without replacement using a seeded
// permutation. The drawn rows keep the permutation order, so asking for
// every row still shuffles them. n <= 0 returns f as is.
func Sample(f *Frame, n int, seed int64) (*Frame, bool) {
	if n <= 0 {
		return f, false
	}
	n = min(n, f.Len())
	rng := rand.New(rand.NewSource(seed))
	rows := rng.Perm(f.Len())[:n]
	return f.Take(rows), true
}
