package engine

import "sync"

// Sequence returns a deterministic Rand that replays draws in order, each
// reduced modulo n. It cycles when exhausted.
func Sequence(draws ...int) Rand {
	var (
		mu sync.Mutex
		i  int
	)
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		if len(draws) == 0 {
			return 0
		}
		v := draws[i%len(draws)]
		i++
		if v < 0 {
			v = -v
		}
		return v % n
	}
}
