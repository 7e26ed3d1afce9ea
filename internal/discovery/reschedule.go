package discovery

import (
	"math/rand"
	"time"

	"github.com/xonecas/zoea-discovery/internal/constants"
)

// RandomInterval draws uniformly from [min, max]. Bounds given in the wrong
// order are swapped.
func RandomInterval(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}

// Jitter returns a short random delay of a few seconds.
func Jitter(rng *rand.Rand) time.Duration {
	return RandomInterval(rng, constants.MinJitter, constants.MaxJitter)
}

// NextInterval picks the wait before the next cycle. In delay mode it waits for
// the soonest fleet return plus jitter instead of the regular cadence. The
// result is always strictly positive.
func NextInterval(rng *rand.Rand, min, max time.Duration, delay bool, soonestReturn time.Duration) time.Duration {
	interval := RandomInterval(rng, min, max)
	if delay {
		interval = soonestReturn + Jitter(rng)
	}
	if interval <= 0 {
		interval = Jitter(rng)
	}
	return interval
}
