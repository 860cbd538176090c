package helpers

import (
	mathrand "math/rand"
	"time"
)

// RandomDelay blocks for a uniformly random duration in [min, max]. It is
// the politeness pause inserted before every outbound fetch; randomness
// keeps the request pattern from looking mechanical.
func RandomDelay(min, max time.Duration) {
	if min < 0 {
		min = 0
	}
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(mathrand.Int63n(int64(max-min)+1)))
}
