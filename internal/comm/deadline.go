package comm

import "time"

// Remaining is the time left until deadline, never negative.
func Remaining(deadline, now time.Time) time.Duration {
	if left := deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}
