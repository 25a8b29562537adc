package usecase

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

// DBのtimestamptzに合わせてマイクロ秒で切る
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
