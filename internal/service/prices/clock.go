package prices

import "time"

// Clock abstracts time so tests stay deterministic.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func NewRealClock() Clock {
	return realClock{}
}
