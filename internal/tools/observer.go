package tools

import "time"

// Observation describes one finished invocation.
type Observation struct {
	Tool      string
	Duration  time.Duration
	Success   bool
	ErrorKind string
}

// Observer receives one Observation per invocation.
type Observer interface {
	ObserveInvoke(Observation)
}

type nopObserver struct{}

func (nopObserver) ObserveInvoke(Observation) {}
