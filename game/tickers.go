package game

import "time"

// TickerCreator hands out periodic tick channels together with a function
// releasing them.
type TickerCreator interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type ticker struct{}

func (ticker) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func NewTickerCreator() TickerCreator {
	return ticker{}
}
