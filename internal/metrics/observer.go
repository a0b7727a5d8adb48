package metrics

import "time"

// HubObserver tracks SSE subscribers of the dispatch stream.
type HubObserver interface {
	IncOnline()
	DecOnline()
	RecordPush()
}

// DispatchObserver records dispatcher and broadcast activity.
type DispatchObserver interface {
	ObserveAttempt(channel, outcome string)
	ObserveTick(d time.Duration, aborted bool)
	SetQueueDepth(n int64)
	AddEnqueued(bracket int, n int)
}

type Observer interface {
	HubObserver
	DispatchObserver
}

type nopObserver struct{}

// NewNopObserver discards everything.
func NewNopObserver() Observer { return nopObserver{} }

func (nopObserver) IncOnline() {}
func (nopObserver) DecOnline() {}
func (nopObserver) RecordPush() {}
func (nopObserver) ObserveAttempt(channel, outcome string) {}
func (nopObserver) ObserveTick(time.Duration, bool) {}
func (nopObserver) SetQueueDepth(int64) {}
func (nopObserver) AddEnqueued(int, int) {}
