package solver

import "sync"

// CalcHub coordinates a running simulation with whoever consumes its
// intermediate results: the run loop raises PeriodResult ticks, the
// consumer closes Stop to interrupt the run.
type CalcHub struct {
	Stop         chan struct{}
	PeriodResult chan struct{}
	stopOnce     sync.Once
}

func NewCalcHub() *CalcHub {
	return &CalcHub{
		Stop:         make(chan struct{}),
		PeriodResult: make(chan struct{}, 1),
	}
}

// StopSignal interrupts the run. Calling it again is a no-op.
func (h *CalcHub) StopSignal() {
	h.stopOnce.Do(func() { close(h.Stop) })
}

// PushSignal raises a result tick. If the consumer is still busy with the
// previous tick the new one is dropped rather than stalling the run loop.
func (h *CalcHub) PushSignal() {
	select {
	case h.PeriodResult <- struct{}{}:
	default:
	}
}
