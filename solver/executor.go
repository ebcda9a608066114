package solver

// task is one contiguous flat-index range of cells to difference.
type task struct {
	first, last int
	dt          float64
}

// executor is a fixed pool of workers consuming index-range tasks. The
// pool lives as long as its solver; Close tears the workers down.
type executor struct {
	workers int
	tasks   chan task
	done    chan error
	compute func(t task) error
}

func newExecutor(workers int, compute func(t task) error) *executor {
	e := &executor{
		workers: workers,
		tasks:   make(chan task, workers),
		done:    make(chan error, workers),
		compute: compute,
	}
	for i := 0; i < workers; i++ {
		go e.work()
	}
	return e
}

func (e *executor) work() {
	for t := range e.tasks {
		e.done <- e.compute(t)
	}
}

// dispatch splits [0, n) into at most `workers` chunks, hands them to the
// pool and blocks until every chunk reports back. The first worker error
// wins; the barrier still waits for the rest.
func (e *executor) dispatch(n int, dt float64) error {
	if n <= 0 {
		return nil
	}
	chunk := (n + e.workers - 1) / e.workers
	parts := 0
	for first := 0; first < n; first += chunk {
		last := first + chunk
		if last > n {
			last = n
		}
		e.tasks <- task{first: first, last: last, dt: dt}
		parts++
	}
	var firstErr error
	for i := 0; i < parts; i++ {
		if err := <-e.done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *executor) close() {
	close(e.tasks)
}
