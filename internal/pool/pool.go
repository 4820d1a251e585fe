// Package pool runs independent per-band tasks over a fixed set of worker
// goroutines. Work is claimed by index from a shared atomic counter rather
// than pre-partitioned, so uneven bands (low frequencies cost more) balance
// naturally. Each worker owns a private output accumulator; the caller sums
// them after Execute returns, keeping the parallel phase free of shared
// mutable state.
package pool

import (
	"sync"
	"sync/atomic"
)

// Executor is a bounded worker pool with one private accumulator per worker.
type Executor struct {
	workers int
	bufs    [][]float64
	next    atomic.Int64
}

// NewExecutor creates an executor with the given worker count and per-worker
// accumulator size in samples.
func NewExecutor(workers, bufSize int) *Executor {
	if workers < 1 {
		workers = 1
	}
	e := &Executor{
		workers: workers,
		bufs:    make([][]float64, workers),
	}
	for i := range e.bufs {
		e.bufs[i] = make([]float64, bufSize)
	}
	return e
}

// Workers returns the pool size.
func (e *Executor) Workers() int { return e.workers }

// Execute runs fn once for every task index in [0, numTasks), spread across
// the pool. fn receives the claimed task index and the worker's private
// accumulator. Execute blocks until every task has completed; the returned
// happens-before edge makes all accumulator writes visible to the caller.
func (e *Executor) Execute(numTasks int, fn func(task int, out []float64)) {
	e.next.Store(0)
	var wg sync.WaitGroup
	wg.Add(e.workers)
	for w := 0; w < e.workers; w++ {
		go func(out []float64) {
			defer wg.Done()
			for {
				task := e.next.Add(1) - 1
				if task >= int64(numTasks) {
					return
				}
				fn(int(task), out)
			}
		}(e.bufs[w])
	}
	wg.Wait()
}

// Reduce sums every worker accumulator into dst and zeroes the accumulators
// for reuse. dst must not be longer than the accumulators.
func (e *Executor) Reduce(dst []float64) {
	for _, buf := range e.bufs {
		for i := range dst {
			dst[i] += buf[i]
		}
		clear(buf[:len(dst)])
	}
}
