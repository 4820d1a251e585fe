package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecuteRunsEveryTaskOnce(t *testing.T) {
	const numTasks = 113
	e := NewExecutor(4, 1)

	var mu sync.Mutex
	seen := make(map[int]int)
	e.Execute(numTasks, func(task int, _ []float64) {
		mu.Lock()
		seen[task]++
		mu.Unlock()
	})

	assert.Len(t, seen, numTasks)
	for task, n := range seen {
		assert.Equal(t, 1, n, "task %d ran %d times", task, n)
	}
}

func TestReduceMatchesSequentialSum(t *testing.T) {
	const (
		numTasks = 64
		bufSize  = 256
	)
	run := func(workers int) []float64 {
		e := NewExecutor(workers, bufSize)
		e.Execute(numTasks, func(task int, out []float64) {
			for i := range out {
				out[i] += float64(task * i)
			}
		})
		dst := make([]float64, bufSize)
		e.Reduce(dst)
		return dst
	}

	serial := run(1)
	parallel := run(8)
	for i := range serial {
		// Every task touches every slot, so worker assignment only
		// changes float addition order; the sums are integers here and
		// compare exactly.
		assert.Equal(t, serial[i], parallel[i], "slot %d", i)
	}
}

func TestReduceClearsAccumulators(t *testing.T) {
	e := NewExecutor(3, 8)
	e.Execute(8, func(task int, out []float64) {
		out[task] = 1
	})

	dst := make([]float64, 8)
	e.Reduce(dst)
	for i, v := range dst {
		assert.Equal(t, 1.0, v, "slot %d after first reduce", i)
	}

	// Accumulators were cleared, so a second reduce adds nothing.
	e.Reduce(dst)
	for i, v := range dst {
		assert.Equal(t, 1.0, v, "slot %d after second reduce", i)
	}
}

func TestWorkerFloorIsOne(t *testing.T) {
	e := NewExecutor(0, 4)
	assert.Equal(t, 1, e.Workers())

	ran := false
	e.Execute(1, func(int, []float64) { ran = true })
	assert.True(t, ran)
}
