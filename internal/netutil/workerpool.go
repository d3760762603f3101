// Package netutil holds small concurrency helpers shared by the wire-protocol
// server: a tomb-supervised worker pool that dispatches arbitrary tasks.
package netutil

import (
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunction is the unit of work a pool dispatches to an idle worker.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines pulling from a shared task
// channel, supervised by a tomb so the whole pool dies together.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool builds a pool sized for `size` concurrent workers.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// Submit enqueues a task for a worker to pick up. It blocks if the queue is
// full.
func (pool *WorkerPool) Submit(task any) {
	pool.tasks <- task
}

// Setup keeps the pool topped up at its configured size, respawning a
// worker as soon as one finishes its task, until the tomb starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("workerpool: starting")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < pool.n {
				t.Go(func() error {
					err := pool.worker(t, work)
					active--
					return err
				})
				active++
			} else {
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// worker waits for exactly one task (or tomb death) and runs it once. Setup
// respawns a replacement as soon as this returns, so the pool always has `n`
// workers available.
func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-pool.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("workerpool: task failed")
			return err
		}
	}
	return nil
}
