package netutil_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/netutil"
)

func TestWorkerPool_ProcessesSubmittedTasks(t *testing.T) {
	pool := netutil.NewWorkerPool(4)
	var tb tomb.Tomb

	var processed atomic.Int64
	tb.Go(func() error {
		pool.Setup(&tb, func(_ *tomb.Tomb, task any) error {
			n := task.(int)
			processed.Add(int64(n))
			return nil
		})
		return nil
	})

	for i := 1; i <= 5; i++ {
		pool.Submit(i)
	}

	assert.Eventually(t, func() bool {
		return processed.Load() == 15
	}, time.Second, time.Millisecond)

	tb.Kill(nil)
	_ = tb.Wait()
}
