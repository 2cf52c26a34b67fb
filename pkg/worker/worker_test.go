package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolDrainsEveryJob(t *testing.T) {
	var handled int64

	p := NewPool(4, 16)
	p.SetHandler(func(_ int, job interface{}) {
		atomic.AddInt64(&handled, int64(job.(int)))
	})
	p.Start()

	total := int64(0)
	for i := 1; i <= 100; i++ {
		p.Enqueue(i)
		total += int64(i)
	}
	p.Wait()
	p.Stop()

	assert.Equal(t, total, atomic.LoadInt64(&handled))
}

func TestPoolMinimumSize(t *testing.T) {
	p := NewPool(0, 0)
	require.NotNil(t, p)

	var calls int64
	p.SetHandler(func(_ int, _ interface{}) { atomic.AddInt64(&calls, 1) })
	p.Start()
	p.Enqueue(struct{}{})
	p.Wait()
	p.Stop()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestPoolWaitAllowsReuseBeforeStop(t *testing.T) {
	var calls int64

	p := NewPool(2, 4)
	p.SetHandler(func(_ int, _ interface{}) { atomic.AddInt64(&calls, 1) })
	p.Start()

	p.Enqueue(1)
	p.Wait()
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))

	p.Enqueue(2)
	p.Enqueue(3)
	p.Wait()
	p.Stop()

	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}
