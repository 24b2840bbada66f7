package dropout

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WeTransfer/x-go-dropout/internal/util"
)

func TestEveryValueDestroyedAcrossProducers(t *testing.T) {
	const producers = 8
	const perProducer = 200

	var destroyed int64
	d := New(WithDestructor(func(int) {
		atomic.AddInt64(&destroyed, 1)
	}))

	clones := make([]*Dropper[int], producers)
	for k := range clones {
		clones[k] = d.Clone()
	}

	util.ConcurrentForEach(clones, func(c *Dropper[int]) {
		for v := 0; v < perProducer; v++ {
			c.Dropout(v)
		}
		c.Close()
	})
	d.Close()

	require.EqualValues(t, producers*perProducer, atomic.LoadInt64(&destroyed))
}

func TestSingleProducerFIFO(t *testing.T) {
	var mu sync.Mutex
	var order []int

	d := New(WithDestructor(func(v int) {
		mu.Lock()
		order = append(order, v)
		mu.Unlock()
	}))

	expected := make([]int, 100)
	for v := 0; v < 100; v++ {
		expected[v] = v
		d.Dropout(v)
	}
	d.Close()

	require.Equal(t, expected, order)
}

func TestCloneSharesWorker(t *testing.T) {
	var active, overlapped int32

	d := New(WithDestructor(func(int) {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
	}))

	clones := make([]*Dropper[int], 5)
	for k := range clones {
		clones[k] = d.Clone()
		require.Same(t, d.inner, clones[k].inner)
	}

	util.ConcurrentForEach(clones, func(c *Dropper[int]) {
		for v := 0; v < 10; v++ {
			c.Dropout(v)
		}
		c.Close()
	})
	d.Close()

	require.Zero(t, atomic.LoadInt32(&overlapped), "values were destroyed by more than one worker at once")
}

func TestClosingCloneKeepsLineageAlive(t *testing.T) {
	var destroyed int64
	d := New(WithDestructor(func(int) {
		atomic.AddInt64(&destroyed, 1)
	}))

	c := d.Clone()
	c.Close()
	c.Close() // second release of the same handle is a no-op

	require.Equal(t, StateActive, d.State())

	d.Dropout(1)
	d.Close()

	require.Equal(t, StateTerminated, d.State())
	require.EqualValues(t, 1, atomic.LoadInt64(&destroyed))
}

func TestCloseBlocksUntilBacklogDestroyed(t *testing.T) {
	var finished int32
	d := New(WithDestructor(func(struct{}) {
		time.Sleep(100 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	}))

	d.Dropout(struct{}{})
	d.Close()

	require.EqualValues(t, 1, atomic.LoadInt32(&finished), "Close returned before the queued value was destroyed")
}

func TestDropoutFallsBackInlineAfterDestructorPanic(t *testing.T) {
	var survivorDestroyed int32
	d := New(WithDestructor(func(v int) {
		if v < 0 {
			panic("destructor blew up")
		}
		atomic.StoreInt32(&survivorDestroyed, 1)
	}))

	d.Dropout(-1)
	<-d.inner.done // worker is gone now

	d.Dropout(7)
	require.EqualValues(t, 1, atomic.LoadInt32(&survivorDestroyed),
		"fallback destruction should complete before Dropout returns")

	d.Close()
}

func TestBacklogStillDestroyedWhenWorkerDies(t *testing.T) {
	var destroyed int64
	unblock := make(chan struct{})

	d := New(WithDestructor(func(v int) {
		if v < 0 {
			<-unblock
			panic("destructor blew up")
		}
		atomic.AddInt64(&destroyed, 1)
	}))

	// The worker parks inside the first value's destructor until the rest
	// of the backlog is queued behind it.
	d.Dropout(-1)
	for v := 0; v < 10; v++ {
		d.Dropout(v)
	}
	close(unblock)

	<-d.inner.done
	d.Close()

	require.EqualValues(t, 10, atomic.LoadInt64(&destroyed))
}

func TestDropoutAfterLineageClosedDestroysInline(t *testing.T) {
	var destroyed int32
	d := New(WithDestructor(func(int) {
		atomic.StoreInt32(&destroyed, 1)
	}))
	d.Close()

	d.Dropout(1)
	require.EqualValues(t, 1, atomic.LoadInt32(&destroyed))
}

func TestDropoutReturnTimeIndependentOfDestructorCost(t *testing.T) {
	destroyDelay := 200 * time.Millisecond
	d := New(WithDestructor(func(struct{}) {
		time.Sleep(destroyDelay)
	}))

	clone := d.Clone()
	start := time.Now()
	clone.Dropout(struct{}{})
	elapsed := time.Since(start)
	clone.Close()

	require.Less(t, elapsed, destroyDelay/2,
		"Dropout should return without waiting for the destructor")

	d.Close()
}

type countingCloser struct {
	closed *int32
}

func (c countingCloser) Close() error {
	atomic.AddInt32(c.closed, 1)
	return nil
}

func TestNewCloserClosesValues(t *testing.T) {
	var closed int32
	d := NewCloser[countingCloser]()

	d.Dropout(countingCloser{closed: &closed})
	d.Dropout(countingCloser{closed: &closed})
	d.Close()

	require.EqualValues(t, 2, atomic.LoadInt32(&closed))
}

func TestDefaultDestructorIsNoOp(t *testing.T) {
	d := New[[]byte]()
	d.Dropout(make([]byte, 1<<20))
	d.Close()
	require.Equal(t, StateTerminated, d.State())
}
