package dropout

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/WeTransfer/x-go-dropout/internal/util"
)

// Dropper hands values to a background worker goroutine to be destroyed
// there. Cloning a Dropper is cheap and all clones feed the same worker;
// see the package documentation for the ordering and teardown contract.
type Dropper[T any] struct {
	inner *inner[T]

	// released flips once when this particular handle gives up its
	// reference, making Close idempotent per handle.
	released uint32
}

// inner is the state shared by every clone of one Dropper lineage. All
// fields except refs are set at construction and never reassigned.
type inner[T any] struct {
	refs    int64
	queue   *queue[T]
	done    chan struct{}
	destroy func(T)
	life    *lifecycle
	ctx     context.Context
}

// New creates a Dropper and starts its worker goroutine. The returned handle
// owns one reference; share the Dropper across goroutines via Clone, and
// Close every handle when done with it.
func New[T any](opts ...Option[T]) *Dropper[T] {
	cfg := util.ApplyOpts(opts, dropperOptions[T]{
		Ctx: context.Background(),
	})

	in := &inner[T]{
		refs:    1,
		queue:   newQueue[T](),
		done:    make(chan struct{}),
		destroy: cfg.Destroy,
		life:    &lifecycle{},
		ctx:     cfg.Ctx,
	}
	go in.run()

	return &Dropper[T]{inner: in}
}

// NewCloser creates a Dropper for values with a Close method; the worker
// closes each value and logs any error. A destructor supplied through
// WithDestructor still takes precedence.
func NewCloser[T io.Closer](opts ...Option[T]) *Dropper[T] {
	all := append([]Option[T]{WithDestructor[T](closeValue[T])}, opts...)
	return New(all...)
}

func closeValue[T io.Closer](value T) {
	if err := value.Close(); err != nil {
		log.Err(err).Msg("Background close failed")
	}
}

// Clone returns a new handle sharing this Dropper's queue and worker. It is
// an atomic refcount increment; no goroutine is started. Safe to call
// concurrently from any goroutine holding a live handle.
func (d *Dropper[T]) Clone() *Dropper[T] {
	atomic.AddInt64(&d.inner.refs, 1)
	return &Dropper[T]{inner: d.inner}
}

// Dropout sends value to the background worker to be destroyed there and
// returns without waiting for that to happen. If the worker is unreachable
// (most plausibly because a previous value's destructor panicked and took
// the worker down), the value is destroyed synchronously on the calling
// goroutine instead. Either way the value is destroyed exactly once; the
// caller is not told which path ran.
//
// The value must not be touched by the caller after Dropout returns.
func (d *Dropper[T]) Dropout(value T) {
	if d.inner.queue.Push(value) {
		return
	}
	// No worker to hand off to; destroy in place so the value never leaks.
	d.inner.destroyValue(value)
}

// Close releases this handle. Whichever call releases the lineage's last
// handle closes the queue and blocks until the worker has destroyed every
// value still queued and terminated; all other calls return immediately.
// That final drain is the one significant blocking point in this package,
// and it lands on whichever goroutine happens to close last, not
// necessarily one that enqueued anything.
//
// Close is safe to call more than once on the same handle, and safe to call
// concurrently with Dropout on other clones.
func (d *Dropper[T]) Close() {
	if !atomic.CompareAndSwapUint32(&d.released, 0, 1) {
		return
	}
	if atomic.AddInt64(&d.inner.refs, -1) > 0 {
		return
	}
	d.inner.release()
}

// State reports which lifecycle phase this Dropper's lineage is in.
func (d *Dropper[T]) State() State {
	return d.inner.life.Get()
}

// release runs on whichever goroutine dropped the last reference and bears
// the full drain cost.
func (in *inner[T]) release() {
	logger := log.Ctx(in.ctx)
	start := time.Now()

	in.life.TrySet(StateClosing)
	logger.Debug().Int("backlog", in.queue.Len()).Msg("Last handle released, closing queue")
	in.queue.Close()

	in.life.TrySet(StateDraining)
	<-in.done

	// Only non-empty when the worker died before the queue emptied.
	for _, item := range in.queue.TakeRemaining() {
		in.finalizeAbandoned(item)
	}

	in.life.TrySet(StateTerminated)
	logger.Debug().Dur("draintime", time.Since(start)).Msg("Drain complete")
}

func (in *inner[T]) destroyValue(value T) {
	if in.destroy == nil {
		return // letting go of the reference is all the release there is
	}
	in.destroy(value)
}

// finalizeAbandoned destroys an item the dead worker never reached. A second
// panic must not strand the rest of the backlog, so each item is guarded.
func (in *inner[T]) finalizeAbandoned(item T) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(in.ctx).Error().Interface("panic", r).Msg("Destructor panicked during final drain")
		}
	}()
	in.destroyValue(item)
}
