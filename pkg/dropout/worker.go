package dropout

import "github.com/rs/zerolog/log"

// run is the worker loop: receive until the queue is closed and drained,
// destroying each value received. A destructor panic terminates the worker;
// from then on Dropout destroys values inline on the calling goroutine, and
// the final Close destroys whatever was still queued.
func (in *inner[T]) run() {
	defer close(in.done)

	logger := log.Ctx(in.ctx)
	logger.Debug().Msg("Dropout worker started")

	destroyed := 0
	for {
		item, ok := in.queue.Pop()
		if !ok {
			break
		}
		if !in.destroyGuarded(item) {
			in.queue.Fail()
			logger.Warn().
				Int("destroyed", destroyed).
				Int("backlog", in.queue.Len()).
				Msg("Worker halted by destructor panic, further dropouts destroy inline")
			return
		}
		destroyed++
	}

	logger.Debug().Int("destroyed", destroyed).Msg("Queue drained, worker done")
}

// destroyGuarded reports whether the destructor completed without panicking.
func (in *inner[T]) destroyGuarded(item T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(in.ctx).Error().Interface("panic", r).Msg("Destructor panicked")
			ok = false
		}
	}()
	in.destroyValue(item)
	return true
}
