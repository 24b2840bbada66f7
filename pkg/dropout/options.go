package dropout

import "context"

type dropperOptions[T any] struct {
	Ctx     context.Context
	Destroy func(T)
}

type Option[T any] func(dropperOptions[T]) dropperOptions[T]

// WithDestructor sets the hook the worker invokes on each value to release
// whatever the value owns. Without one, the worker simply lets go of its
// reference to the value.
func WithDestructor[T any](destroy func(T)) Option[T] {
	return func(o dropperOptions[T]) dropperOptions[T] {
		o.Destroy = destroy
		return o
	}
}

// WithContext attaches a context whose zerolog logger the worker will log
// through. The context is not used for cancellation; a Dropper only stops
// once its last handle is closed.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(o dropperOptions[T]) dropperOptions[T] {
		o.Ctx = ctx
		return o
	}
}
