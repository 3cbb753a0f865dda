// Package registry provides a concurrent name to value registry backed by haxmap.
package registry

import "github.com/alphadose/haxmap"

// Registry maps names to values and is safe for concurrent use.
type Registry[T any] interface {
	// Get returns the value registered under name.
	Get(name string) (T, bool)
	// GetOrAdd returns the value registered under name, or registers the result of valueFn.
	// loaded reports whether the value was already present.
	GetOrAdd(name string, valueFn func() T) (value T, loaded bool)
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}
