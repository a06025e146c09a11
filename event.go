package slab

import "go.uber.org/zap"

const eventCapacity = 8

type binding[A, R any] struct {
	name string
	fn   func(A) R
	gen  uint64 // Invoke that added the binding
}

// Event is a multicast callback list: any number of functions can be bound,
// and Invoke calls all of them with the same argument.
//
// Bind returns a Handle that is the binding's identity. Use it to unbind;
// two closures that look the same are still distinct bindings. Named
// bindings can also be removed by name.
//
// The zero value is ready to use. An Event is not safe for concurrent use.
type Event[A, R any] struct {
	bindings Pool[binding[A, R]]
	names    map[string][]Handle
	invoking uint64
}

// NewEvent creates an event with room for a handful of bindings.
func NewEvent[A, R any](opts ...Option) *Event[A, R] {
	o := buildOptions(opts)
	e := &Event[A, R]{}
	e.bindings.log = o.log
	e.bindings.rebuild(eventCapacity)
	return e
}

// Count returns the number of bound functions.
func (e *Event[A, R]) Count() int {
	return e.bindings.Count()
}

// Cap returns the number of bindings the event can hold before growing.
func (e *Event[A, R]) Cap() int {
	return e.bindings.Cap()
}

// Bind adds fn and returns the handle that unbinds it. It panics if fn is nil.
func (e *Event[A, R]) Bind(fn func(A) R) Handle {
	return e.BindNamed("", fn)
}

// BindNamed adds fn under name. Several bindings may share a name; the
// returned handle still identifies this one binding. An empty name is the
// same as Bind.
func (e *Event[A, R]) BindNamed(name string, fn func(A) R) Handle {
	if fn == nil {
		panic("slab: cannot bind nil callback")
	}
	h := e.bindings.Insert(binding[A, R]{name: name, fn: fn, gen: e.invoking})
	if name != "" {
		if e.names == nil {
			e.names = make(map[string][]Handle)
		}
		e.names[name] = append(e.names[name], h)
	}
	return h
}

// Unbind removes the binding identified by h and reports whether it existed.
func (e *Event[A, R]) Unbind(h Handle) bool {
	b, ok := e.bindings.Find(h)
	if !ok {
		return false
	}
	if b.name != "" {
		e.forget(b.name, h)
	}
	if ce := e.bindings.logger().Check(zap.DebugLevel, "slab event unbound"); ce != nil {
		ce.Write(zap.String("name", b.name), zap.Int("handle", int(h)))
	}
	return e.bindings.Erase(h)
}

// UnbindNamed removes the earliest binding still bound under name.
func (e *Event[A, R]) UnbindNamed(name string) bool {
	hs := e.names[name]
	if len(hs) == 0 {
		return false
	}
	return e.Unbind(hs[0])
}

// IsBound reports whether h identifies a live binding.
func (e *Event[A, R]) IsBound(h Handle) bool {
	return e.bindings.Contains(h)
}

// IsBoundNamed reports whether at least one binding uses name.
func (e *Event[A, R]) IsBoundNamed(name string) bool {
	return len(e.names[name]) > 0
}

// Invoke calls every bound function with arg in ascending handle order and
// returns the result of the last one called, or the zero R when nothing is
// bound.
//
// A callback may unbind any binding, including itself; bindings removed
// before their turn are skipped. Bindings added during Invoke are not called
// until the next Invoke, even when they reuse a slot that is still ahead.
func (e *Event[A, R]) Invoke(arg A) R {
	var result R
	e.invoking++
	gen := e.invoking
	for i := 0; i < len(e.bindings.slots); i++ {
		s := &e.bindings.slots[i]
		if !s.Occupied || s.Value.gen == gen {
			continue
		}
		result = s.Value.fn(arg)
	}
	return result
}

// Clear unbinds every function, keeping the current capacity.
func (e *Event[A, R]) Clear() {
	e.bindings.Reset(e.bindings.Cap())
	clear(e.names)
}

func (e *Event[A, R]) forget(name string, h Handle) {
	hs := e.names[name]
	for i, v := range hs {
		if v == h {
			hs = append(hs[:i], hs[i+1:]...)
			break
		}
	}
	if len(hs) == 0 {
		delete(e.names, name)
		return
	}
	e.names[name] = hs
}
