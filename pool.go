// Package slab provides a slot-based object pool that hands out stable,
// reusable integer handles, together with a few small containers built on
// top of it: a multicast callback list, a typed event bus, a named object
// table and a state machine host.
package slab

import (
	"fmt"
	"iter"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of slots a pool starts with when no capacity
// is given, and the size Clear rebuilds to.
const DefaultCapacity = 16

// Handle identifies a slot in the pool that issued it. Handles are plain
// indices: they survive storage growth, but passing a handle to a pool other
// than the one that issued it is not detected.
type Handle int

// Slot is the state of one physical slot. Value is the zero value of T when
// Occupied is false.
type Slot[T any] struct {
	Value    T
	Occupied bool
}

// Pool owns values of type T indexed by recyclable handles. Insert, Erase,
// Contains and lookups are O(1) (Insert amortized). Freed handles are reused
// oldest-freed-first.
//
// The zero value is an empty pool with no slots; the first Insert grows it to
// DefaultCapacity.
//
// A Pool is not safe for concurrent use. It is meant to be owned by a single
// goroutine or guarded by the caller.
type Pool[T any] struct {
	slots []Slot[T]
	free  deque.Deque[Handle]
	count int
	log   *zap.Logger
}

// New creates a pool with the given number of empty slots. Handles
// 0..capacity-1 are queued for reuse in ascending order. A capacity of zero
// (or less) yields an empty pool that grows on the first Insert.
//
// Parameters:
//   - capacity: The number of slots to pre-allocate.
//   - opts: Optional settings such as WithLogger.
//
// Returns:
//   - The newly created Pool.
func New[T any](capacity int, opts ...Option) *Pool[T] {
	o := buildOptions(opts)
	p := &Pool[T]{log: o.log}
	p.rebuild(capacity)
	return p
}

// NewDefault creates a pool with DefaultCapacity slots.
func NewDefault[T any](opts ...Option) *Pool[T] {
	return New[T](DefaultCapacity, opts...)
}

// Count returns the number of values currently stored.
func (p *Pool[T]) Count() int {
	return p.count
}

// Cap returns the number of slots, occupied or not.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}

// FreeLen returns the number of handles waiting to be reused.
func (p *Pool[T]) FreeLen() int {
	return p.free.Len()
}

// Insert stores v and returns its handle. When no free slot is left the
// storage doubles (or grows to DefaultCapacity when empty) and the new
// handles are queued behind any existing ones in ascending order.
func (p *Pool[T]) Insert(v T) Handle {
	if p.free.Len() == 0 {
		p.grow()
	}
	h := p.free.PopFront()
	p.slots[h] = Slot[T]{Value: v, Occupied: true}
	p.count++
	return h
}

// InsertFunc builds a value with fn and stores it. If fn panics the pool is
// left untouched.
func (p *Pool[T]) InsertFunc(fn func(v *T)) Handle {
	var v T
	fn(&v)
	return p.Insert(v)
}

// Erase removes the value stored under h and queues h for reuse. It reports
// false, and does nothing, when h is out of range or already empty, so a
// double erase is harmless and detectable.
func (p *Pool[T]) Erase(h Handle) bool {
	if !p.Contains(h) {
		return false
	}
	p.slots[h] = Slot[T]{}
	p.free.PushBack(h)
	p.count--
	return true
}

// Contains reports whether h refers to an occupied slot.
func (p *Pool[T]) Contains(h Handle) bool {
	return h >= 0 && int(h) < len(p.slots) && p.slots[h].Occupied
}

// Find returns a copy of the value stored under h.
func (p *Pool[T]) Find(h Handle) (T, bool) {
	if !p.Contains(h) {
		var zero T
		return zero, false
	}
	return p.slots[h].Value, true
}

// FindPtr returns a pointer to the value stored under h, or nil if h is not
// valid.
//
// The pointer refers to the pool's current storage. It must not be kept
// across a call that can grow or rebuild the pool (Insert, InsertFunc,
// Clear, Reset, Drain): writes through a stale pointer are lost.
func (p *Pool[T]) FindPtr(h Handle) *T {
	if !p.Contains(h) {
		return nil
	}
	return &p.slots[h].Value
}

// At is FindPtr for call sites that have already checked h with Contains.
// It panics with a message naming h when the handle is not valid.
func (p *Pool[T]) At(h Handle) *T {
	v := p.FindPtr(h)
	if v == nil {
		panic(fmt.Sprintf("slab: handle %d was not valid", h))
	}
	return v
}

// Clear drops every value and rebuilds the pool with DefaultCapacity slots,
// regardless of the capacity in use before the call. Use Reset to choose
// the capacity. Every previously issued handle becomes invalid.
func (p *Pool[T]) Clear() {
	p.Reset(DefaultCapacity)
}

// Reset drops every value and rebuilds the pool with the given number of
// slots and a fresh ascending free list.
func (p *Pool[T]) Reset(capacity int) {
	previous := len(p.slots)
	p.rebuild(capacity)
	p.logger().Debug("slab reset", zap.Int("previous", previous), zap.Int("capacity", len(p.slots)))
}

// All returns an iterator over the occupied slots in ascending handle order.
// The pool must not be modified while the iteration is in progress, except
// through Erase of the handle being visited.
func (p *Pool[T]) All() iter.Seq2[Handle, T] {
	return func(yield func(Handle, T) bool) {
		for i := range p.slots {
			if !p.slots[i].Occupied {
				continue
			}
			if !yield(Handle(i), p.slots[i].Value) {
				return
			}
		}
	}
}

// Drain takes ownership of the pool's storage and returns a one-shot
// iterator over every physical slot, empty or not, in ascending order.
//
// The pool is emptied immediately, before the iterator runs, and is left as
// a zero-capacity pool that grows on the next Insert. The returned sequence
// can be ranged over once; later ranges yield nothing.
func (p *Pool[T]) Drain() iter.Seq2[Handle, Slot[T]] {
	slots := p.slots
	p.slots = nil
	p.free.Clear()
	p.count = 0
	return func(yield func(Handle, Slot[T]) bool) {
		s := slots
		slots = nil
		for i := range s {
			if !yield(Handle(i), s[i]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of the pool. Values are copied as with
// assignment; the free list keeps its order, so both pools hand out the same
// handles for the same sequence of calls.
func (p *Pool[T]) Clone() *Pool[T] {
	c := &Pool[T]{
		slots: make([]Slot[T], len(p.slots)),
		count: p.count,
		log:   p.log,
	}
	copy(c.slots, p.slots)
	for i := 0; i < p.free.Len(); i++ {
		c.free.PushBack(p.free.At(i))
	}
	return c
}

// grow doubles the slot count (DefaultCapacity when empty) and queues the
// new handles.
func (p *Pool[T]) grow() {
	size := len(p.slots)
	capacity := DefaultCapacity
	if size > 0 {
		capacity = size * 2
	}
	p.slots = extendSlice(p.slots, capacity-size)
	clear(p.slots[size:])
	for i := size; i < capacity; i++ {
		p.free.PushBack(Handle(i))
	}
	p.logger().Debug("slab grown", zap.Int("previous", size), zap.Int("capacity", capacity))
}

// logger returns the configured logger, or the no-op logger for a zero Pool.
func (p *Pool[T]) logger() *zap.Logger {
	if p.log == nil {
		return nopLogger
	}
	return p.log
}

// rebuild replaces the storage with capacity empty slots.
func (p *Pool[T]) rebuild(capacity int) {
	capacity = max(capacity, 0)
	p.slots = make([]Slot[T], capacity)
	p.free.Clear()
	for i := range capacity {
		p.free.PushBack(Handle(i))
	}
	p.count = 0
}
