package slab

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in a Bus. This value is fixed at 256.
const MaxEventTypes = 256

// Subscription identifies one handler registered with a Bus. It is returned
// by Subscribe and is the only way to remove that handler again.
type Subscription struct {
	Type   uint8
	Handle Handle
}

// Bus provides a simple, efficient, and type-safe event bus for decoupled
// communication between different parts of an application. Systems subscribe
// to specific event types and publish events to all interested listeners
// without direct dependencies.
//
// Handlers for each event type are kept in their own Pool, so unsubscribing
// is O(1) and the slot is reused by the next subscriber. Publish is
// allocation-free.
//
// The zero value is ready to use. A Bus is not safe for concurrent use.
type Bus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes]Pool[any]
	nextEventTypeID uint16
}

// Subscribe registers a handler function to be called when an event of type
// `T` is published.
//
// This operation may allocate memory if it's the first time subscribing to a
// particular event type or if the handler pool for that type needs to grow.
//
// Parameters:
//   - bus: The Bus instance to subscribe to.
//   - handler: A function that takes a single argument of type `T`.
//
// Returns:
//   - The Subscription to pass to Unsubscribe.
func Subscribe[T any](bus *Bus, handler func(T)) Subscription {
	if handler == nil {
		panic("slab: cannot subscribe nil handler")
	}
	id := bus.getEventTypeID(reflect.TypeFor[T]())
	h := bus.handlers[id].Insert(handler)
	return Subscription{Type: id, Handle: h}
}

// Publish broadcasts an event of type `T` to all registered handlers for that
// type. Handlers are called synchronously in ascending handle order, which is
// subscription order until handles start being reused.
//
// Parameters:
//   - bus: The Bus instance to publish to.
//   - event: The event data of type `T` to be sent to handlers.
func Publish[T any](bus *Bus, event T) {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	if !ok {
		return
	}
	p := &bus.handlers[id]
	for i := 0; i < len(p.slots); i++ {
		if p.slots[i].Occupied {
			p.slots[i].Value.(func(T))(event)
		}
	}
}

// Subscribers returns the number of handlers registered for events of type T.
func Subscribers[T any](bus *Bus) int {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	if !ok {
		return 0
	}
	return bus.handlers[id].Count()
}

// Unsubscribe removes the handler identified by sub. It reports false if the
// subscription was already removed or never issued by this bus.
func (bus *Bus) Unsubscribe(sub Subscription) bool {
	if uint16(sub.Type) >= bus.nextEventTypeID {
		return false
	}
	return bus.handlers[sub.Type].Erase(sub.Handle)
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *Bus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if bus.nextEventTypeID >= MaxEventTypes {
		panic("slab: too many event types")
	}
	id := uint8(bus.nextEventTypeID)
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
