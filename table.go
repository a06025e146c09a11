package slab

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type entry struct {
	name  string
	value any // always a pointer to the inserted value
	typ   reflect.Type
}

// Table stores named objects of any type. Each name holds one object; a name
// may be overwritten only with a value of the same type.
//
// Objects live in a Pool and each name maps to the object's handle, so
// Handle and Lookup give O(1) access that does not hash the name.
//
// The zero value is ready to use. A Table is not safe for concurrent use.
type Table struct {
	objects Pool[entry]
	names   map[string]Handle
}

// NewTable creates a table with DefaultCapacity slots.
func NewTable(opts ...Option) *Table {
	o := buildOptions(opts)
	t := &Table{names: make(map[string]Handle, DefaultCapacity)}
	t.objects.log = o.log
	t.objects.rebuild(DefaultCapacity)
	return t
}

// Insert stores v under name and returns a pointer to the stored copy. If
// name already holds a value of type T, that value is replaced in place and
// the same pointer is returned. It panics if name holds a different type.
func Insert[T any](t *Table, name string, v T) *T {
	typ := reflect.TypeFor[T]()
	if h, ok := t.names[name]; ok {
		e := t.objects.At(h)
		if e.typ != typ {
			panic(fmt.Sprintf("slab: overwriting table object %q of type %s with type %s", name, e.typ, typ))
		}
		ptr := e.value.(*T)
		*ptr = v
		if ce := t.objects.logger().Check(zap.DebugLevel, "slab table overwrite"); ce != nil {
			ce.Write(zap.String("name", name), zap.Int("handle", int(h)))
		}
		return ptr
	}
	if t.names == nil {
		t.names = make(map[string]Handle)
	}
	ptr := new(T)
	*ptr = v
	t.names[name] = t.objects.Insert(entry{name: name, value: ptr, typ: typ})
	return ptr
}

// Find returns the object stored under name if it has type T.
func Find[T any](t *Table, name string) (*T, bool) {
	e := t.entry(name)
	if e == nil {
		return nil, false
	}
	ptr, ok := e.value.(*T)
	return ptr, ok
}

// ContainsA reports whether name holds an object of type T.
func ContainsA[T any](t *Table, name string) bool {
	_, ok := Find[T](t, name)
	return ok
}

// Count returns the number of stored objects.
func (t *Table) Count() int {
	return t.objects.Count()
}

// Cap returns the number of object slots before the table grows.
func (t *Table) Cap() int {
	return t.objects.Cap()
}

// Get returns the object stored under name as a pointer wrapped in an any.
func (t *Table) Get(name string) (any, bool) {
	e := t.entry(name)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// At is Get for names known to exist. It panics if name is not in the table.
func (t *Table) At(name string) any {
	e := t.entry(name)
	if e == nil {
		panic(fmt.Sprintf("slab: object named %q was not found in the table", name))
	}
	return e.value
}

// Contains reports whether an object is stored under name.
func (t *Table) Contains(name string) bool {
	_, ok := t.names[name]
	return ok
}

// Handle returns the handle of the object stored under name.
func (t *Table) Handle(name string) (Handle, bool) {
	h, ok := t.names[name]
	return h, ok
}

// Lookup returns the name and object stored under h.
func (t *Table) Lookup(h Handle) (string, any, bool) {
	e := t.objects.FindPtr(h)
	if e == nil {
		return "", nil, false
	}
	return e.name, e.value, true
}

// Erase removes the object stored under name.
func (t *Table) Erase(name string) bool {
	h, ok := t.names[name]
	if !ok {
		return false
	}
	delete(t.names, name)
	return t.objects.Erase(h)
}

// Clear removes every object, keeping the current capacity.
func (t *Table) Clear() {
	t.objects.Reset(t.objects.Cap())
	clear(t.names)
}

// Names returns an iterator over the stored names in ascending handle order.
func (t *Table) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range t.objects.All() {
			if !yield(e.name) {
				return
			}
		}
	}
}

// All returns an iterator over name/object pairs in ascending handle order.
func (t *Table) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, e := range t.objects.All() {
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

// JSON encodes the table as a JSON object keyed by name, with keys sorted.
// With pretty set the output is indented with tabs.
func (t *Table) JSON(pretty bool) ([]byte, error) {
	m := make(map[string]any, t.objects.Count())
	for name, v := range t.All() {
		m[name] = v
	}
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(m, "", "\t")
	} else {
		b, err = json.Marshal(m)
	}
	if err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return b, nil
}

// MarshalJSON implements json.Marshaler.
func (t *Table) MarshalJSON() ([]byte, error) {
	return t.JSON(false)
}

// String returns the indented JSON form of the table.
func (t *Table) String() string {
	b, err := t.JSON(true)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

func (t *Table) entry(name string) *entry {
	h, ok := t.names[name]
	if !ok {
		return nil
	}
	return t.objects.FindPtr(h)
}
