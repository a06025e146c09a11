package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEventInvoke(t *testing.T) {
	e := NewEvent[int, int]()
	assert.Equal(t, 0, e.Invoke(5), "empty event returns zero")

	var order []string
	e.Bind(func(n int) int { order = append(order, "double"); return n * 2 })
	e.Bind(func(n int) int { order = append(order, "square"); return n * n })

	assert.Equal(t, 25, e.Invoke(5), "last binding's result wins")
	assert.Equal(t, []string{"double", "square"}, order)
	assert.Equal(t, 2, e.Count())
	assert.Equal(t, eventCapacity, e.Cap())
}

func TestEventIdenticalClosuresAreDistinct(t *testing.T) {
	e := NewEvent[struct{}, struct{}]()
	calls := 0
	mk := func() func(struct{}) struct{} {
		return func(struct{}) struct{} { calls++; return struct{}{} }
	}
	h1 := e.Bind(mk())
	h2 := e.Bind(mk())
	require.NotEqual(t, h1, h2)

	require.True(t, e.Unbind(h1))
	assert.False(t, e.IsBound(h1))
	assert.True(t, e.IsBound(h2))

	e.Invoke(struct{}{})
	assert.Equal(t, 1, calls)
}

func TestEventUnbind(t *testing.T) {
	e := NewEvent[int, int]()
	h := e.Bind(func(n int) int { return n })
	assert.True(t, e.Unbind(h))
	assert.False(t, e.Unbind(h), "double unbind")
	assert.False(t, e.Unbind(99), "out of range")
	assert.Equal(t, 0, e.Count())
}

func TestEventNamed(t *testing.T) {
	e := NewEvent[string, string](WithLogger(zaptest.NewLogger(t)))
	first := e.BindNamed("log", func(s string) string { return "first " + s })
	second := e.BindNamed("log", func(s string) string { return "second " + s })
	e.Bind(func(s string) string { return "anon " + s })

	assert.True(t, e.IsBoundNamed("log"))
	assert.False(t, e.IsBoundNamed("missing"))

	require.True(t, e.UnbindNamed("log"))
	assert.False(t, e.IsBound(first), "earliest named binding goes first")
	assert.True(t, e.IsBound(second))

	require.True(t, e.Unbind(second))
	assert.False(t, e.IsBoundNamed("log"))
	assert.False(t, e.UnbindNamed("log"))
	assert.Equal(t, "anon x", e.Invoke("x"))
}

func TestEventUnbindDuringInvoke(t *testing.T) {
	e := NewEvent[int, int]()
	var later Handle
	e.Bind(func(n int) int {
		e.Unbind(later)
		return n
	})
	later = e.Bind(func(n int) int { return -1 })
	assert.Equal(t, 7, e.Invoke(7), "binding removed before its turn is skipped")
	assert.Equal(t, 1, e.Count())
}

func TestEventBindDuringInvoke(t *testing.T) {
	e := NewEvent[int, int]()
	var added Handle
	e.Bind(func(n int) int {
		if added == 0 {
			added = e.Bind(func(int) int { return 99 })
		}
		return n
	})
	assert.Equal(t, 1, e.Invoke(1), "binding added during Invoke waits for the next one")
	require.True(t, e.IsBound(added))
	assert.Equal(t, 99, e.Invoke(1))
}

func TestEventBindDuringInvokeGrows(t *testing.T) {
	e := NewEvent[int, int]()
	calls := 0
	for range eventCapacity {
		e.Bind(func(n int) int {
			calls++
			if e.Count() == eventCapacity {
				e.Bind(func(int) int { return -1 })
			}
			return n
		})
	}
	assert.Equal(t, 3, e.Invoke(3))
	assert.Equal(t, eventCapacity, calls)
	assert.Equal(t, eventCapacity+1, e.Count())
	assert.Equal(t, 2*eventCapacity, e.Cap())
	assert.Equal(t, -1, e.Invoke(3))
}

func TestEventGrowsAndClears(t *testing.T) {
	e := NewEvent[int, int]()
	for i := range 20 {
		e.BindNamed("n", func(int) int { return i })
	}
	assert.Equal(t, 20, e.Count())
	assert.Equal(t, 32, e.Cap())
	assert.Equal(t, 19, e.Invoke(0))

	e.Clear()
	assert.Equal(t, 0, e.Count())
	assert.Equal(t, 32, e.Cap(), "clear keeps capacity")
	assert.False(t, e.IsBoundNamed("n"))
	assert.Equal(t, 0, e.Invoke(0))
}

func TestEventZeroValue(t *testing.T) {
	var e Event[int, int]
	h := e.BindNamed("x", func(n int) int { return n + 1 })
	assert.Equal(t, 2, e.Invoke(1))
	assert.True(t, e.Unbind(h))
	assert.False(t, e.IsBoundNamed("x"))
}

func TestEventNilCallbackPanics(t *testing.T) {
	e := NewEvent[int, int]()
	assert.PanicsWithValue(t, "slab: cannot bind nil callback", func() {
		e.Bind(nil)
	})
}
