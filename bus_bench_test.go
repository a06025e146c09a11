package slab

import (
	"fmt"
	"testing"
)

func BenchmarkBusSubscribe(b *testing.B) {
	sizes := []int{1000, 10000, 100000, 1000000}
	for _, size := range sizes {
		name := fmt.Sprintf("%dK", size/1000)
		if size == 1000000 {
			name = "1M"
		}
		b.Run(name, func(b *testing.B) {
			bus := &Bus{}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < size; i++ {
				Subscribe(bus, func(e damage) {})
			}
		})
	}
}

func BenchmarkBusPublishNoHandlers(b *testing.B) {
	bus := &Bus{}
	event := damage{Amount: 42}
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, event)
	}
}

func BenchmarkBusPublishManyHandlers(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	for _, size := range sizes {
		name := fmt.Sprintf("%dK", size/1000)
		b.Run(name, func(b *testing.B) {
			bus := &Bus{}
			for i := 0; i < size; i++ {
				Subscribe(bus, func(e damage) {})
			}
			event := damage{Amount: 42}
			b.ReportAllocs()
			b.ResetTimer()
			for b.Loop() {
				Publish(bus, event)
			}
		})
	}
}

func BenchmarkBusSubscribeUnsubscribe(b *testing.B) {
	bus := &Bus{}
	handler := func(e damage) {}
	b.ReportAllocs()
	for b.Loop() {
		bus.Unsubscribe(Subscribe(bus, handler))
	}
}
