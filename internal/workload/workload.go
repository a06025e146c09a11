// Package workload holds the insert/erase workloads run by the profiling
// drivers. Each workload is sized by a config.Config and reports what it did.
package workload

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/edwinsyarief/slab"
	"github.com/edwinsyarief/slab/internal/config"
	"github.com/edwinsyarief/slab/metrics"
)

// Result summarizes one workload run.
type Result struct {
	Name         string
	Inserts      int
	Erases       int
	PeakCapacity int
	FinalCount   int
}

// Fields returns r as zap fields.
func (r Result) Fields() []zap.Field {
	return []zap.Field{
		zap.String("workload", r.Name),
		zap.Int("inserts", r.Inserts),
		zap.Int("erases", r.Erases),
		zap.Int("peak_capacity", r.PeakCapacity),
		zap.Int("final_count", r.FinalCount),
	}
}

type object struct {
	V int64
	W int64
}

// track replaces whatever collector c reports under name with s.
func track(c *metrics.Collector, name string, s metrics.Sizer) {
	if c == nil {
		return
	}
	c.Untrack(name)
	c.Track(name, s)
}

// PoolChurn fills a fresh pool with cfg.Objects values and empties it again,
// cfg.Iterations times per round. Freed handles are reused, so the pool never
// grows past the first iteration's high-water mark.
func PoolChurn(cfg config.Config, log *zap.Logger, c *metrics.Collector) Result {
	res := Result{Name: "pool"}
	handles := make([]slab.Handle, 0, cfg.Objects)
	var p *slab.Pool[object]
	for round := range cfg.Rounds {
		p = slab.New[object](cfg.Capacity, slab.WithLogger(log))
		track(c, res.Name, p)
		for range cfg.Iterations {
			handles = handles[:0]
			for i := range cfg.Objects {
				handles = append(handles, p.Insert(object{V: int64(i), W: 1}))
			}
			res.Inserts += len(handles)
			res.PeakCapacity = max(res.PeakCapacity, p.Cap())
			for _, h := range handles {
				o := p.At(h)
				o.V += o.W
			}
			for _, h := range handles {
				if p.Erase(h) {
					res.Erases++
				}
			}
		}
		log.Debug("pool round done", zap.Int("round", round), zap.Int("capacity", p.Cap()))
	}
	if p != nil {
		res.FinalCount = p.Count()
	}
	return res
}

// EventFanout binds cfg.Objects callbacks to an event, invokes it and unbinds
// them again, cfg.Iterations times per round.
func EventFanout(cfg config.Config, log *zap.Logger, c *metrics.Collector) Result {
	res := Result{Name: "events"}
	handles := make([]slab.Handle, 0, cfg.Objects)
	var ev *slab.Event[int, int]
	sum := 0
	for round := range cfg.Rounds {
		ev = slab.NewEvent[int, int](slab.WithLogger(log))
		track(c, res.Name, ev)
		for range cfg.Iterations {
			handles = handles[:0]
			for i := range cfg.Objects {
				handles = append(handles, ev.Bind(func(n int) int { return n + i }))
			}
			res.Inserts += len(handles)
			res.PeakCapacity = max(res.PeakCapacity, ev.Cap())
			sum += ev.Invoke(round)
			for _, h := range handles {
				if ev.Unbind(h) {
					res.Erases++
				}
			}
		}
	}
	log.Debug("event fanout done", zap.Int("checksum", sum))
	if ev != nil {
		res.FinalCount = ev.Count()
	}
	return res
}

type tick struct {
	N int
}

// BusFanout subscribes cfg.Objects handlers to a bus, publishes one event and
// unsubscribes them again, cfg.Iterations times per round.
func BusFanout(cfg config.Config, log *zap.Logger, _ *metrics.Collector) Result {
	res := Result{Name: "bus"}
	subs := make([]slab.Subscription, 0, cfg.Objects)
	received := 0
	var bus *slab.Bus
	for round := range cfg.Rounds {
		bus = &slab.Bus{}
		for range cfg.Iterations {
			subs = subs[:0]
			for range cfg.Objects {
				subs = append(subs, slab.Subscribe(bus, func(t tick) { received += t.N }))
			}
			res.Inserts += len(subs)
			slab.Publish(bus, tick{N: 1})
			for _, s := range subs {
				if bus.Unsubscribe(s) {
					res.Erases++
				}
			}
		}
		log.Debug("bus round done", zap.Int("round", round), zap.Int("received", received))
	}
	if bus != nil {
		res.FinalCount = slab.Subscribers[tick](bus)
	}
	return res
}

// TableFill inserts cfg.Objects named values into a table, reads them back
// and erases them, cfg.Iterations times per round.
func TableFill(cfg config.Config, log *zap.Logger, c *metrics.Collector) Result {
	res := Result{Name: "table"}
	names := make([]string, cfg.Objects)
	for i := range names {
		names[i] = "obj-" + strconv.Itoa(i)
	}
	var t *slab.Table
	for round := range cfg.Rounds {
		t = slab.NewTable(slab.WithLogger(log))
		track(c, res.Name, t)
		for range cfg.Iterations {
			for i, name := range names {
				slab.Insert(t, name, object{V: int64(i)})
			}
			res.Inserts += len(names)
			res.PeakCapacity = max(res.PeakCapacity, t.Cap())
			for _, name := range names {
				if o, ok := slab.Find[object](t, name); ok {
					o.W++
				}
			}
			for _, name := range names {
				if t.Erase(name) {
					res.Erases++
				}
			}
		}
		log.Debug("table round done", zap.Int("round", round), zap.Int("capacity", t.Cap()))
	}
	if t != nil {
		res.FinalCount = t.Count()
	}
	return res
}
