// Package metrics exports the size of slab containers as Prometheus gauges.
//
// Register a Collector with a prometheus.Registerer and Track every pool,
// event or table that should be reported:
//
//	c := metrics.NewCollector("game")
//	prometheus.MustRegister(c)
//	c.Track("entities", entities)
//
// Each scrape reads Count and Cap from the tracked containers. Containers are
// not safe for concurrent use, so either scrape from the owning goroutine or
// track a Sizer that synchronizes with the owner.
package metrics

import (
	"sync"

	"github.com/edwinsyarief/slab"
	"github.com/prometheus/client_golang/prometheus"
)

// Sizer is implemented by *slab.Pool, *slab.Event and *slab.Table.
type Sizer interface {
	Count() int
	Cap() int
}

type tracked struct {
	name  string
	sizer Sizer
}

// Collector is a prometheus.Collector reporting live objects, capacity and
// utilization for each tracked container, labelled by pool name.
type Collector struct {
	live        *prometheus.Desc
	capacity    *prometheus.Desc
	utilization *prometheus.Desc

	mu     sync.Mutex
	sizers slab.Pool[tracked]
	byName map[string]slab.Handle
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	labels := []string{"pool"}
	return &Collector{
		live: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slab", "live_objects"),
			"Number of values currently stored in the pool.",
			labels, nil,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slab", "capacity"),
			"Number of slots allocated by the pool.",
			labels, nil,
		),
		utilization: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "slab", "utilization_ratio"),
			"Live objects divided by capacity.",
			labels, nil,
		),
		byName: make(map[string]slab.Handle),
	}
}

// Track starts reporting s under name. It returns false if name is taken.
func (c *Collector) Track(name string, s Sizer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; ok {
		return false
	}
	c.byName[name] = c.sizers.Insert(tracked{name: name, sizer: s})
	return true
}

// Untrack stops reporting name.
func (c *Collector) Untrack(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.byName[name]
	if !ok {
		return false
	}
	delete(c.byName, name)
	return c.sizers.Erase(h)
}

// Tracked returns the number of tracked containers.
func (c *Collector) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizers.Count()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.capacity
	ch <- c.utilization
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.sizers.All() {
		count, capacity := float64(t.sizer.Count()), float64(t.sizer.Cap())
		ratio := 0.0
		if capacity > 0 {
			ratio = count / capacity
		}
		ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, count, t.name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, capacity, t.name)
		ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, ratio, t.name)
	}
}

var (
	_ Sizer = (*slab.Pool[int])(nil)
	_ Sizer = (*slab.Event[int, int])(nil)
	_ Sizer = (*slab.Table)(nil)

	_ prometheus.Collector = (*Collector)(nil)
)
