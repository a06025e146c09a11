package workload

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/edwinsyarief/slab/internal/config"
	"github.com/edwinsyarief/slab/metrics"
)

func smallConfig(capacity int) config.Config {
	cfg := config.Default()
	cfg.Rounds = 2
	cfg.Iterations = 3
	cfg.Objects = 100
	cfg.Capacity = capacity
	return cfg
}

func TestPoolChurn(t *testing.T) {
	for _, capacity := range []int{0, 16, 100} {
		res := PoolChurn(smallConfig(capacity), zaptest.NewLogger(t), nil)
		assert.Equal(t, "pool", res.Name)
		assert.Equal(t, 2*3*100, res.Inserts)
		assert.Equal(t, res.Inserts, res.Erases)
		assert.Equal(t, 0, res.FinalCount)
		// reuse keeps the pool at its first high-water mark
		switch capacity {
		case 0, 16:
			assert.Equal(t, 128, res.PeakCapacity)
		case 100:
			assert.Equal(t, 100, res.PeakCapacity)
		}
	}
}

func TestEventFanout(t *testing.T) {
	res := EventFanout(smallConfig(0), zaptest.NewLogger(t), nil)
	assert.Equal(t, 600, res.Inserts)
	assert.Equal(t, 600, res.Erases)
	assert.Equal(t, 128, res.PeakCapacity) // 8 doubled four times
	assert.Equal(t, 0, res.FinalCount)
}

func TestBusFanout(t *testing.T) {
	res := BusFanout(smallConfig(0), zaptest.NewLogger(t), nil)
	assert.Equal(t, 600, res.Inserts)
	assert.Equal(t, 600, res.Erases)
	assert.Equal(t, 0, res.FinalCount)
}

func TestTableFill(t *testing.T) {
	res := TableFill(smallConfig(0), zaptest.NewLogger(t), nil)
	assert.Equal(t, 600, res.Inserts)
	assert.Equal(t, 600, res.Erases)
	assert.Equal(t, 128, res.PeakCapacity)
	assert.Equal(t, 0, res.FinalCount)
}

func TestWorkloadsTrackContainers(t *testing.T) {
	c := metrics.NewCollector("test")
	log := zaptest.NewLogger(t)
	cfg := smallConfig(0)
	PoolChurn(cfg, log, c)
	EventFanout(cfg, log, c)
	TableFill(cfg, log, c)
	assert.Equal(t, 3, c.Tracked())
	// three gauges per tracked container
	assert.Equal(t, 9, testutil.CollectAndCount(c))
}

func TestResultFields(t *testing.T) {
	fields := Result{Name: "pool", Inserts: 1}.Fields()
	assert.Len(t, fields, 5)
	assert.Equal(t, "workload", fields[0].Key)
}
