// Profiling:
// go build ./profile/churn
// ./churn pool --mode allocs
// go tool pprof -http=":8000" -nodefraction=0.001 ./churn mem.pprof

package main

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edwinsyarief/slab/internal/config"
	"github.com/edwinsyarief/slab/internal/logging"
	"github.com/edwinsyarief/slab/internal/workload"
	"github.com/edwinsyarief/slab/metrics"
)

type workloadFunc func(config.Config, *zap.Logger, *metrics.Collector) workload.Result

type flags struct {
	configPath string
	rounds     int
	iterations int
	objects    int
	capacity   int
	mode       string
	output     string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "churn",
		Short:         "Profile slab containers under insert/erase churn",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.IntVar(&f.rounds, "rounds", 0, "rounds to run (overrides config)")
	pf.IntVar(&f.iterations, "iterations", 0, "fill/empty cycles per round (overrides config)")
	pf.IntVar(&f.objects, "objects", 0, "objects per cycle (overrides config)")
	pf.IntVar(&f.capacity, "capacity", -1, "initial pool capacity (overrides config)")
	pf.StringVar(&f.mode, "mode", "", "profiling mode: none, cpu, mem, allocs")
	pf.StringVar(&f.output, "output", "", "directory for profile files")
	pf.StringVar(&f.logLevel, "log-level", "", "log level")

	root.AddCommand(
		newWorkloadCommand(f, "pool", "Insert and erase values in a Pool", workload.PoolChurn),
		newWorkloadCommand(f, "events", "Bind, invoke and unbind Event callbacks", workload.EventFanout),
		newWorkloadCommand(f, "bus", "Subscribe, publish and unsubscribe on a Bus", workload.BusFanout),
		newWorkloadCommand(f, "table", "Insert, find and erase named Table objects", workload.TableFill),
	)
	return root
}

func newWorkloadCommand(f *flags, use, short string, run workloadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := f.resolve()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return execute(cfg, log, run)
		},
	}
}

// resolve loads the config file, if any, and applies flag overrides.
func (f *flags) resolve() (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	if f.rounds > 0 {
		cfg.Rounds = f.rounds
	}
	if f.iterations > 0 {
		cfg.Iterations = f.iterations
	}
	if f.objects > 0 {
		cfg.Objects = f.objects
	}
	if f.capacity >= 0 {
		cfg.Capacity = f.capacity
	}
	if f.mode != "" {
		cfg.Mode = f.mode
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func execute(cfg config.Config, log *zap.Logger, run workloadFunc) error {
	collector := metrics.NewCollector("churn")
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}

	p := startProfile(cfg)
	res := run(cfg, log, collector)
	if p != nil {
		p.Stop()
	}
	log.Info("workload finished", res.Fields()...)

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName()), zap.Float64("value", m.GetGauge().GetValue())}
			for _, l := range m.GetLabel() {
				fields = append(fields, zap.String(l.GetName(), l.GetValue()))
			}
			log.Info("final gauge", fields...)
		}
	}
	return nil
}

func startProfile(cfg config.Config) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath(cfg.Output), profile.NoShutdownHook, profile.Quiet}
	switch cfg.Mode {
	case config.ModeCPU:
		opts = append(opts, profile.CPUProfile)
	case config.ModeMem:
		opts = append(opts, profile.MemProfile)
	case config.ModeAllocs:
		opts = append(opts, profile.MemProfileAllocs)
	default:
		return nil
	}
	return profile.Start(opts...)
}
