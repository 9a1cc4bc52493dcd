package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/metrics"
	"github.com/golangdaddy/trafficsim/recorder"
	"github.com/golangdaddy/trafficsim/traffic"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless",
		Long: `Run steps the world for --ticks ticks (forever when 0) as fast as
possible, logging totals every sim.reportEvery ticks. With recording enabled
every event is stored in the recorder database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHeadless(ctx, log)
		},
	}

	cmd.Flags().Int("ticks", 6000, "Ticks to simulate, 0 runs until interrupted")
	cmd.Flags().Bool("record", false, "Store events in the recorder database")
	_ = viper.BindPFlag("sim.ticks", cmd.Flags().Lookup("ticks"))
	_ = viper.BindPFlag("recorder.enabled", cmd.Flags().Lookup("record"))

	return cmd
}

func runHeadless(ctx context.Context, log zerolog.Logger) error {
	sim, err := config.GetSimConfig()
	if err != nil {
		return err
	}
	recCfg, err := config.GetRecorderConfig()
	if err != nil {
		return err
	}

	provider := metrics.NewProvider(config.GetBool("metrics.enabled"))
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("metrics shutdown failed")
		}
	}()
	collector, err := metrics.New(provider.Meter())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	opts := []traffic.Option{traffic.WithObserver(collector)}

	var rec *recorder.Recorder
	if recCfg.Enabled {
		rec, err = recorder.Open(recCfg, log)
		if err != nil {
			return err
		}
		defer closeRecorder(rec, log)
		opts = append(opts, traffic.WithObserver(rec))
	}

	w, network, _, err := buildWorld(sim, log, opts...)
	if err != nil {
		return err
	}
	collector.Observe(w)

	var runID uint
	if rec != nil {
		runID, err = rec.StartRun(network.Name, sim.Seed, sim.Delta)
		if err != nil {
			return err
		}
	}

	done := make(chan struct{})
	defer close(done)
	if provider.Enabled() {
		go reportMetrics(ctx, done, provider, config.GetDuration("metrics.interval"), log)
	}

	log.Info().
		Str("network", network.Name).
		Uint64("seed", sim.Seed).
		Float64("delta", sim.Delta).
		Int("ticks", sim.Ticks).
		Msg("simulation started")

	started := time.Now()
	for tick := 1; sim.Ticks == 0 || tick <= sim.Ticks; tick++ {
		if ctx.Err() != nil {
			log.Info().Int("tick", tick).Msg("interrupted")
			break
		}
		w.Update(sim.Delta)
		if sim.ReportEvery > 0 && tick%sim.ReportEvery == 0 {
			logStats(log.Info(), w.Stats()).Msg("progress")
		}
	}

	stats := w.Stats()
	logStats(log.Info(), stats).Dur("wall", time.Since(started)).Msg("simulation finished")

	if rec != nil {
		if err := rec.FinishRun(stats); err != nil {
			return err
		}
		counts, err := rec.Counts(runID)
		if err != nil {
			return err
		}
		ev := log.Info().Uint("run", runID)
		for kind, n := range counts {
			ev = ev.Int64(kind, n)
		}
		ev.Msg("events recorded")
	}
	return nil
}

// closeRecorder flushes and closes rec, logging what could not be written
func closeRecorder(rec *recorder.Recorder, log zerolog.Logger) {
	if err := rec.Close(); err != nil {
		log.Warn().Err(err).Msg("recorder close failed")
	}
}

func logStats(ev *zerolog.Event, s traffic.Stats) *zerolog.Event {
	return ev.
		Uint64("tick", s.Tick).
		Float64("time", s.Time).
		Int("vehicles", s.Vehicles).
		Int("inFlight", s.InFlight).
		Int("spawned", s.Spawned).
		Int("despawned", s.Despawned).
		Int("admitted", s.Admitted)
}

// reportMetrics logs a metrics snapshot every interval until ctx or done ends
func reportMetrics(ctx context.Context, done <-chan struct{}, p *metrics.Provider, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			snap, err := p.Snapshot(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("metrics snapshot failed")
				continue
			}
			ev := log.Info()
			for name, v := range snap {
				ev = ev.Float64(name, v)
			}
			ev.Msg("metrics")
		}
	}
}
