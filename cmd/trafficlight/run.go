package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goclaw/trafficlight/config"
	"github.com/goclaw/trafficlight/pkg/light"
	"github.com/goclaw/trafficlight/pkg/logger"
	"github.com/goclaw/trafficlight/pkg/metrics"
	"github.com/goclaw/trafficlight/pkg/notify"
	"github.com/goclaw/trafficlight/pkg/telemetry/tracing"
	"github.com/goclaw/trafficlight/pkg/version"
)

const (
	stopTimeout     = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func run(ctx context.Context, cli *CLI) error {
	cfg, err := config.Load(cli.Config, cli.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration:\n%w", err)
	}

	log := newLogger(cfg)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("Starting trafficlight",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	if cli.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Duration)
		defer cancel()
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	m := newMetrics(ctx, cfg.Metrics, log)
	notify.SetMetricsRecorder(m)
	defer notify.SetMetricsRecorder(nil)

	pub, closePub, err := newPublisher(ctx, cfg.Notify, log)
	if err != nil {
		return err
	}
	defer closePub()

	if cli.Watch && cli.Config != "" {
		stopWatch, err := watchConfig(ctx, cli, cfg, log)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	timing := light.Timing{
		MinCycle: cfg.Lights.MinCycle,
		MaxCycle: cfg.Lights.MaxCycle,
		Throttle: cfg.Lights.Throttle,
	}

	// Lights outlive ctx so that shutdown goes through Cycle.Stop.
	lightCtx := context.WithoutCancel(ctx)

	var (
		cycles []*light.Cycle
		wg     sync.WaitGroup
	)
	for i := 0; i < cfg.Lights.Count; i++ {
		l := light.New(
			light.WithID(fmt.Sprintf("%s-%d", cfg.Lights.IDPrefix, i+1)),
			light.WithTiming(timing),
			light.WithLogger(log),
			light.WithNotifier(pub),
			light.WithMetrics(m),
		)
		c, err := l.Simulate(lightCtx)
		if err != nil {
			stopCycles(cycles, log)
			return fmt.Errorf("failed to start light %s: %w", l.ID(), err)
		}
		cycles = append(cycles, c)

		for w := 0; w < cfg.Lights.Waiters; w++ {
			wg.Add(1)
			go func(waiter int) {
				defer wg.Done()
				waitLoop(ctx, l, waiter, log)
			}(w + 1)
		}
	}

	log.Info("Simulation running", "lights", cfg.Lights.Count, "waiters_per_light", cfg.Lights.Waiters)
	<-ctx.Done()
	log.Info("Shutting down", "reason", context.Cause(ctx))

	err = stopCycles(cycles, log)
	wg.Wait()
	log.Info("Simulation stopped")
	return err
}

// waitLoop models one car arriving at the light over and over.
func waitLoop(ctx context.Context, l *light.TrafficLight, waiter int, log logger.Logger) {
	for {
		if err := l.WaitForGreenContext(ctx); err != nil {
			if errors.Is(err, light.ErrStopped) || ctx.Err() != nil {
				return
			}
			log.Warn("Wait for green failed", "light", l.ID(), "waiter", waiter, "error", err)
			return
		}
		log.Info("Light is green, proceeding", "light", l.ID(), "waiter", waiter)
	}
}

func stopCycles(cycles []*light.Cycle, log logger.Logger) error {
	for _, c := range cycles {
		c.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var errs []error
	for _, c := range cycles {
		if err := c.Wait(ctx); err != nil {
			log.Error("Light did not stop cleanly", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg *config.Config) logger.Logger {
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug {
		logCfg.Level = logger.DebugLevel
	}
	return logger.New(logCfg)
}

func newMetrics(ctx context.Context, cfg config.MetricsConfig, log logger.Logger) *metrics.Manager {
	if !cfg.Enabled {
		return metrics.NoOpManager()
	}

	mcfg := metrics.DefaultConfig()
	mcfg.Port = cfg.Port
	mcfg.Path = cfg.Path
	m := metrics.NewManager(mcfg)

	go func() {
		log.Info("Metrics server listening", "port", cfg.Port, "path", cfg.Path)
		if err := m.StartServer(ctx, cfg.Port, cfg.Path); err != nil {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	return m
}

func newPublisher(ctx context.Context, cfg config.NotifyConfig, log logger.Logger) (notify.Publisher, func(), error) {
	switch cfg.Type {
	case "local":
		bus := notify.NewLocalBus(cfg.BufferSize)
		sub, err := bus.Subscribe("trafficlight-log")
		if err != nil {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("failed to subscribe to local bus: %w", err)
		}
		go func() {
			for t := range sub {
				log.Debug("Transition observed", "light", t.LightID, "phase", t.Phase, "seq", t.Seq)
			}
		}()
		return bus, func() { _ = bus.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		pub := notify.NewRedisPublisher(client, cfg.ChannelPrefix)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout+time.Second)
		defer cancel()
		if !pub.Healthy(pingCtx) {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis at %s is unreachable", cfg.Redis.Address)
		}
		log.Info("Publishing transitions to redis", "address", cfg.Redis.Address, "channel_prefix", cfg.ChannelPrefix)
		return pub, func() {
			_ = pub.Close()
			_ = client.Close()
		}, nil

	default:
		return notify.Nop{}, func() {}, nil
	}
}

func watchConfig(ctx context.Context, cli *CLI, cfg *config.Config, log logger.Logger) (func(), error) {
	w, err := config.NewWatcher(cli.Config, config.NewLoader(),
		config.WithOverrides(cli.overrides()),
		config.WithWatcherLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to watch configuration: %w", err)
	}

	var mu sync.Mutex
	current := config.ExtractHotReloadable(cfg)
	w.OnChange(func(reloaded *config.Config) {
		next := config.ExtractHotReloadable(reloaded)
		mu.Lock()
		defer mu.Unlock()
		if !next.Changed(current) {
			return
		}
		current = next
		level := logger.ParseLevel(next.LogLevel)
		if next.Debug {
			level = logger.DebugLevel
		}
		log.SetLevel(level)
		log.Info("Log level changed", "level", level.String())
	})

	go func() {
		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Config watcher stopped", "error", err)
		}
	}()
	return func() { _ = w.Stop() }, nil
}
