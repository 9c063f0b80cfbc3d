package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/managers"
	"github.com/chrissnell/lunarmansion/internal/resolver"
	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config   *config.ConfigData
	calendar conversion.LunarCalendar
	logger   *zap.SugaredLogger

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	resolver *resolver.Resolver
	addr     net.Addr
}

// New creates a new application instance. A nil calendar means lunar-go.
func New(cfg *config.ConfigData, cal conversion.LunarCalendar, logger *zap.SugaredLogger) *App {
	if cal == nil {
		cal = conversion.NewLunarGo()
	}
	return &App{
		config:   cfg,
		calendar: cal,
		logger:   logger,
	}
}

// EngineConfig maps the engine section of the configuration onto the engine
func EngineConfig(e config.EngineData) engine.Config {
	return engine.Config{
		Limits:           calendar.Limits{MinYear: e.MinYear, MaxYear: e.MaxYear},
		MansionStrategy:  e.MansionStrategy,
		StrictComponents: e.StrictComponents,
		MetalAngle:       e.MetalAngle,
		Jitter: angle.Jitter{
			Enabled: e.Jitter.Enabled,
			Seed:    e.Jitter.Seed,
			Spread:  e.Jitter.Spread,
		},
	}
}

// Start builds the engine, cache and controllers and begins serving
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	eng, err := engine.New(EngineConfig(a.config.Engine), a.calendar, a.logger)
	if err != nil {
		a.cancel()
		return fmt.Errorf("error creating engine: %w", err)
	}
	a.logger.Infof("engine ready: %s", eng.Config().Fingerprint())

	store, err := managers.NewResultStore(ctx, a.config.Cache, a.logger)
	if err != nil {
		a.cancel()
		return err
	}
	a.resolver = resolver.New(eng, store, a.config.ConversionTimeout, a.logger)

	cm, err := managers.NewControllerManager(ctx, &a.wg, a.config.Server, a.resolver, a.logger)
	if err == nil {
		err = cm.StartControllers()
	}
	if err != nil {
		a.cancel()
		a.resolver.Close()
		a.resolver = nil
		return err
	}
	a.addr = cm.Addr()

	a.logger.Info("Application started successfully")
	return nil
}

// Addr returns the address the controllers listen on
func (a *App) Addr() net.Addr {
	return a.addr
}

// Stop cancels every controller and waits for them to finish. It is safe to call
// after a failed Start, or without Start at all.
func (a *App) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}

	a.logger.Info("waiting for all workers to terminate...")
	a.wg.Wait()

	var err error
	if a.resolver != nil {
		err = a.resolver.Close()
	}
	a.logger.Info("shutdown complete")
	return err
}

// Run starts the application and blocks until a signal arrives or ctx is done
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	return a.Stop()
}
