// Package app wires configuration, persistence, API clients and crawl
// workers into one runnable service.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gustavo-Feijo/league-crawler/internal/api"
	"github.com/Gustavo-Feijo/league-crawler/internal/config"
	"github.com/Gustavo-Feijo/league-crawler/internal/crawler"
	"github.com/Gustavo-Feijo/league-crawler/internal/database"
	"github.com/Gustavo-Feijo/league-crawler/internal/logging"
	"github.com/Gustavo-Feijo/league-crawler/internal/riot"
	"github.com/Gustavo-Feijo/league-crawler/internal/supervisor"
	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
)

// App owns every long-lived component of the crawler service.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	gateway database.Gateway
	sup     *supervisor.Supervisor
	ops     *api.Server
	signals []*crawler.Signal
}

// New builds the full service graph from configuration.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	telemetry.Init()

	gateway, err := database.NewPostgres(ctx, database.PostgresConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetimeMin) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open gateway: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		gateway: gateway,
		sup:     supervisor.New(logger),
	}
	a.buildWorkers()
	a.ops = api.NewServer(cfg.Server.Port, a.anyRegionReady, logger)
	return a, nil
}

// buildWorkers registers one ladder task per sub-region and one match task
// per main region. Every worker owns its own Riot client: the external rate
// limit is enforced per key per worker, and the client itself is not safe
// for concurrent use.
func (a *App) buildWorkers() {
	for main, subs := range a.cfg.Topology() {
		signal := crawler.NewSignal()
		a.signals = append(a.signals, signal)

		for _, sub := range subs {
			ladder := crawler.NewLadder(
				sub,
				a.newClient(fmt.Sprintf("ladder-%s", sub)),
				a.gateway,
				signal,
				logging.ForWorker(a.logger, fmt.Sprintf("ladder-%s", sub)),
			)
			a.sup.Add(supervisor.Task{
				Name:           fmt.Sprintf("ladder-%s", sub),
				Sweep:          ladder.Sweep,
				Idle:           a.cfg.LadderIdle(),
				RestartBackoff: a.cfg.RestartBackoff(),
			})
		}

		matches := crawler.NewMatch(
			main,
			subs,
			a.newClient(fmt.Sprintf("matches-%s", main)),
			a.gateway,
			signal,
			crawler.MatchConfig{
				MaxPages:      a.cfg.Crawler.MatchPageCap,
				BootstrapPoll: a.cfg.BootstrapPoll(),
			},
			logging.ForWorker(a.logger, fmt.Sprintf("matches-%s", main)),
		)
		a.sup.Add(supervisor.Task{
			Name:           fmt.Sprintf("matches-%s", main),
			Init:           matches.WaitForBootstrap,
			Sweep:          matches.Iterate,
			RestartBackoff: a.cfg.RestartBackoff(),
		})
	}
}

func (a *App) newClient(worker string) *riot.Client {
	return riot.New(riot.Config{
		APIKey:            a.cfg.Riot.APIKey,
		Timeout:           a.cfg.RiotTimeout(),
		RequestsPerSecond: a.cfg.Riot.RequestsPerSecond,
		Burst:             a.cfg.Riot.Burst,
		MaxRetries:        a.cfg.Riot.MaxRetries,
	}, logging.ForWorker(a.logger, worker))
}

func (a *App) anyRegionReady() bool {
	for _, s := range a.signals {
		if s.IsSet() {
			return true
		}
	}
	return false
}

// Run blocks until the context finishes, then drains workers, the ops
// server and the store. In-flight sweeps finish or fail naturally; no new
// iterations start once cancellation is observed.
func (a *App) Run(ctx context.Context) error {
	go a.ops.Start()

	a.sup.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("ops server shutdown", zap.Error(err))
	}
	a.gateway.Close()
	_ = a.logger.Sync()
	return nil
}
