package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/classpulse/participation-hub/config"
	"github.com/classpulse/participation-hub/internal/application/command"
	"github.com/classpulse/participation-hub/internal/application/query"
	"github.com/classpulse/participation-hub/internal/domain/gradebook"
	"github.com/classpulse/participation-hub/internal/domain/participation"
	"github.com/classpulse/participation-hub/internal/infrastructure/external/classroom"
	"github.com/classpulse/participation-hub/internal/infrastructure/persistence/memory"
	"github.com/classpulse/participation-hub/internal/infrastructure/persistence/postgres"
	redisstore "github.com/classpulse/participation-hub/internal/infrastructure/persistence/redis"
	httpiface "github.com/classpulse/participation-hub/internal/interface/http"
	"github.com/classpulse/participation-hub/pkg/logger"
	"github.com/classpulse/participation-hub/pkg/timeutil"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the participation hub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.App.LogLevel),
		AddCaller: true,
	}).With(logger.String("app", cfg.App.Name))

	calendar, err := timeutil.NewCalendar(cfg.App.Timezone)
	if err != nil {
		return err
	}

	// Ledger store: Postgres when configured, in-memory otherwise.
	var store participation.Repository
	var healthChecker = httpiface.NewCompositeHealthChecker()
	if cfg.Database.URL != "" {
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Database.URL
		pgCfg.MaxConns = int32(cfg.Database.MaxConns)
		pgCfg.MinConns = int32(cfg.Database.MinConns)
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := postgres.Migrate(ctx, conn); err != nil {
			return err
		}

		store = postgres.NewParticipationRepository(conn)
		healthChecker.Add("postgres", conn.Ping)
		log.Info("using postgres ledger store")
	} else {
		store = memory.NewParticipationRepository()
		log.Warn("no database configured, using in-memory ledger store")
	}

	// Aggregate cache: optional Redis.
	var cache participation.AggregateCache
	if !cfg.Redis.Disabled && cfg.Redis.Addr != "" {
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		client := redisstore.NewClient(redisCfg)
		defer client.Close()

		c := redisstore.NewCache(client)
		cache = redisstore.NewAggregateCache(c)
		healthChecker.AddOptional("redis", c.Ping)
		log.Info("aggregate cache enabled", logger.String("addr", cfg.Redis.Addr))
	}

	// Gradebook client.
	creds := gradebook.CredentialProvider(classroom.NewStaticTokenProvider(cfg.Gradebook.Token))
	clientCfg := classroom.DefaultClientConfig(cfg.Gradebook.BaseURL)
	clientCfg.Timeout = cfg.Gradebook.RequestTimeout
	clientCfg.RateLimiterConfig.RequestsPerSecond = cfg.Gradebook.RequestsPerSecond
	clientCfg.RateLimiterConfig.BurstSize = cfg.Gradebook.RateLimitBurst
	clientCfg.Logger = log
	gbClient := classroom.NewClient(clientCfg, creds)

	// Application layer.
	submitHandler := command.NewSubmitGradeHandler(store, cache, gbClient, creds, calendar,
		command.SubmitGradeHandlerConfig{
			CacheTTL: cfg.Redis.AggregateTTL,
			Logger:   log,
		})
	historyHandler := query.NewGetHistoryHandler(store, cache, query.GetHistoryHandlerConfig{
		CacheTTL: cfg.Redis.AggregateTTL,
		Logger:   log,
	})
	rosterHandler := query.NewRosterHandler(gbClient)

	// HTTP interface.
	serverCfg := httpiface.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.IdleTimeout = cfg.Server.IdleTimeout
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	server := httpiface.NewServer(serverCfg, httpiface.Dependencies{
		SubmitGradeHandler: submitHandler,
		GetHistoryHandler:  historyHandler,
		RosterHandler:      rosterHandler,
		Logger:             log,
		HealthChecker:      healthChecker,
	})

	errCh := server.StartAsync()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info("shutdown signal received")
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
