package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailcloud/retail-sdk/internal/server"
	"github.com/retailcloud/retail-sdk/modules"
	"github.com/retailcloud/retail-sdk/modules/core"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/persistence"
	"github.com/retailcloud/retail-sdk/modules/core/infrastructure/schema"
	"github.com/retailcloud/retail-sdk/pkg/application"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/eventbus"
	"github.com/retailcloud/retail-sdk/pkg/logging"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		cleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer cleanup()
		logger.Info("tracing enabled, exporting to " + conf.OpenTelemetry.TempoURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	schemaManager := schema.NewManager(pool, persistence.NewTenantRepository(), conf, logger)
	if err := schemaManager.MigrateRegistry(ctx); err != nil {
		logger.WithError(err).Fatal("failed to migrate registry tables")
	}

	runner := schema.NewRunner(schemaManager, logger)
	runnerCtx, stopRunner := context.WithCancel(context.Background())
	defer stopRunner()
	runner.Start(composables.WithPool(runnerCtx, pool))

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	mods := modules.BuiltIn(&core.ModuleOptions{
		SchemaManager: schemaManager,
		JobRunner:     runner,
	})
	if err := modules.Load(app, mods...); err != nil {
		logger.WithError(err).Fatal("failed to load modules")
	}

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to assemble server")
	}

	logger.WithField("address", conf.SocketAddress).Info("server listening")
	if err := srv.Start(conf.SocketAddress); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
