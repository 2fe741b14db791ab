package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/agent"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/routes/agents"
	"github.com/Ramsey-B/clover/pkg/routes/duplicates"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/imports"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the database (running migrations), the optional Kafka producer and
graph client, then serve the HTTP API until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, flush, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer flush()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// infra holds the handles opened by the startup dependencies
type infra struct {
	db       database.DB
	producer *kafka.Producer
	graph    *graph.Client
}

func serve(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Exporter:    cfg.TracingExporter,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	deps := &infra{}
	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts, time.Second)
	registerDependencies(boot, cfg, logger, deps)

	if err := boot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := boot.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	handler, err := newAPI(cfg, logger, deps, boot.Ready)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerDependencies(boot *startup.Startup, cfg *config.Config, logger ectologger.Logger, deps *infra) {
	boot.AddDependency(startup.Func{
		Name: "database",
		StartFn: func(ctx context.Context) error {
			db, err := openDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			deps.db = db
			return nil
		},
		StopFn: func(context.Context) error {
			return deps.db.Close()
		},
	})

	if cfg.KafkaEnabled {
		boot.AddDependency(startup.Func{
			Name: "kafka",
			StartFn: func(ctx context.Context) error {
				producer := kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: cfg.KafkaBatchTimeout,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				if err := producer.EnsureTopic(ctx); err != nil {
					_ = producer.Close()
					return err
				}
				deps.producer = producer
				return nil
			},
			StopFn: func(context.Context) error {
				return deps.producer.Close()
			},
		})
	}

	if cfg.GraphEnabled {
		boot.AddDependency(startup.Func{
			Name: "graph",
			StartFn: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     cfg.GraphDBHost,
					Port:     cfg.GraphDBPort,
					Username: cfg.GraphDBUser,
					Password: cfg.GraphDBPassword,
				}, logger)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					_ = client.Close(ctx)
					return err
				}
				deps.graph = client
				return nil
			},
			StopFn: func(ctx context.Context) error {
				return deps.graph.Close(ctx)
			},
		})
	}
}

// newAPI wires the repositories, services and handlers on top of started dependencies
func newAPI(cfg *config.Config, logger ectologger.Logger, deps *infra, ready func() bool) (http.Handler, error) {
	detector, err := newDetector(cfg, logger)
	if err != nil {
		return nil, err
	}

	// interfaces stay untyped nil when a dependency is disabled
	var publisher events.Publisher
	if deps.producer != nil {
		publisher = deps.producer
	}
	var runner graph.StatementRunner
	if deps.graph != nil {
		runner = deps.graph
	}

	repo := agent.NewRepository(deps.db, logger)
	emitter := events.NewEmitter(publisher, logger)
	projector := graph.NewProjector(runner, logger)
	parser := importer.NewParser(logger, importer.Options{Charset: cfg.ImportCSVCharset})
	service := reconcile.NewService(deps.db, repo, detector, parser, emitter, projector, logger)

	checker := health.NewChecker(cfg.Version, ready)
	checker.AddCheck("database", deps.db.PingContext)
	if deps.graph != nil {
		checker.AddCheck("graph", deps.graph.VerifyConnectivity)
	}

	return routes.NewServer(cfg.AppName, routes.Handlers{
		Agents:     agents.NewHandler(repo, emitter, projector, logger),
		Duplicates: duplicates.NewHandler(service),
		Imports:    imports.NewHandler(service),
		Health:     checker,
	}, logger), nil
}

// newDetector builds the detector from MATCHING_* settings
func newDetector(cfg *config.Config, logger ectologger.Logger) (*matching.Detector, error) {
	matchingConfig := matching.DefaultConfig()
	if cfg.MatchingConfigPath != "" {
		loaded, err := matching.LoadConfigFile(cfg.MatchingConfigPath)
		if err != nil {
			return nil, err
		}
		matchingConfig = loaded
	}

	return matching.NewDetector(logger, matching.NewClassifier(matchingConfig), matching.DetectorConfig{
		Workers:  cfg.MatchingWorkers,
		Blocking: cfg.MatchingBlocking,
	}), nil
}
