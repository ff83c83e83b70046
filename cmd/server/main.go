package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/lib/pq"

	"gather/contracts/connector"
	"gather/internal/collector"
	"gather/internal/filemanager"
	httpapi "gather/internal/http"
	"gather/internal/integration"
	"gather/internal/jwttoken"
	"gather/internal/platform/config"
	"gather/internal/platform/httpserver"
	"gather/internal/platform/logger"
	"gather/internal/platform/metrics"
	"gather/internal/platform/redis"
	"gather/internal/program"
	"gather/internal/scoped"
	"gather/internal/user"
	"gather/internal/workflow"
	"gather/pkg/platform/audit"
	"gather/pkg/platform/mail"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("opening database", "error", err)
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("pinging database", "error", err)
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditWorker, closeAudit, err := buildAudit(ctx, cfg, log)
	if err != nil {
		log.Error("connecting audit publisher", "error", err)
		return err
	}
	defer closeAudit()
	auditor := audit.NewRecorder(auditWorker, m)

	mailWorker := mail.NewWorker(mail.LogSender{Log: log}, log, 256)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		auditWorker.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		mailWorker.Run(ctx)
	}()

	users := scoped.NewRepository[*user.User](user.NewPostgresStore(db), user.Schema(),
		scoped.WithOwnerField[*user.User](cfg.OwnerField),
		scoped.WithLogger[*user.User](log),
		scoped.WithMetrics[*user.User](m.Scoped()),
		scoped.WithAuditor[*user.User](auditor),
	)
	programs := scoped.NewRepository[*program.Program](program.NewPostgresStore(db), program.Schema(),
		scoped.WithOwnerField[*program.Program](cfg.OwnerField),
		scoped.WithLogger[*program.Program](log),
		scoped.WithMetrics[*program.Program](m.Scoped()),
		scoped.WithAuditor[*program.Program](auditor),
	)
	assignments := scoped.NewRepository[*program.Assignment](program.NewAssignmentPostgresStore(db), program.AssignmentSchema(),
		scoped.WithOwnerField[*program.Assignment](cfg.OwnerField),
		scoped.WithLogger[*program.Assignment](log),
		scoped.WithMetrics[*program.Assignment](m.Scoped()),
		scoped.WithAuditor[*program.Assignment](auditor),
	)
	workflows := scoped.NewRepository[*workflow.Workflow](workflow.NewPostgresStore(db), workflow.Schema(),
		scoped.WithOwnerField[*workflow.Workflow](cfg.OwnerField),
		scoped.WithLogger[*workflow.Workflow](log),
		scoped.WithMetrics[*workflow.Workflow](m.Scoped()),
		scoped.WithAuditor[*workflow.Workflow](auditor),
	)
	fields := scoped.NewRepository[*workflow.Field](workflow.NewFieldPostgresStore(db), workflow.FieldSchema(),
		scoped.WithLogger[*workflow.Field](log),
	)
	mappings := scoped.NewRepository[*workflow.Mapping](workflow.NewMappingPostgresStore(db), workflow.MappingSchema(),
		scoped.WithLogger[*workflow.Mapping](log),
	)
	configs := scoped.NewRepository[*workflow.Configuration](workflow.NewConfigurationPostgresStore(db), workflow.ConfigurationSchema(),
		scoped.WithLogger[*workflow.Configuration](log),
	)
	submissions := scoped.NewRepository[*collector.Submission](collector.NewPostgresStore(db), collector.Schema(),
		scoped.WithOwnerField[*collector.Submission](cfg.OwnerField),
		scoped.WithLogger[*collector.Submission](log),
		scoped.WithMetrics[*collector.Submission](m.Scoped()),
		scoped.WithAuditor[*collector.Submission](auditor),
	)
	connections := scoped.NewRepository[*integration.ExternalConnection](integration.NewPostgresStore(db), integration.Schema(),
		scoped.WithOwnerField[*integration.ExternalConnection](cfg.OwnerField),
		scoped.WithLogger[*integration.ExternalConnection](log),
		scoped.WithMetrics[*integration.ExternalConnection](m.Scoped()),
		scoped.WithAuditor[*integration.ExternalConnection](auditor),
	)
	uploads := scoped.NewRepository[*filemanager.Upload](filemanager.NewPostgresStore(db), filemanager.Schema(),
		scoped.WithOwnerField[*filemanager.Upload](cfg.OwnerField),
		scoped.WithLogger[*filemanager.Upload](log),
		scoped.WithMetrics[*filemanager.Upload](m.Scoped()),
		scoped.WithAuditor[*filemanager.Upload](auditor),
	)

	backend, err := filemanager.NewLocalBackend(cfg.UploadDir)
	if err != nil {
		log.Error("preparing upload directory", "error", err)
		return err
	}

	var schemaCache *integration.SchemaCache
	if redisClient != nil {
		schemaCache = integration.NewSchemaCache(redisClient.Client, config.SchemaCacheTTL, log)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "gather", "gather-api")

	services := httpapi.Services{
		Users:     user.NewService(users, db, mailWorker, m, log),
		Programs:  program.NewService(programs, assignments, users, db, log),
		Workflows: workflow.NewService(workflows, fields, mappings, configs, programs, db, log),
		Collector: collector.NewService(submissions, workflows, m, log),
		Connections: integration.NewService(connections, map[connector.Type]connector.Strategy{
			connector.TypeDHIS2:    integration.NewDHIS2Strategy(),
			connector.TypePostgres: integration.NewPostgresStrategy(),
		}, schemaCache, m, log),
		Files: filemanager.NewService(uploads, backend, log),
	}

	router := httpapi.NewRouter(services, httpapi.Deps{
		Tokens: tokens,
		Logger: log,
		Health: func(r *http.Request) error {
			return db.PingContext(r.Context())
		},
	})

	srv := httpserver.New(httpserver.Config{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "error", err)
	}

	stop()
	workers.Wait()
	log.Info("server stopped")
	return nil
}

// buildAudit wires the kafka publisher when brokers are configured and falls
// back to the in-process publisher otherwise, so local runs need no broker.
func buildAudit(ctx context.Context, cfg config.Config, log *slog.Logger) (*audit.Worker, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewWorker(audit.NewMemoryPublisher(), log, 1024), func() {}, nil
	}
	publisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	return audit.NewWorker(publisher, log, 1024), publisher.Close, nil
}
