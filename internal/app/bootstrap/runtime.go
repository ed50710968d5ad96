package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/hackdao/governance-service/internal/adapters/cache"
	eventadapter "github.com/hackdao/governance-service/internal/adapters/events"
	grpcadapter "github.com/hackdao/governance-service/internal/adapters/grpc"
	httpadapter "github.com/hackdao/governance-service/internal/adapters/http"
	"github.com/hackdao/governance-service/internal/adapters/memory"
	"github.com/hackdao/governance-service/internal/adapters/postgres"
	"github.com/hackdao/governance-service/internal/application"
	"github.com/hackdao/governance-service/internal/ports"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	worker     *eventadapter.Worker
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:                  cfg.ServiceID,
			VotingPeriod:                 cfg.VotingPeriod,
			ExtensionPeriod:              cfg.ExtensionPeriod,
			DefaultQuorumFraction:        cfg.QuorumFraction,
			DefaultApprovalThreshold:     cfg.ApprovalThreshold,
			HybridWeightedShare:          cfg.HybridWeightedShare,
			IdempotencyTTL:               cfg.IdempotencyTTL,
			EventDedupTTL:                cfg.EventDedupTTL,
			OutboxFlushBatchSize:         100,
			ReportCacheTTL:               cfg.ReportCacheTTL,
			EnableDomainEventConsumption: cfg.EnableDomainEventConsumption,
		},
	}

	// Postgres when configured, otherwise the in-memory store. The in-memory
	// mode serves local runs and short-lived deployments where state resets
	// are acceptable.
	if cfg.DatabaseURL != "" {
		db, connErr := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if connErr != nil {
			return nil, connErr
		}
		if migErr := postgres.RunMigrations(ctx, db); migErr != nil {
			return nil, migErr
		}
		repos := postgres.NewRepositories(db)
		deps.Proposals = repos.Proposals
		deps.Votes = repos.Votes
		deps.Royalties = repos.Royalties
		deps.Snapshots = repos.Snapshots
		deps.Audit = repos.Audit
		deps.Idempotency = repos.Idempotency
		deps.EventDedup = repos.EventDedup
		deps.Outbox = repos.Outbox
	} else {
		repos := memory.NewRepositories()
		deps.Proposals = repos.Proposals
		deps.Votes = repos.Votes
		deps.Royalties = repos.Royalties
		deps.Snapshots = repos.Snapshots
		deps.Audit = repos.Audit
		deps.Idempotency = repos.Idempotency
		deps.EventDedup = repos.EventDedup
		deps.Outbox = repos.Outbox
	}

	if cfg.RedisURL != "" {
		client, redisErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			return nil, redisErr
		}
		deps.ReportCache = cacheadapter.NewRedisReportCache(client)
		deps.EventDedup = cacheadapter.NewRedisEventDedupStore(client)
	}

	if cfg.MemberGRPCURL != "" || cfg.TeamGRPCURL != "" || cfg.ContributionGRPCURL != "" {
		deps.Members = grpcadapter.NewMemberClient(cfg.MemberGRPCURL)
		deps.Teams = grpcadapter.NewTeamClient(cfg.TeamGRPCURL)
		deps.Contributions = grpcadapter.NewContributionClient(cfg.ContributionGRPCURL)
	} else {
		directory := memory.NewDirectory()
		if cfg.EnableSampleData {
			directory.SeedSampleData(time.Now().UTC())
		}
		deps.Members = directory
		deps.Teams = directory
		deps.Contributions = directory
	}

	domainPublisher := eventadapter.NewMemoryDomainPublisher()
	dlqPublisher := eventadapter.NewLoggingDLQPublisher()
	deps.DomainEvents = domainPublisher
	deps.DLQ = dlqPublisher

	service := application.NewService(deps)

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewGovernanceInternalServer(service))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, err
	}

	var consumer ports.EventConsumer = eventadapter.NewMemoryConsumer()
	worker := eventadapter.NewWorker(logger, consumer, dlqPublisher, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		worker:     worker,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
