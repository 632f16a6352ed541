package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"crewops/internal/cache"
	"crewops/internal/config"
	"crewops/internal/database"
	"crewops/internal/database/migration"
	"crewops/internal/events"
	"crewops/internal/repository"
	"crewops/internal/repository/memory"
	"crewops/internal/repository/postgres"
	"crewops/internal/service"
	"crewops/internal/storage"
)

// repositories is the storage backend selected by REPOSITORY_DRIVER.
type repositories struct {
	db          *sql.DB
	documents   repository.DocumentRepository
	contracts   repository.ContractRepository
	candidates  repository.CandidateRepository
	assignments repository.AssignmentRepository
}

func (r *repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// openRepositories connects and migrates Postgres, or builds the in-memory store.
func openRepositories(ctx context.Context, cfg *config.AppConfig, log logrus.FieldLogger) (*repositories, error) {
	switch cfg.RepositoryDriver {
	case "memory":
		log.Warn("using in-memory repositories; data is lost on exit")
		store := memory.NewStore()
		return &repositories{
			documents:   store.Documents(),
			contracts:   store.Contracts(),
			candidates:  store.Candidates(),
			assignments: store.Assignments(),
		}, nil
	case "postgres", "":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &repositories{
			db:          db,
			documents:   postgres.NewDocumentPostgres(db),
			contracts:   postgres.NewContractPostgres(db),
			candidates:  postgres.NewCandidatePostgres(db),
			assignments: postgres.NewAssignmentPostgres(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown REPOSITORY_DRIVER %q (want postgres or memory)", cfg.RepositoryDriver)
	}
}

// services is everything the HTTP layer and the background jobs need.
type services struct {
	repos         *repositories
	store         storage.DocumentStore
	rdb           *redis.Client
	verification  service.VerificationService
	documentation service.DocumentationTracker
	contracts     service.ContractService
	candidates    service.CandidateService
	matching      service.MatchingService
	assignments   service.AssignmentService
}

func (s *services) Close() error {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	return s.repos.Close()
}

// buildServices wires repositories, optional MinIO and Redis, and the domain
// services. MinIO and Redis are skipped when unconfigured.
func buildServices(ctx context.Context, cfg *config.AppConfig, log logrus.FieldLogger, reg prometheus.Registerer) (*services, error) {
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := &services{repos: repos}

	if cfg.MinIO.Enabled() {
		if s.store, err = storage.NewMinIO(ctx, cfg.MinIO); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
	} else {
		log.Info("object storage not configured; uploads and downloads are disabled")
	}

	bus := events.NewBus()
	var (
		pub      events.Publisher = bus
		docCache cache.Cache      = cache.NewMemoryCache()
	)
	if cfg.Redis.Enabled() {
		if s.rdb, err = cache.NewRedisClient(ctx, cfg.Redis); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		docCache = cache.NewRedisCache(s.rdb)
		pub = events.Fanout{bus, events.NewRedisPublisher(s.rdb)}
	}

	s.verification = service.NewVerificationService(repos.documents, s.store, pub, log)
	s.documentation = service.NewDocumentationTracker(repos.documents, docCache, bus, log)
	s.contracts = service.NewContractService(repos.contracts, cfg.Lifecycle.RenewalWindow(), log)
	s.candidates = service.NewCandidateService(repos.candidates)
	s.matching = service.NewMatchingService(s.contracts, repos.candidates, log)
	if s.assignments, err = service.NewAssignmentService(repos.contracts, repos.candidates, repos.assignments, reg, log); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to register assignment metrics: %w", err)
	}
	return s, nil
}
