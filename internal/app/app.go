// Package app wires configuration into the running service: storage,
// resolver tiers, orchestration, scheduler, and the HTTP listener.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"SportDigest/internal/config"
	"SportDigest/internal/domain"
	"SportDigest/internal/httpapi"
	"SportDigest/internal/infrastructure/llm"
	"SportDigest/internal/infrastructure/scheduler"
	"SportDigest/internal/infrastructure/sportsapi"
	"SportDigest/internal/infrastructure/storage"
	"SportDigest/internal/infrastructure/websearch"
	"SportDigest/internal/logging"
	"SportDigest/internal/ports"
	"SportDigest/internal/resolve"
	"SportDigest/internal/usecase"
)

// Application owns every long-lived component and their shutdown order.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.FileStore
	service   *usecase.DigestService
	scheduler *usecase.Scheduler
	registry  *scheduler.Registry
	archive   *storage.Archive
	archiveDB *sql.DB
	handler   *httpapi.Handler
}

// New builds the full dependency graph from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store := storage.NewFileStore(cfg.Storage.Path)

	var (
		archive   *storage.Archive
		archiveDB *sql.DB
	)
	if cfg.Archive.DSN != "" {
		db, err := sql.Open("postgres", cfg.Archive.DSN)
		if err != nil {
			return nil, err
		}
		archiveDB = db
		archive = storage.NewArchive(db)
	}

	var chatClient ports.ChatClient
	if cfg.ChatGPT.APIKey != "" {
		chatClient = llm.NewChatGPTClient(cfg.ChatGPT)
	} else {
		baseLogger.Warn("no chat api key configured, generative tier and synthesis disabled")
	}

	var searchClient ports.SearchClient
	if cfg.Search.Endpoint != "" {
		searchClient = websearch.NewClient(cfg.Search, nil)
	}

	registry := resolve.NewRegistry()
	if cfg.SportsAPI.BaseURL != "" {
		registry.Register(domain.CategoryBallSport, sportsapi.NewClient(cfg.SportsAPI, nil))
	} else {
		baseLogger.Warn("no sports api configured, structured tier disabled")
	}

	resolver := resolve.NewResolver(resolve.ResolverDeps{
		Registry: registry,
		Search:   searchClient,
		Chat:     chatClient,
		Timeout:  cfg.Pipeline.ResolverTimeout(),
		Logger:   baseLogger.With("component", "resolver"),
	})

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Resolver:      resolver,
		Synthesizer:   usecase.NewSynthesizer(chatClient, baseLogger.With("component", "synthesizer")),
		BranchTimeout: cfg.Pipeline.BranchTimeout(),
		Logger:        baseLogger.With("component", "orchestrator"),
	})

	// The registry fires into the scheduler usecase, which is built after
	// the service; the indirection below breaks the cycle.
	var schedUC *usecase.Scheduler
	jobRegistry := scheduler.NewRegistry(func(userID string) {
		schedUC.HandleFiring(userID)
	}, baseLogger.With("component", "scheduler"))

	var digestArchive ports.DigestArchive
	if archive != nil {
		digestArchive = archive
	}
	service := usecase.NewDigestService(usecase.ServiceDeps{
		Store:               store,
		Jobs:                jobRegistry,
		Orchestrator:        orchestrator,
		Archive:             digestArchive,
		HistoryCap:          storage.DefaultHistoryCap,
		Logger:              baseLogger.With("component", "service"),
		DefaultDeliveryTime: cfg.Scheduler.DefaultDeliveryTime,
		DefaultTimezone:     cfg.Scheduler.Location().String(),
	})
	schedUC = usecase.NewScheduler(service, cfg.Pipeline.BranchTimeout()*3, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		service:   service,
		scheduler: schedUC,
		registry:  jobRegistry,
		archive:   archive,
		archiveDB: archiveDB,
		handler:   httpapi.NewHandler(service, archive, baseLogger.With("component", "http")),
	}, nil
}

// Run starts the scheduler and HTTP server and blocks until ctx is canceled,
// then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	if a.archive != nil {
		a.checkArchive(ctx)
	}

	if err := a.scheduler.Rehydrate(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      a.handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.registry.Stop()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	a.registry.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	if a.archiveDB != nil {
		if cerr := a.archiveDB.Close(); cerr != nil {
			a.logger.Warn("archive close failed", "error", cerr)
		}
	}
	return err
}

// checkArchive pings the archive database and logs the most recent archived
// digest per known user, so operators can spot a stalled mirror at startup.
func (a *Application) checkArchive(ctx context.Context) {
	if err := a.archive.Ping(ctx); err != nil {
		a.logger.Warn("digest archive unreachable, mirroring disabled until it recovers", "error", err)
		return
	}

	ids, err := a.store.ListUserIDs(ctx)
	if err != nil || len(ids) == 0 {
		return
	}
	last, err := a.archive.LastArchived(ctx, ids)
	if err != nil {
		a.logger.Warn("archive status query failed", "error", err)
		return
	}
	for id, ts := range last {
		a.logger.Info("archive status", "user_id", id, "last_archived", ts)
	}
}
