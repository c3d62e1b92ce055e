package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/hirescope/hirescope/internal/api/handlers"
	"github.com/hirescope/hirescope/internal/api/middleware"
	"github.com/hirescope/hirescope/internal/config"
	"github.com/hirescope/hirescope/internal/embeddings"
	"github.com/hirescope/hirescope/internal/extract"
	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/natsutil"
	"github.com/hirescope/hirescope/internal/observability"
	"github.com/hirescope/hirescope/internal/openai"
	"github.com/hirescope/hirescope/internal/rag"
	"github.com/hirescope/hirescope/internal/repository"
	"github.com/hirescope/hirescope/internal/resume"
	"github.com/hirescope/hirescope/internal/service"
	"github.com/hirescope/hirescope/internal/sessions"
	"github.com/hirescope/hirescope/internal/vectorstore"
	"github.com/hirescope/hirescope/internal/workers"
	"github.com/hirescope/hirescope/pkg/database"
)

const serviceName = "hirescope-api"

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          *redis.Client
	nats           *nats.Conn
	collection     vectorstore.Collection
	server         *http.Server
	river          *river.Client[pgx.Tx]
	message        *service.MessagePublisherManager
	meterProvider  observability.MeterProviderShutdown
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics

	// closers run in reverse order on shutdown.
	closers []func()
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure. On error, everything already
// opened is released.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *App, err error) {
	a := &App{cfg: cfg, logger: logger}

	defer func() {
		if err != nil {
			_ = a.release(context.Background())
		}
	}()

	metricsHandler, err := a.setupObservability(ctx)
	if err != nil {
		return nil, err
	}

	var (
		httpMetrics  observability.HTTPMetrics
		ragMetrics   observability.RAGMetrics
		eventMetrics observability.EventMetrics
		cacheMetrics observability.CacheMetrics
	)

	if a.metrics != nil {
		httpMetrics = a.metrics.HTTP
		ragMetrics = a.metrics.RAG
		eventMetrics = a.metrics.Events
		cacheMetrics = a.metrics.Cache
	}

	embedder, err := embeddings.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	cachedEmbedder := vectorstore.NewCachedEmbedder(embedder, cfg.QueryCacheSize, cfg.QueryCacheTTL, cacheMetrics)

	if cfg.UsesPostgres() {
		if err := a.openDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if err := a.openCollection(ctx, cachedEmbedder); err != nil {
		return nil, err
	}

	chatOpts := []openai.ChatOption{
		openai.WithChatModel(cfg.ChatModel),
		openai.WithTimeout(cfg.LLMTimeout),
	}
	if cfg.LLMRateLimit > 0 {
		chatOpts = append(chatOpts, openai.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.LLMRateLimit), 1)))
	}

	chat := openai.NewChatClient(cfg.OpenAIAPIKey, chatOpts...)

	engine := rag.NewEngine(a.collection, chat, rag.Config{
		ChatModel:         cfg.ChatModel,
		TopK:              cfg.RAGTopK,
		Temperature:       cfg.RAGTemperature,
		MaxTokens:         cfg.RAGMaxTokens,
		MaxHistory:        cfg.RAGMaxHistory,
		ClassifierEnabled: cfg.RAGClassifierEnabled,
	}, rag.WithMetrics(ragMetrics), rag.WithLogger(logger))

	summarizer := resume.NewSummarizer(chat,
		resume.WithSummaryModel(cfg.SummaryModel),
		resume.WithSummaryMetrics(ragMetrics),
	)

	store, err := a.openSessionStore(ctx)
	if err != nil {
		return nil, err
	}

	a.message = service.NewMessagePublisherManager(cfg.MessagePublisherBufferSize, eventMetrics)

	if cfg.NATSURL != "" {
		conn, err := natsutil.Connect(cfg.NATSURL, serviceName)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}

		a.nats = conn
		a.closers = append(a.closers, conn.Close)
		a.message.RegisterProvider(service.NewNATSProvider(conn, cfg.NATSSubjectPrefix))
		slog.Info("candidate events published to NATS", "subject_prefix", cfg.NATSSubjectPrefix)
	}

	ingestion := service.NewIngestionService(a.collection, extract.NewPDFExtractor(), summarizer, a.message,
		service.WithIngestMetrics(ragMetrics),
	)

	var jobReader jobs.JobReader

	if cfg.IngestAsyncEnabled {
		inserter, err := a.setupRiver(ctx, ingestion)
		if err != nil {
			return nil, err
		}

		ingestion.SetJobInserter(inserter)
		jobReader = inserter
	}

	a.server = a.newHTTPServer(routes{
		health:        handlers.NewHealthHandler(a.healthChecks()...),
		query:         handlers.NewQueryHandler(service.NewQueryService(engine)),
		conversations: handlers.NewConversationsHandler(service.NewConversationService(store, engine)),
		candidates:    handlers.NewCandidatesHandler(service.NewCandidatesService(a.collection, a.message)),
		resumes:       handlers.NewResumesHandler(ingestion),
		jobs:          jobReader,
		metrics:       metricsHandler,
	}, httpMetrics)

	return a, nil
}

// setupObservability starts tracing and metrics as configured and returns the /metrics handler (nil when disabled).
func (a *App) setupObservability(ctx context.Context) (http.Handler, error) {
	if a.cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tp, err := observability.NewTracerProvider(ctx, a.cfg.OtelTracesExporter, serviceName)
		if err != nil {
			return nil, fmt.Errorf("create tracer provider: %w", err)
		}

		a.tracerProvider = tp
	}

	if !a.cfg.MetricsEnabled {
		slog.Warn("metrics not enabled (METRICS_ENABLED false or unset)")
		return nil, nil
	}

	mp, handler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{
		ServiceName: serviceName,
		OTLPPush:    a.cfg.OtelMetricsExporter == observability.MetricsExporterOTLP,
	})
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	a.meterProvider = mp
	a.metrics = metrics

	return handler, nil
}

// openDatabase creates the pgvector extension when needed and opens the pool.
func (a *App) openDatabase(ctx context.Context) error {
	var opts []database.PoolOption

	if a.cfg.VectorStore == config.VectorStorePostgres {
		if err := database.EnsureExtensions(ctx, a.cfg.DatabaseURL, "vector"); err != nil {
			return fmt.Errorf("ensure pgvector extension: %w", err)
		}

		opts = append(opts, database.WithAfterConnect(pgxvec.RegisterTypes))
	}

	db, err := database.NewPostgresPool(ctx, a.cfg.DatabaseURL, opts...)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	a.db = db
	a.closers = append(a.closers, db.Close)

	return nil
}

// openCollection opens the vector store selected by VECTOR_STORE.
func (a *App) openCollection(ctx context.Context, embedder vectorstore.Embedder) error {
	switch a.cfg.VectorStore {
	case config.VectorStorePostgres:
		coll := repository.NewResumeCollection(a.db, a.cfg.CollectionName, embedder)
		if err := coll.EnsureSchema(ctx, a.cfg.EmbeddingDimensions); err != nil {
			return err
		}

		a.collection = coll
	case config.VectorStoreQdrant:
		coll, err := vectorstore.NewQdrantCollection(ctx, a.cfg.QdrantAddr, a.cfg.CollectionName, a.cfg.EmbeddingDimensions, embedder)
		if err != nil {
			return fmt.Errorf("open qdrant collection: %w", err)
		}

		a.collection = coll
		a.closers = append(a.closers, func() { _ = coll.Close() })
	default:
		coll, err := vectorstore.NewMemoryCollection(a.cfg.CollectionName, embedder,
			vectorstore.WithPersistDir(a.cfg.PersistDir),
			vectorstore.WithLogger(a.logger),
		)
		if err != nil {
			return fmt.Errorf("open memory collection: %w", err)
		}

		if !coll.Persistent() {
			slog.Warn("vector store is ephemeral; résumés are lost on restart", "persist_dir", a.cfg.PersistDir)
		}

		a.collection = coll
	}

	slog.Info("vector store ready", "backend", a.cfg.VectorStore, "collection", a.cfg.CollectionName)

	return nil
}

// openSessionStore returns the conversation store selected by SESSION_STORE.
func (a *App) openSessionStore(ctx context.Context) (sessions.Store, error) {
	if a.cfg.SessionStore != config.SessionStoreRedis {
		return sessions.NewMemoryStore(a.cfg.SessionMaxEntries, a.cfg.SessionTTL), nil
	}

	client, err := sessions.NewRedisClient(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	a.redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })

	return sessions.NewRedisStore(client, a.cfg.SessionTTL), nil
}

// setupRiver migrates the River schema and builds the client that runs queued ingestion.
func (a *App) setupRiver(ctx context.Context, ingestion *service.IngestionService) (*jobs.RiverJobInserter, error) {
	driver := riverpgxv5.New(a.db)

	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("create River migrator: %w", err)
	}

	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("migrate River schema: %w", err)
	}

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewResumeIngestWorker(ingestion))

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			jobs.IngestQueueName: {MaxWorkers: a.cfg.IngestWorkers},
		},
		Workers:      riverWorkers,
		ErrorHandler: &jobs.ErrorHandler{},
		MaxAttempts:  a.cfg.IngestMaxAttempts,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	a.river = client

	slog.Info("asynchronous ingestion enabled", "workers", a.cfg.IngestWorkers, "max_attempts", a.cfg.IngestMaxAttempts)

	return jobs.NewRiverJobInserter(client, a.cfg.IngestMaxAttempts), nil
}

// healthChecks pings every network dependency that was opened.
func (a *App) healthChecks() []handlers.HealthCheck {
	var checks []handlers.HealthCheck

	if a.db != nil {
		checks = append(checks, handlers.HealthCheck{Name: "postgres", Check: a.db.Ping})
	}

	if a.redis != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}})
	}

	if a.nats != nil {
		checks = append(checks, handlers.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !a.nats.IsConnected() {
				return errors.New("not connected")
			}

			return nil
		}})
	}

	return checks
}

type routes struct {
	health        *handlers.HealthHandler
	query         *handlers.QueryHandler
	conversations *handlers.ConversationsHandler
	candidates    *handlers.CandidatesHandler
	resumes       *handlers.ResumesHandler
	jobs          jobs.JobReader
	metrics       http.Handler
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and /metrics, API key on /v1/).
// Handler chain: RequestID -> otelhttp -> Logging -> Metrics -> mux, so access logs carry trace ids
// and Metrics sees the matched route pattern.
func (a *App) newHTTPServer(rt routes, httpMetrics observability.HTTPMetrics) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", rt.health.Check)

	if rt.metrics != nil {
		public.Handle("GET /metrics", rt.metrics)
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/query", rt.query.Query)

	protected.HandleFunc("POST /v1/conversations/{id}/messages", rt.conversations.SendMessage)
	protected.HandleFunc("GET /v1/conversations/{id}", rt.conversations.Get)

	protected.HandleFunc("GET /v1/candidates", rt.candidates.List)
	protected.HandleFunc("GET /v1/candidates/count", rt.candidates.Count)
	protected.HandleFunc("GET /v1/candidates/export", rt.candidates.Export)
	protected.HandleFunc("GET /v1/candidates/{id}", rt.candidates.Get)
	protected.HandleFunc("DELETE /v1/candidates/{id}", rt.candidates.Delete)

	protected.HandleFunc("POST /v1/resumes", rt.resumes.Upload)

	// Job lookups exist only when async ingestion is enabled.
	if rt.jobs != nil {
		protected.HandleFunc("GET /v1/ingest-jobs/{id}", handlers.NewIngestJobsHandler(rt.jobs).Get)
	}

	var protectedHandler http.Handler = protected
	protectedHandler = middleware.MaxBody(a.cfg.MaxUploadBytes, httpMetrics)(protectedHandler)
	protectedHandler = middleware.Auth(a.cfg.APIKey)(protectedHandler)

	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedHandler)
	mux.Handle("/", public)

	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if a.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(a.tracerProvider))
	}

	var inner http.Handler = mux
	inner = middleware.Metrics(httpMetrics)(inner)
	inner = middleware.Logging(a.logger)(inner)

	handler := otelhttp.NewHandler(inner, serviceName, otelOpts...)
	handler = middleware.RequestID(handler)

	// Uploads summarize up to 15 résumés in-request; the write timeout leaves room for that.
	const (
		readTimeout  = 60 * time.Second
		writeTimeout = 10 * time.Minute
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled (e.g. signal)
// or a component fails. When ctx is cancelled or a component fails, it cancels the internal
// River context so River and the queue depth poller stop before Run returns. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if a.river != nil {
		if a.metrics != nil && a.metrics.Events != nil {
			go jobs.RunQueueDepthPoller(riverCtx, a.db, jobs.QueueDepthInterval, a.metrics.Events.SetIngestBacklog)
		}

		go func() {
			if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
				select {
				case runErr <- fmt.Errorf("river: %w", err):
				default:
				}
			}
		}()
	}

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter observability.MeterProviderShutdown) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := meter.Shutdown(ctx); err != nil {
			if first == nil {
				first = fmt.Errorf("meter provider shutdown: %w", err)
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

// release closes connections and flushes observability. Used on startup failure and at the end of Shutdown.
func (a *App) release(ctx context.Context) error {
	if a.message != nil {
		a.message.Shutdown()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil

	return shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
}

// Shutdown stops the server, River, and the message publisher in order, then closes connections.
// Call after Run returns.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		relErr := a.release(ctx)
		if err == nil {
			err = relErr
		} else if relErr != nil {
			slog.Error("shutdown observability", "error", relErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if a.river != nil {
			if stopErr := a.river.Stop(ctx); stopErr != nil {
				slog.Error("river stop during server shutdown", "error", stopErr)
			}
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.river != nil {
		if err = a.river.Stop(ctx); err != nil {
			return fmt.Errorf("river stop: %w", err)
		}
	}

	return nil
}
