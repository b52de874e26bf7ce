package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"firetechnics/site/internal/catalog"
	"firetechnics/site/internal/client"
	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/gallery"
	"firetechnics/site/internal/handoff"
	"firetechnics/site/internal/locale"
	"firetechnics/site/internal/proxy"
	"firetechnics/site/internal/queue"
	"firetechnics/site/internal/relay"
	"firetechnics/site/internal/repository"
	"firetechnics/site/internal/service"
	"firetechnics/site/internal/state"
	"firetechnics/site/internal/web"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Content      catalog.Source
	Catalog      *catalog.Store
	Gallery      *gallery.Aggregator
	Handoffs     handoff.Store
	StateManager state.StateManager
	Queue        queue.Queue
	Service      *service.Service
	Web          *web.Server

	server *http.Server
	db     *pgxpool.Pool
	redis  *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	langs := domain.Languages(cfg.Locale.Supported)
	def := domain.ParseLanguage(cfg.Locale.Default)
	schema := domain.Schema{Languages: langs, Default: def}

	var inquiries repository.InquiryRepository

	switch cfg.Content.Backend {
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to Postgres successfully")

		container.db = db
		container.Content = repository.NewContentRepository(db, schema)
		inquiries = repository.NewInquiryRepository(db)
	default:
		var endpoints proxy.EndpointSupplier
		if cfg.Content.ValidateEndpoints {
			endpoints = proxy.NewValidatedEndpointSupplier(ctx, cfg.Content.BaseURLs, client.RESTPath, cfg.Content.APIKey)
		} else {
			endpoints = proxy.NewEndpointSupplier(cfg.Content.BaseURLs)
		}
		if endpoints.Len() == 0 {
			return nil, errors.New("content.base_urls must list at least one endpoint")
		}
		container.Content = client.NewContentClient(cfg.Content, endpoints, schema)
	}

	container.Catalog = catalog.NewStore(container.Content, cfg.Content.CacheDuration(), def)
	container.Gallery = gallery.NewAggregator(container.Catalog)

	handoffTTL := time.Duration(cfg.Navigation.HandoffTTL) * time.Second
	sessionTTL := time.Duration(cfg.Navigation.SessionTTL) * time.Second

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		container.redis = rdb

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Queue = redisQueue
		container.Handoffs = handoff.NewRedisStore(rdb, handoffTTL)
		container.StateManager = state.NewRedisStateManager(rdb, sessionTTL)
	} else {
		log.Info("Redis disabled, keeping sessions and handoffs in memory")
		container.Handoffs = handoff.NewMemoryStore(handoffTTL)
		container.StateManager = state.NewMemoryStateManager(sessionTTL)
	}

	if !cfg.Relay.Configured() {
		log.Warn("⚠️ Email relay is not configured, contact inquiries will fail to deliver")
	}

	container.Service = service.NewService(
		container.Catalog,
		container.Queue,
		relay.NewEmailJSRelay(cfg.Relay),
		inquiries,
		cfg.Redis.MinIdleTime,
	)

	bundle, err := locale.LoadBundle(langs, def)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to load UI strings: %w", err)
	}

	webServer, err := web.NewServer(cfg, web.Deps{
		Catalog:    container.Catalog,
		Gallery:    container.Gallery,
		Handoffs:   container.Handoffs,
		States:     container.StateManager,
		Inquiries:  container.Service,
		Bundle:     bundle,
		Negotiator: locale.NewNegotiator(langs, def),
	})
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Web = webServer

	container.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      webServer.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return container, nil
}

// Run serves HTTP, runs the background workers and warms the catalog until ctx ends.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🌐 Listening on %s", c.server.Addr)
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return c.server.Shutdown(shutdownCtx)
	})

	// Run workers to process tasks
	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Redis.Workers)
	})

	// Warm-up failures are logged, never fatal
	g.Go(func() error {
		if err := c.Service.RequestWarmUp(ctx, "startup", false); err != nil {
			log.Warnf("⚠️ Startup warm-up failed: %v", err)
		}
		return nil
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
