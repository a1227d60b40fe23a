package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/smarttenders/internal/apiclient"
	"github.com/simp-lee/smarttenders/internal/clientstate"
	"github.com/simp-lee/smarttenders/internal/config"
	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/module/account"
	"github.com/simp-lee/smarttenders/internal/module/auth"
	"github.com/simp-lee/smarttenders/internal/module/content"
	"github.com/simp-lee/smarttenders/internal/module/register"
	tendermodule "github.com/simp-lee/smarttenders/internal/module/tender"
	"github.com/simp-lee/smarttenders/internal/remote"
	"github.com/simp-lee/smarttenders/internal/tender"
	"github.com/simp-lee/smarttenders/internal/wizard"
	"github.com/simp-lee/smarttenders/web"
)

const (
	defaultSessionTTL      = 7 * 24 * time.Hour
	defaultClientMaxAge    = 30 * 24 * time.Hour
	defaultWizardTTL       = time.Hour
	defaultFilterCacheTTL  = 30 * 24 * time.Hour
	defaultStoreIdleTTL    = 30 * time.Minute
	defaultSweepInterval   = 5 * time.Minute
	defaultTaxonomyRefresh = 15 * time.Minute
	defaultPurgeInterval   = time.Hour
	shutdownTimeout        = 5 * time.Second

	csrfKeyLabel = "smarttenders csrf v1"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine  *gin.Engine
	db      *gorm.DB
	rdb     *redis.Client
	logger  *logger.Logger
	cfg     *config.Config
	workers []worker
	closers []func() // in-memory caches, closed after the workers stop
}

// worker is a background loop that runs until its context is cancelled.
type worker struct {
	name string
	run  func(ctx context.Context)
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, the client-state backend, the remote API
// client and its services, the per-client stores, the modules, middleware,
// template rendering and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDatabase(db)
	}()

	// 3. Client-state backend.
	var (
		rdb     *redis.Client
		state   clientstate.Store
		workers []worker
	)
	switch cfg.ClientState.Driver {
	case config.ClientStateRedis:
		rdb, err = config.SetupRedis(context.Background(), &cfg.Redis, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("setup redis: %w", err)
		}
		defer func() {
			if success {
				return
			}
			_ = rdb.Close()
		}()
		state = clientstate.NewRedisStore(rdb)
	default:
		if err := db.AutoMigrate(&domain.ClientState{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Debug("client state table migrated")
		state = clientstate.NewGormStore(db)
		purge := config.Duration(cfg.ClientState.PurgeInterval, defaultPurgeInterval)
		workers = append(workers, worker{name: "client state purge", run: func(ctx context.Context) {
			every(ctx, purge, func() {
				n, err := clientstate.PurgeExpired(ctx, db, time.Now())
				if err != nil {
					log.Warn("purge expired client state failed", slog.Any("error", err))
					return
				}
				if n > 0 {
					log.Debug("purged expired client state", slog.Int64("count", n))
				}
			})
		}})
	}

	// 4. Remote API client and services.
	api, err := apiclient.New(apiclient.Options{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      config.Duration(cfg.API.Timeout, 0),
		RetryTimeout: config.Duration(cfg.API.RetryTimeout, 0),
		UserAgent:    cfg.API.UserAgent,
		Logger:       log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setup api client: %w", err)
	}
	tenders := remote.NewTenderService(api)
	categories := remote.NewCategoryService(api)
	packages := remote.NewPackageService(api)
	authRemote := remote.NewAuthService(api)
	accounts := remote.NewAccountService(api)
	contents := remote.NewContentService(api)

	// 5. Per-client state: persisted login, tender stores, wizards.
	keeper, err := clientstate.NewSessionKeeper(state, cfg.Session.Secret,
		config.Duration(cfg.Session.TTL, defaultSessionTTL), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup session keeper: %w", err)
	}
	sweep := config.Duration(cfg.Tenders.SweepInterval, defaultSweepInterval)
	registry := tender.NewRegistry(tender.RegistryOptions{
		Tenders:       tenders,
		State:         state,
		CacheTTL:      config.Duration(cfg.Tenders.FilterCacheTTL, defaultFilterCacheTTL),
		IdleTTL:       config.Duration(cfg.Tenders.StoreIdleTTL, defaultStoreIdleTTL),
		SweepInterval: sweep,
		Logger:        log.Logger,
	})
	wizardTTL := config.Duration(cfg.Session.WizardTTL, defaultWizardTTL)
	wizards := wizard.NewSessions(wizardTTL, sweep)
	closers := []func(){registry.Close, wizards.Close}
	defer func() {
		if success {
			return
		}
		for _, c := range closers {
			c()
		}
	}()

	taxonomy := tender.NewTaxonomyLoader(categories, log.Logger)
	refresh := config.Duration(cfg.Tenders.TaxonomyRefresh, defaultTaxonomyRefresh)
	workers = append(workers, worker{name: "taxonomy refresh", run: func(ctx context.Context) {
		every(ctx, refresh, func() {
			// Failures are logged by the loader; the previous facets stay.
			_, _ = taxonomy.Reload(ctx)
		})
	}})
	footer := content.NewFooter(contents, 0, log.Logger)

	// 6. Modules: service -> handler -> module.
	authSvc := auth.NewService(authRemote, keeper, registry, log.Logger)
	accountSvc := account.NewService(accounts, keeper, log.Logger)
	modules := []Module{
		content.NewModule(
			content.NewContentHandler(packages, footer),
			content.NewContentPageHandler(contents, packages),
		),
		tendermodule.NewModule(
			tendermodule.NewTenderHandler(registry, taxonomy, tenders),
			tendermodule.NewTenderPageHandler(registry, taxonomy, tenders),
		),
		auth.NewModule(auth.NewHandler(authSvc), auth.NewAuthPageHandler(authSvc)),
		register.NewModule(register.NewRegisterPageHandler(register.Deps{
			Wizards:    wizards,
			Auth:       authRemote,
			Packages:   packages,
			Taxonomy:   taxonomy,
			State:      state,
			Sessions:   keeper,
			Cache:      registry,
			PendingTTL: wizardTTL,
			Logger:     log.Logger,
		})),
		account.NewModule(
			account.NewAccountHandler(accountSvc),
			account.NewAccountPageHandler(accountSvc, taxonomy),
		),
	}

	// 7. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestID(middleware.RequestIDConfig{TrustUpstream: false}),
		middleware.Logger(log.Logger, "/health", "/static/"),
		middleware.CORS(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
	)
	if d := config.Duration(cfg.Server.Timeout, 0); d > 0 {
		engine.Use(requestTimeout(d))
	}

	// 8. Determine filesystem mode and set up template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 9. Resolve CSRF secret.
	csrfSecret, err := resolveCSRFSecret(cfg)
	if err != nil {
		return nil, err
	}

	// 10. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		DB:         db,
		Redis:      rdb,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
		Client: []gin.HandlerFunc{
			middleware.ClientIdentity(middleware.ClientConfig{
				Secret: cfg.Session.Secret,
				MaxAge: config.Duration(cfg.Session.ClientMaxAge, defaultClientMaxAge),
				Secure: cfg.Server.SecureCookies,
			}),
			middleware.LoadSession(keeper, log.Logger),
			middleware.Flash(),
		},
		SecureCookies: cfg.Server.SecureCookies,
		Footer:        footer.Middleware(),
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine:  engine,
		db:      db,
		rdb:     rdb,
		logger:  log,
		cfg:     cfg,
		workers: workers,
		closers: closers,
	}, nil
}

// every calls fn at interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// requestTimeout bounds the context handed to handlers, and therefore every
// remote API call they make.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCSRFSecret returns the configured CSRF secret, or one derived from
// session.secret when none is configured.
func resolveCSRFSecret(cfg *config.Config) (string, error) {
	secret := strings.TrimSpace(cfg.Server.CSRFSecret)
	if isPlaceholderCSRFSecret(secret) {
		if strings.TrimSpace(cfg.Session.Secret) == "" {
			return "", errors.New("csrf_secret or session.secret is required")
		}
		mac := hmac.New(sha256.New, []byte(cfg.Session.Secret))
		mac.Write([]byte(csrfKeyLabel))
		return hex.EncodeToString(mac.Sum(nil)), nil
	}

	if cfg.Server.Mode == gin.ReleaseMode {
		if len(secret) < 32 {
			return "", errors.New("csrf_secret must be at least 32 characters in release mode")
		}
		if config.CountSecretClasses(secret) < 3 {
			return "", errors.New("csrf_secret must include at least 3 character classes in release mode")
		}
	}
	return secret, nil
}

func resolveCORSConfig(mode string, cfg *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()
	if cfg == nil {
		if mode == gin.ReleaseMode {
			corsConfig.AllowOrigins = []string{}
		}
		return corsConfig
	}

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		// No allowlist in release mode: deny cross-origin requests.
		corsConfig.AllowOrigins = []string{}
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	corsConfig.MaxAge = config.Duration(cfg.MaxAge, corsConfig.MaxAge)
	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

func closeDatabase(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("database close error", slog.Any("error", err))
	}
}

// log returns the application logger, falling back to slog's default.
func (a *App) log() *slog.Logger {
	if a.logger != nil && a.logger.Logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}

// Run starts the HTTP server and the background workers, then blocks until a
// shutdown signal is received. It shuts down gracefully within five seconds,
// stops the workers and closes redis, the database and the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}
	log := a.log()

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, w := range a.workers {
		wg.Go(func() {
			log.Debug("worker started", slog.String("worker", w.name))
			w.run(workerCtx)
		})
	}

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	stopWorkers()
	wg.Wait()
	for _, c := range a.closers {
		c()
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Error("redis close error", slog.Any("error", err))
		} else {
			log.Info("redis connection closed")
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("database close error", slog.Any("error", err))
			} else {
				log.Info("database connection closed")
			}
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
