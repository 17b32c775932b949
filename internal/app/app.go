package app

import (
	"context"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/media"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
	"github.com/sgjo/shop-api/internal/handler"
	"github.com/sgjo/shop-api/internal/storage/blob"
	"github.com/sgjo/shop-api/internal/storage/postgres"
	"github.com/sgjo/shop-api/pkg/health"
	"github.com/sgjo/shop-api/pkg/httpmiddleware"
	"github.com/sgjo/shop-api/pkg/logtail"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg, closeLog, err := teeToFile(lg, cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = zctx.Base(ctx, lg)

	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("log_file", cfg.Log.Path()))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	h, healthSvc, err := newHandler(ctx, lg, m, pool, cfg)
	if err != nil {
		return err
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHandler wires repositories, services and routes over pool and returns
// the fully wrapped HTTP handler with its health service.
func newHandler(
	ctx context.Context,
	lg *zap.Logger,
	tel httpmiddleware.Telemetry,
	pool *pgxpool.Pool,
	cfg *Config,
) (http.Handler, *health.Health, error) {
	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderStore := postgres.NewOrderStore(pool)
	userRepo := postgres.NewUserRepository(pool)
	mediaRepo := postgres.NewMediaRepository(pool)

	storage, localDir, err := newStorage(ctx, lg, cfg)
	if err != nil {
		return nil, nil, err
	}

	// Domain services.
	catalog := product.NewCatalog(productRepo, categoryRepo)
	carts := cart.NewService(cartRepo, productRepo, coupon.NewRepoValidator(couponRepo))
	orders, err := order.NewService(orderStore, tel.TracerProvider(), tel.MeterProvider())
	if err != nil {
		return nil, nil, errors.Wrap(err, "create order service")
	}
	limiter := user.NewLoginLimiter(cfg.Auth.MaxFailures, cfg.Auth.Lockout)
	limiter.StartCleanup(ctx, cfg.Auth.Lockout)
	users := user.NewService(
		userRepo,
		user.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		user.NewTokens(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL),
		limiter,
	)
	adminSvc := admin.NewService(
		postgres.NewReportRepository(pool),
		postgres.NewSettingsRepository(pool),
		logtail.New(cfg.Log.Path()),
	)

	created, err := users.EnsureAdmin(ctx, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ensure admin")
	}
	if created {
		lg.Warn("Created admin account, password change required on first login",
			zap.String("username", user.ReservedUsername))
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	if localDir != "" {
		healthSvc.AddReadinessCheck("uploads", time.Second, health.WritableDirCheck(localDir))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// HTTP handlers.
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, nil, errors.Wrap(err, "trusted proxies")
	}
	engine.Use(cors.New(corsConfig(cfg.CORS)))
	engine.MaxMultipartMemory = media.MaxSize * 2

	hcfg := handler.Config{
		ImageBaseURL: cfg.ImageBaseURL,
		Status:       healthSvc.StatusHandler(),
		Live:         healthSvc.LiveHandler(),
		Ready:        healthSvc.ReadyHandler(),
	}
	if localDir != "" {
		hcfg.UploadDir, hcfg.UploadPath = localDir, cfg.Upload.Path
	}
	handler.New(hcfg, handler.Services{
		Catalog: catalog,
		Carts:   carts,
		Orders:  orders,
		Users:   users,
		Coupons: coupon.NewManager(couponRepo),
		Media:   media.NewService(mediaRepo, storage),
		Admin:   adminSvc,
	}).Register(engine)

	return httpmiddleware.Wrap(engine,
		httpmiddleware.Recovery(),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument("shop-api", tel),
		httpmiddleware.LogRequests(),
	), healthSvc, nil
}

// newStorage picks the S3 backend when bucket credentials are configured and
// local disk otherwise. localDir is set only for the disk backend.
func newStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (_ media.Storage, localDir string, _ error) {
	if s3cfg := cfg.Blob.S3(); s3cfg.Enabled() {
		s, err := blob.NewS3(ctx, s3cfg)
		if err != nil {
			return nil, "", errors.Wrap(err, "create s3 storage")
		}
		lg.Info("Media storage", zap.String("backend", "s3"), zap.String("bucket", s3cfg.Bucket))
		return s, "", nil
	}
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, "", errors.Wrap(err, "create upload dir")
	}
	local := blob.NewLocal(cfg.Upload.Dir, cfg.Upload.Path)
	lg.Info("Media storage", zap.String("backend", "local"), zap.String("dir", local.Dir()))
	return local, local.Dir(), nil
}

func corsConfig(c CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "Retry-After"},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(c.Origins) == 0 || slices.Contains(c.Origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.Origins
	}
	return cc
}
