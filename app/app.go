package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/app/controller"
	"officefruits/app/router"
	"officefruits/catalog"
	"officefruits/config"
	"officefruits/db"
	"officefruits/pricing"
	"officefruits/repository"
	"officefruits/service"
)

// App holds the wired HTTP handler and the resources it owns
type App struct {
	Handler http.Handler

	memorySessions *repository.MemorySessionStore
	closers        []func() error
	logger         *zap.Logger
}

// LoadCatalog returns the catalog configured at cfg.Catalog.Path or the built-in one
func LoadCatalog(cfg *config.Config) (*catalog.Provider, error) {
	if cfg.Catalog.Path != "" {
		return catalog.Load(cfg.Catalog.Path)
	}
	return catalog.Default()
}

// OpenOrderRepository opens the configured order store. The returned closer is never nil.
func OpenOrderRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.OrderRepositoryInterface, func() error, error) {
	if cfg.Storage.Driver != "postgres" {
		logger.Warn("OpenOrderRepository: using in-memory order storage, orders are lost on restart")
		return repository.NewMemoryOrderRepository(), func() error { return nil }, nil
	}

	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Connect(ctx, dsn, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return repository.NewOrderRepository(conn, logger), conn.Close, nil
}

// Initialize wires every component from cfg
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	products, err := LoadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("Initialize: catalog loaded", zap.Int("items", len(products.Items())), zap.Int("presets", len(products.Presets())))

	orders, closeOrders, err := OpenOrderRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeOrders)

	outbox, err := repository.NewOutboxRepository(cfg.Outbox.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox: %w", err)
	}
	a.closers = append(a.closers, outbox.Close)

	var sessions repository.SessionStore
	switch cfg.Session.Driver {
	case "redis":
		rdb, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		sessions = repository.NewRedisSessionStore(rdb, cfg.Session.TTL)
	default:
		a.memorySessions = repository.NewMemorySessionStore(cfg.Session.TTL)
		sessions = a.memorySessions
	}

	var verifier service.PaymentVerifier
	if cfg.Payment.SecretKey != "" {
		verifier = service.NewPaystackClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.VerifyTimeout, logger)
	} else {
		logger.Warn("Initialize: PAYSTACK_SECRET_KEY not set, payment references will not be verified")
	}

	var recommender service.Recommender
	if cfg.GenAI.APIKey != "" {
		recommender, err = service.NewGenAIRecommender(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, products.Names())
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("Initialize: GEMINI_API_KEY not set, the Fruit Guru is disabled")
		recommender = service.NewUnavailableRecommender()
	}

	var receiptStore repository.ReceiptStore
	if cfg.ReceiptArchiveEnabled() {
		receiptStore, err = repository.NewS3ReceiptStore(ctx, repository.S3ReceiptConfig{
			Endpoint:      cfg.Receipts.Endpoint,
			AccessKey:     cfg.Receipts.AccessKey,
			SecretKey:     cfg.Receipts.SecretKey,
			Bucket:        cfg.Receipts.Bucket,
			PublicBaseURL: cfg.Receipts.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
	}

	engine := pricing.NewEngine(products)
	checkoutService := service.NewCheckoutService(engine, orders, outbox, verifier, service.CheckoutConfig{
		Currency:       cfg.Payment.Currency,
		MinorUnits:     cfg.Payment.MinorUnits,
		PublicKey:      cfg.Payment.PublicKey,
		PersistTimeout: cfg.Storage.Timeout,
		VerifyTimeout:  cfg.Payment.VerifyTimeout,
		Location:       cfg.Location(),
	}, logger)
	recommendationService := service.NewRecommendationService(recommender, products, cfg.Recommendation.Timeout, cfg.Recommendation.DefaultMood, logger)
	receiptService, err := service.NewReceiptService(products, receiptStore, cfg.Receipts.ChromePath, cfg.Receipts.Timeout, logger)
	if err != nil {
		return nil, err
	}

	now := func() time.Time { return time.Now().In(cfg.Location()) }
	controllers := &router.Controllers{
		Catalog:        controller.NewCatalogController(products),
		Box:            controller.NewBoxController(sessions, checkoutService, products, logger),
		Recommendation: controller.NewRecommendationController(sessions, checkoutService, recommendationService, cfg.Recommendation.StaleAfter, now, logger),
		Checkout:       controller.NewCheckoutController(sessions, checkoutService, cfg.Handoff.Address, cfg.Handoff.Subject, logger),
		Session:        controller.NewSessionController(sessions, checkoutService, receiptService, now, logger),
	}

	a.Handler = router.SetupRoutes(controllers, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Session:        controller.SessionMiddleware(sessions, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.CookieSecure, now, logger),
		Middleware:     []gin.HandlerFunc{router.RequestLogger(logger)},
	})

	ok = true
	return a, nil
}

// RunSessionJanitor purges expired in-memory sessions until ctx is done.
// Redis expires sessions itself, so it returns immediately for that driver.
func (a *App) RunSessionJanitor(ctx context.Context, interval time.Duration) error {
	if a.memorySessions == nil {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := a.memorySessions.PurgeExpired(); n > 0 {
				a.logger.Debug("RunSessionJanitor: purged expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Close releases every resource in reverse order of acquisition
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
