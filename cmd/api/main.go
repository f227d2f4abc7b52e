package main

import (
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"

	"vitrina/internal/auth"
	"vitrina/internal/cache"
	"vitrina/internal/config"
	"vitrina/internal/db"
	"vitrina/internal/domain/billing"
	"vitrina/internal/domain/catalog"
	"vitrina/internal/domain/users"
	"vitrina/internal/mailer"
	"vitrina/internal/payments"
	"vitrina/internal/ratelimiter"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/speps/go-hashids/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	level := zapcore.InfoLevel
	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Vitrina API
//	@description	API for Vitrina, a multi-tenant product catalog publishing platform.

//	@contact.name	API Support
//	@contact.email	support@vitrina.app

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.Database.Addr, cfg.Database.MaxConns, cfg.Database.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	// Migrations run over database/sql because goose drives that API.
	sqlDB, err := sql.Open("postgres", cfg.Database.Addr)
	if err != nil {
		logger.Fatal(err)
	}
	if err := db.RunMigrations(sqlDB, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Fatal(err)
	}
	sqlDB.Close()

	// Cloudinary
	cld, err := cloudinary.NewFromURL(cfg.Cloudinary.URL)
	if err != nil {
		logger.Fatal(err)
	}

	// Mailer
	smtpMailer := mailer.NewSMTP(
		cfg.Mail.Host,
		cfg.Mail.Port,
		cfg.Mail.Username,
		cfg.Mail.Password,
		cfg.Mail.FromEmail,
	)

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimit.RequestsPerTimeFrame,
		cfg.RateLimit.TimeFrame,
	)

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.Secret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.Audience,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
		cfg.Auth.RememberMeTTL,
	)

	// Stores and services
	userStore := users.NewRepository(pool)
	billingStore := billing.NewRepository(pool)
	catalogStore := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogStore, billingStore, logger)

	// Storefront cache, optional
	var storeCache *cache.StorefrontCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal(err)
		}
		storeCache = cache.NewStorefrontCache(rdb, logger)
		logger.Info("storefront cache enabled")
	}

	// Billing provider
	paymentManager := payments.NewManager()
	paymentManager.RegisterGateway(cfg.Billing.Provider, payments.NewHostedAdapter(
		cfg.Billing.SecretKey,
		cfg.Billing.ReturnURL,
		cfg.Billing.CancelURL,
		cfg.Billing.BaseURL,
	))

	// Opaque references for checkout sessions
	hd := hashids.NewData()
	hd.Salt = cfg.Billing.HashSalt
	hd.MinLength = 10
	refHasher, err := hashids.NewWithData(hd)
	if err != nil {
		logger.Fatal(err)
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		users:         userStore,
		billing:       billingStore,
		catalog:       catalogService,
		cld:           cld,
		mailer:        smtpMailer,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		payments:      paymentManager,
		storeCache:    storeCache,
		refHasher:     refHasher,
	}

	// Metrics collected at /v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
