package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "github.com/campusgate/admissions-api/docs" // Swagger docs (generated)
	"github.com/campusgate/admissions-api/internal/account"
	"github.com/campusgate/admissions-api/internal/auth"
	"github.com/campusgate/admissions-api/internal/config"
	"github.com/campusgate/admissions-api/internal/database"
	"github.com/campusgate/admissions-api/internal/email"
	httpServer "github.com/campusgate/admissions-api/internal/http"
	"github.com/campusgate/admissions-api/internal/logging"
	"github.com/campusgate/admissions-api/internal/ratelimit"
	"github.com/campusgate/admissions-api/internal/referral"
	"github.com/campusgate/admissions-api/internal/signup"
)

// @title           CampusGate Admissions API
// @version         1.0
// @description     Study-abroad admissions platform backend: OTP-verified signup, login, and referral-portal onboarding.

// @contact.name   API Support
// @contact.email  support@campusgate.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	accountRepo := account.NewRepository(db)
	referralRepo := referral.NewRepository(db)
	refreshRepo := auth.NewRedisRepository(redisClient)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
		int(cfg.Signup.OTPTTL.Minutes()),
	)

	// Initialize signup session store
	var sessionStore signup.Store
	var memoryStore *signup.MemoryStore
	if cfg.Signup.StoreBackend == "redis" {
		sessionStore = signup.NewRedisStore(redisClient)
	} else {
		memoryStore = signup.NewMemoryStore(cfg.Signup.SweepInterval)
		sessionStore = memoryStore
	}

	// Initialize referral attachment hook
	referralAttacher := referral.NewAttacher(referralRepo, logger)

	// Initialize signup orchestrator
	signupService := signup.NewService(
		sessionStore,
		accountRepo,
		emailService,
		pasetoService,
		referralAttacher.Attach,
		logger,
		cfg.Signup.OTPLength,
		cfg.Signup.OTPTTL,
		cfg.Signup.MaxOTPAttempts,
		cfg.Auth.AccessTokenDuration,
	)

	// Initialize auth service
	authService := auth.NewService(
		accountRepo,
		refreshRepo,
		pasetoService,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)

	// Initialize HTTP handlers
	isProduction := !cfg.Server.IsDevelopment()
	studentSignupHandler := signup.NewHandler(
		signupService,
		rateLimiter,
		logger,
		account.RoleStudent,
		isProduction,
		cfg.Auth.AccessTokenDuration,
	)
	partnerSignupHandler := signup.NewHandler(
		signupService,
		rateLimiter,
		logger,
		account.RolePartner,
		isProduction,
		cfg.Auth.AccessTokenDuration,
	)
	authHandler := auth.NewHandler(
		authService,
		accountRepo,
		rateLimiter,
		logger,
		isProduction,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	authMiddleware := auth.NewMiddleware(pasetoService)

	// Initialize router
	router := httpServer.NewRouter(cfg, studentSignupHandler, partnerSignupHandler, authHandler, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if memoryStore != nil {
			memoryStore.Stop()
		}

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
