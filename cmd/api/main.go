package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medilink/pharmacare-api/internal/config"
	authHandler "github.com/medilink/pharmacare-api/internal/handler/auth"
	claimHandler "github.com/medilink/pharmacare-api/internal/handler/claim"
	discoveryHandler "github.com/medilink/pharmacare-api/internal/handler/discovery"
	healthHandler "github.com/medilink/pharmacare-api/internal/handler/health"
	orderHandler "github.com/medilink/pharmacare-api/internal/handler/order"
	prescriptionHandler "github.com/medilink/pharmacare-api/internal/handler/prescription"
	"github.com/medilink/pharmacare-api/internal/middleware"
	"github.com/medilink/pharmacare-api/internal/repository/postgres"
	"github.com/medilink/pharmacare-api/internal/router"
	authService "github.com/medilink/pharmacare-api/internal/service/auth"
	claimService "github.com/medilink/pharmacare-api/internal/service/claim"
	discoveryService "github.com/medilink/pharmacare-api/internal/service/discovery"
	orderService "github.com/medilink/pharmacare-api/internal/service/order"
	prescriptionService "github.com/medilink/pharmacare-api/internal/service/prescription"
	"github.com/medilink/pharmacare-api/pkg/auth"
	"github.com/medilink/pharmacare-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg.Logger)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	medicineRepo := postgres.NewMedicineRepository(db)
	pharmacyRepo := postgres.NewPharmacyRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	claimRepo := postgres.NewClaimRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	hasher := security.NewBcryptHasher(0)

	authSvc := authService.NewService(userRepo, hasher, jwtSvc)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, medicineRepo, profileRepo)
	orderSvc := orderService.NewService(orderRepo, prescriptionRepo, pharmacyRepo, profileRepo)
	discoverySvc := discoveryService.NewService(pharmacyRepo, medicineRepo, prescriptionRepo, profileRepo)
	claimSvc := claimService.NewService(claimRepo, profileRepo, pharmacyRepo)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	authH := authHandler.NewHandler(authSvc)
	healthH := healthHandler.NewHandler(db)
	discoveryH := discoveryHandler.NewHandler(discoverySvc, authMiddleware)
	prescriptionH := prescriptionHandler.NewHandler(prescriptionSvc, authMiddleware)
	orderH := orderHandler.NewHandler(orderSvc, authMiddleware)
	claimH := claimHandler.NewHandler(claimSvc, authMiddleware)

	r := router.NewRouter(authMiddleware, authH, healthH, discoveryH,
		[]router.Handler{prescriptionH, orderH, claimH},
		router.Config{
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			MetricsPrefix:  "pharmacare_api",
		})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func setupLogger(cfg config.LoggerConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
