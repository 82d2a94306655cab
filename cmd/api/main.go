package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicbr/backoffice-api/internal/config"
	"github.com/clinicbr/backoffice-api/internal/email"
	appointmentHandler "github.com/clinicbr/backoffice-api/internal/handler/appointment"
	authHandler "github.com/clinicbr/backoffice-api/internal/handler/auth"
	documentHandler "github.com/clinicbr/backoffice-api/internal/handler/document"
	invoiceHandler "github.com/clinicbr/backoffice-api/internal/handler/invoice"
	patientHandler "github.com/clinicbr/backoffice-api/internal/handler/patient"
	profileHandler "github.com/clinicbr/backoffice-api/internal/handler/profile"
	"github.com/clinicbr/backoffice-api/internal/middleware"
	"github.com/clinicbr/backoffice-api/internal/repository/postgres"
	"github.com/clinicbr/backoffice-api/internal/repository/redis"
	"github.com/clinicbr/backoffice-api/internal/router"
	appointmentService "github.com/clinicbr/backoffice-api/internal/service/appointment"
	authService "github.com/clinicbr/backoffice-api/internal/service/auth"
	documentService "github.com/clinicbr/backoffice-api/internal/service/document"
	invoiceService "github.com/clinicbr/backoffice-api/internal/service/invoice"
	patientService "github.com/clinicbr/backoffice-api/internal/service/patient"
	profileService "github.com/clinicbr/backoffice-api/internal/service/profile"
	"github.com/clinicbr/backoffice-api/pkg/auth"
	"github.com/clinicbr/backoffice-api/pkg/logger"
	"github.com/clinicbr/backoffice-api/pkg/security"
	"github.com/clinicbr/backoffice-api/pkg/validator"
)

func main() {
	validator.RegisterBindings()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.LogLevel)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	resetTokens, err := redis.NewTokenStore(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer resetTokens.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TokenExpiry())
	emailSvc := email.NewSMTPService(cfg.SMTP)
	hasher := security.NewBcryptHasher(0)

	authSvc := authService.NewService(userRepo, profileRepo, jwtSvc, resetTokens, emailSvc, hasher)
	profileSvc := profileService.NewService(profileRepo, userRepo)
	patientSvc := patientService.NewService(patientRepo)
	documentSvc := documentService.NewService(documentRepo, patientRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, profileRepo, jwtSvc)
	invoiceSvc := invoiceService.NewService(invoiceRepo, appointmentRepo, profileRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		profileHandler.NewHandler(profileSvc),
		patientHandler.NewHandler(patientSvc),
		documentHandler.NewHandler(documentSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		invoiceHandler.NewHandler(invoiceSvc),
		router.RouterConfig{
			RateLimit:  cfg.RateLimit.RequestsPerSecond,
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
