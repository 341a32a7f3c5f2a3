package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	auditrepo "tenantadmin/internal/audit/repository"
	authservice "tenantadmin/internal/auth/service"
	"tenantadmin/internal/config"
	"tenantadmin/internal/db"
	membershiprepo "tenantadmin/internal/membership/repository"
	orgrepo "tenantadmin/internal/organization/repository"
	orgservice "tenantadmin/internal/organization/service"
	"tenantadmin/internal/security"
	"tenantadmin/internal/server"
	sessionrepo "tenantadmin/internal/session/repository"
	storepg "tenantadmin/internal/store/postgres"
	"tenantadmin/internal/telemetry/otel"
	userrepo "tenantadmin/internal/user/repository"
	userservice "tenantadmin/internal/user/service"
)

const serviceName = "tenantadmin"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL must be set")
	}
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		logger.Fatal("parse JWT private key", zap.Error(err))
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("parse JWT public key", zap.Error(err))
	}
	tokens := security.NewTokenProvider(privateKey, publicKey,
		cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(sqlDB)
	orgs := orgrepo.NewPostgresRepository(sqlDB)
	memberships := membershiprepo.NewPostgresRepository(sqlDB)
	sessions := sessionrepo.NewPostgresRepository(sqlDB)
	audits := auditrepo.NewPostgresRepository(sqlDB)

	authSvc := authservice.NewAuthService(users, orgs, memberships, sessions,
		storepg.NewAuthTxRunner(sqlDB), hasher, tokens, cfg.RefreshTTL())
	userSvc := userservice.NewUserService(users, memberships,
		storepg.NewUserTxRunner(sqlDB), hasher)
	orgSvc := orgservice.NewOrgService(orgs)

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	router := server.NewRouter(server.Deps{
		Auth:      authSvc,
		Users:     userSvc,
		Orgs:      orgSvc,
		Tokens:    tokens,
		AuditRepo: audits,
		DB:        sqlDB,
		Log:       logger,
		Tracer:    providers.TracerProvider.Tracer(serviceName),
		Meter:     providers.MeterProvider.Meter(serviceName),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}
