package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casevault/backend/internal/audit"
	auditrepo "casevault/backend/internal/audit/repository"
	"casevault/backend/internal/auth"
	clientrepo "casevault/backend/internal/client/repository"
	"casevault/backend/internal/config"
	"casevault/backend/internal/db"
	"casevault/backend/internal/gateway"
	identityrepo "casevault/backend/internal/identity/repository"
	"casevault/backend/internal/policy/engine"
	"casevault/backend/internal/ratelimit"
	"casevault/backend/internal/security"
	"casevault/backend/internal/server"
	"casevault/backend/internal/session"
	sessionrepo "casevault/backend/internal/session/repository"
	"casevault/backend/internal/telemetry"
	otelsetup "casevault/backend/internal/telemetry/otel"
	"casevault/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "casevault-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	// Access tokens default to the absolute session cap; the session monitor,
	// not token expiry, governs effective lifetime.
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	identities := identityrepo.NewPostgresRepository(conn)
	clients := clientrepo.NewPostgresRepository(conn)
	auditLog := auditrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)

	kafkaProducer := producer.NewKafkaProducer(cfg.SecurityEventKafkaBrokersList(), cfg.SecurityEventKafkaTopic)
	var notifier auth.Notifier
	if kafkaProducer != nil {
		notifier = telemetry.NewSessionNotifier(kafkaProducer)
		defer kafkaProducer.Close()
	}

	registry := session.NewRegistry()
	events := audit.NewLogger(auditLog, server.Origin)
	authSvc := auth.NewService(identities, sessions, registry, hasher, tokens, events, notifier, session.Config{
		IdleTimeout:     cfg.IdleTimeout(),
		AbsoluteTimeout: cfg.AbsoluteTimeout(),
		WarningTime:     cfg.WarningTime(),
		HeartbeatPeriod: cfg.HeartbeatPeriod(),
	})

	policy, err := engine.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	gw := gateway.New(identities, clients, auditLog, policy, registry)

	srv := server.New(authSvc, gw, tokens, registry, ratelimit.New(), server.Options{
		Addr:                 cfg.HTTPAddr,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitWindow:      cfg.RateWindow(),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
