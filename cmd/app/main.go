// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepay/internal/config"
	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/adapter"
	pg "coursepay/internal/infra/db/postgres"
	"coursepay/internal/infra/logging"
	"coursepay/internal/infra/metrics"
	"coursepay/internal/infra/notify"
	"coursepay/internal/infra/psp"
	red "coursepay/internal/infra/redis"
	"coursepay/internal/infra/signer"
	"coursepay/internal/infra/web"
	"coursepay/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional, checkout rate limiting only) ----
	var limiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Catalog ----
	catalog := buildCatalog(cfg)

	// ---- Signer ----
	sg := signer.New(cfg.Security.TokenSecret)

	// ---- PSP gateway (absence is a supported mode -> dummy-pay) ----
	gateway, err := psp.New(cfg.PSP, logger)
	if err != nil {
		if !errors.Is(err, domain.ErrPSPNotConfigured) {
			logger.Fatal().Err(err).Msg("psp gateway")
		}
		logger.Warn().Msg("psp credentials absent, checkout will run in dummy-pay mode")
	} else {
		logger.Info().Str("gateway", gateway.Name()).Msg("psp gateway configured")
	}

	// ---- Notifiers ----
	var senders notify.Multi
	if cfg.Notify.EmailEndpoint != "" {
		senders = append(senders, notify.NewEmailSender(cfg.Notify.EmailEndpoint, cfg.Notify.APIKey, logger))
	}
	if cfg.Notify.WhatsAppEndpoint != "" {
		senders = append(senders, notify.NewWhatsAppSender(cfg.Notify.WhatsAppEndpoint, cfg.Notify.APIKey, logger))
	}
	var notifier adapter.Notifier
	if len(senders) > 0 {
		notifier = senders
	}

	// ---- Repositories ----
	enrollRepo := pg.NewEnrollmentRepo(pool)
	webhookRepo := pg.NewWebhookRepo(pool)

	// ---- Use cases ----
	checkoutUC := usecase.NewCheckoutUseCase(catalog, gateway, sg, enrollRepo, notifier, cfg.Server.PublicBaseURL, logger)
	confirmUC := usecase.NewConfirmUseCase(catalog, gateway, sg, enrollRepo, notifier, logger)
	webhookUC := usecase.NewWebhookUseCase(webhookRepo, logger)
	resourceUC := usecase.NewResourceUseCase(catalog, sg, logger)

	// ---- HTTP server ----
	var auth *web.AuthManager
	if cfg.Security.AdminJWTSecret != "" {
		auth = web.NewAuthManager(cfg.Security.AdminJWTSecret, !cfg.Runtime.Dev, 30*time.Minute)
	}
	srv := web.NewServer(cfg, checkoutUC, confirmUC, webhookUC, resourceUC, webhookRepo, auth, limiter, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

// buildCatalog applies config overrides on top of the built-in product set.
func buildCatalog(cfg *config.Config) model.Catalog {
	catalog := model.DefaultCatalog()
	for sku, pc := range cfg.Products {
		product, ok := catalog.BySKU(model.ProductSKU(sku))
		if !ok {
			continue
		}
		if pc.PriceMinor > 0 {
			product.PriceMinor = pc.PriceMinor
		}
		if pc.Currency != "" {
			product.Currency = pc.Currency
		}
		if pc.TokenTTL > 0 {
			product.TokenTTL = pc.TokenTTL.Std()
		}
		if pc.MeetingURL != "" {
			product.MeetingURL = pc.MeetingURL
		}
		if pc.UpsellURL != "" {
			product.UpsellURL = pc.UpsellURL
		}
		for i, res := range product.Resources {
			if u, ok := pc.ResourceURLs[res.Title]; ok {
				product.Resources[i].URL = u
			}
		}
	}
	return catalog
}
