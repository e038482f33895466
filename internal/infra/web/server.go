package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"coursepay/internal/config"
	"coursepay/internal/domain/ports/repository"
	red "coursepay/internal/infra/redis"
	"coursepay/internal/usecase"
)

const (
	checkoutRateLimit  = 10
	checkoutRateWindow = time.Minute
)

type Server struct {
	cfg        *config.Config
	checkoutUC usecase.CheckoutUseCase
	confirmUC  usecase.ConfirmUseCase
	webhookUC  usecase.WebhookUseCase
	resourceUC usecase.ResourceUseCase
	webhooks   repository.WebhookLogRepository // reconciliation reads only
	auth       *AuthManager
	limiter    *red.RateLimiter // nil when redis is not configured
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	cfg *config.Config,
	checkoutUC usecase.CheckoutUseCase,
	confirmUC usecase.ConfirmUseCase,
	webhookUC usecase.WebhookUseCase,
	resourceUC usecase.ResourceUseCase,
	webhooks repository.WebhookLogRepository,
	auth *AuthManager,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		cfg:        cfg,
		checkoutUC: checkoutUC,
		confirmUC:  confirmUC,
		webhookUC:  webhookUC,
		resourceUC: resourceUC,
		webhooks:   webhooks,
		auth:       auth,
		limiter:    limiter,
		log:        logger,
	}
}

// Router wires all routes. Split from Start so tests can drive the handler
// tree directly.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/checkout/{product}", s.handleCheckout)
		r.Get("/payment/confirm", s.handleConfirm)
		r.Get("/resources", s.handleResources)
		r.Post("/preview/complete", s.handleCompletePreview)

		r.Post("/admin/auth/login", s.handleAdminLogin)
		r.Post("/admin/auth/logout", s.handleAdminLogout)
		r.With(s.adminMiddleware).Get("/admin/webhooks", s.handleAdminWebhooks)
	})

	// PSP-facing endpoints live outside the API prefix.
	r.HandleFunc("/payment/redirect", s.handleRedirectRelay)
	r.Post("/webhook/psp", s.handleWebhook)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// rateLimitMiddleware buckets checkout attempts per client IP. Limiter
// errors fail open: a redis outage must not take checkout down with it.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		allowed, err := s.limiter.Allow(r.Context(), red.CheckoutKey(host), checkoutRateLimit, checkoutRateWindow)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminMiddleware requires a valid admin session for reconciliation routes.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
