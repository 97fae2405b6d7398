package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/canteen/internal/client"
	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/handler"
	"github.com/xenking/canteen/internal/ordering"
	"github.com/xenking/canteen/internal/session"
	"github.com/xenking/canteen/pkg/health"
	"github.com/xenking/canteen/pkg/httpmiddleware"
	"github.com/xenking/canteen/pkg/requestid"
)

const serviceName = "canteen-cart"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
	)

	api, err := client.New(cfg.BackendURL,
		client.WithTracerProvider(m.TracerProvider()),
		client.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create backend client")
	}
	lg.Info("Backend client ready", zap.String("backend", api.BaseURL()))

	healthSvc := health.New()
	healthSvc.Register(health.Probe{
		Name:    "backend",
		Kind:    health.Readiness,
		Timeout: 5 * time.Second,
		Check: health.UpstreamCheck("canteen api", func(ctx context.Context) error {
			_, err := api.ListDishes(ctx, dish.DefaultFilter())
			return err
		}),
	})
	healthSvc.Register(health.Probe{
		Name:  "goroutines",
		Kind:  health.Liveness,
		Check: health.GoroutineCountCheck(10000),
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	sessions := session.NewStore(cfg.Session.TTL)
	sessions.StartCleanup(ctx)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, api, sessions, healthSvc, m),
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

		lg.Info("Shutting down server",
			zap.Duration("timeout", cfg.Graceful.ShutdownTimeout),
			zap.Int("sessions", sessions.Len()),
		)
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

// newHandler mounts the API and health routes behind the middleware chain.
func newHandler(
	ctx context.Context,
	cfg *Config,
	api *client.Client,
	sessions *session.Store,
	healthSvc *health.Health,
	tel httpmiddleware.Telemetry,
) http.Handler {
	h := handler.NewHandler(handler.Config{
		CookieName:   cfg.Session.CookieName,
		CookieTTL:    cfg.Session.TTL,
		SecureCookie: cfg.Session.SecureCookie,
	}, api, ordering.NewService(api), sessions)

	router := h.Routes()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	// Rejected requests still carry a request ID and a request-scoped logger.
	return httpmiddleware.Wrap(router,
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", requestid.Header},
			ExposeHeaders:    []string{requestid.Header},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: sessionKey(cfg.Session.CookieName, sessions),
		}),
		httpmiddleware.Instrument(serviceName, tel),
		httpmiddleware.LogRequests(),
	)
}

// sessionKey rate limits by session cookie when it names a live session and
// by client IP otherwise, so rotating cookie values does not reset the budget.
func sessionKey(cookie string, sessions *session.Store) func(*http.Request) string {
	return func(r *http.Request) string {
		if c, err := r.Cookie(cookie); err == nil && c.Value != "" && sessions.Has(c.Value) {
			return "session:" + c.Value
		}
		return "ip:" + httpmiddleware.ClientIP(r)
	}
}
