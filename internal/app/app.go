package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/domain/wishlist"
	"github.com/xenking/local-market/internal/handler"
	"github.com/xenking/local-market/pkg/health"
	"github.com/xenking/local-market/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	st, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.AdminAPIKey != "" {
		if err := bootstrapAdmin(ctx, st, []byte(cfg.APIKeyPepper), cfg.AdminAPIKey); err != nil {
			return errors.Wrap(err, "bootstrap admin")
		}
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck(cfg.Storage, 5*time.Second, health.PingCheck(st))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	gin.SetMode(gin.ReleaseMode)
	h, err := newHandler(cfg, st, m)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("market-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// newHandler builds the domain services over st and the HTTP handler on top.
func newHandler(cfg *Config, st *storage, m *app.Telemetry) (*handler.Handler, error) {
	prices := pricing.NewResolver(st.discounts)
	orders, err := order.NewService(st.products, prices, st.orders, st.tx,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	svc := handler.Services{
		Catalog:   catalog.NewService(st.banners, st.categories, st.images, st.products),
		Products:  product.NewService(st.products, st.categories),
		Prices:    prices,
		Discounts: discount.NewService(st.discounts, st.products, st.tx),
		Carts:     cart.NewService(st.carts, st.products, prices, orders, st.tx),
		Orders:    orders,
		Reviews:   review.NewService(st.reviews, st.products, st.tx),
		Wishlists: wishlist.NewService(st.wishlists, st.products),
		Users:     user.NewService(st.users),
	}
	authn := handler.NewAuthenticator(st.apikeys, st.users, []byte(cfg.APIKeyPepper), []byte(cfg.JWTSecret))
	return handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, svc, authn), nil
}
