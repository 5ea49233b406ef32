// Package app wires the storefront service together: seeded in-memory
// stores, the fulfillment engine, the HTTP API, health probes, and the
// optional delivery simulator.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contoso/storefront/internal/directline"
	"github.com/contoso/storefront/internal/fulfillment"
	"github.com/contoso/storefront/internal/handler"
	"github.com/contoso/storefront/internal/storage/memory"
	"github.com/contoso/storefront/pkg/health"
	"github.com/contoso/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the delivery
// simulator, and handles graceful shutdown. It is the single wiring point
// for the application.
func Run(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Seeded in-memory stores. State is process-lifetime only.
	products, err := memory.SeedProducts()
	if err != nil {
		return errors.Wrap(err, "seed products")
	}
	catalogStore := memory.NewCatalogStore(products)
	orderLedger := memory.NewOrderLedger(memory.SeedOrders(time.Now()))
	discountRegistry := memory.NewDiscountRegistry()

	// Fulfillment engine and read facade.
	metrics, err := fulfillment.NewMetrics(m.MeterProvider().Meter("storefront"))
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}
	engine := fulfillment.NewService(catalogStore, orderLedger, discountRegistry,
		fulfillment.WithLogger(lg.Named("fulfillment")),
		fulfillment.WithMetrics(metrics),
	)
	queries := fulfillment.NewQueries(catalogStore, orderLedger, discountRegistry)

	// Chat upstream is optional.
	var bot *directline.Client
	if cfg.DirectLine.Secret != "" || cfg.DirectLine.TokenEndpoint != "" {
		bot = directline.New(directline.Config{
			BaseURL:       cfg.DirectLine.BaseURL,
			Secret:        cfg.DirectLine.Secret,
			TokenEndpoint: cfg.DirectLine.TokenEndpoint,
		}, &http.Client{Timeout: 15 * time.Second})
	}

	// Health service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Routes.
	h := handler.New(handler.Config{ImageBaseURL: cfg.ImageBaseURL}, engine, queries, bot)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "storefront-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})

	if cfg.Simulator.Enabled {
		g.Go(func() error {
			return runSimulator(ctx, lg.Named("simulator"), engine, cfg.Simulator.Interval)
		})
	}

	return g.Wait()
}

// runSimulator advances every in-pipeline order one delivery stage per tick
// until ctx is cancelled.
func runSimulator(ctx context.Context, lg *zap.Logger, engine *fulfillment.Service, interval time.Duration) error {
	lg.Info("Delivery simulator running", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			count, _, err := engine.AdvanceAll(ctx)
			if err != nil {
				lg.Error("Bulk advance failed", zap.Error(err))
				continue
			}
			if count > 0 {
				lg.Info("Advanced orders", zap.Int("count", count))
			}
		}
	}
}
