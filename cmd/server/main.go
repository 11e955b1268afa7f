package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/ssgreg/logf"
	"google.golang.org/grpc"

	"github.com/yourusername/hostgate/api"
	"github.com/yourusername/hostgate/config"
	"github.com/yourusername/hostgate/logging"
	"github.com/yourusername/hostgate/metrics"
	"github.com/yourusername/hostgate/pkg/hostgate"
	"github.com/yourusername/hostgate/rpc"
	"github.com/yourusername/hostgate/store"
	"github.com/yourusername/hostgate/tracing"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "hostgate:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeLogger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	defer closeLogger()

	tp, shutdownTracing, err := tracing.Setup(tracing.Config{Enabled: cfg.Tracing.Enabled})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("failed to flush spans", logf.Error(err))
		}
	}()

	metricsTracker := metrics.NewMetrics()
	recorders := []hostgate.Recorder{metricsTracker}

	// Choose the decision statistics backend
	if cfg.Redis.Addr != "" {
		redisStore := store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		defer redisStore.Close()

		if err := redisStore.WaitReady(context.Background(), cfg.Redis.WaitFor); err != nil {
			return err
		}
		logger.Info("connected to redis", logf.String("addr", cfg.Redis.Addr))

		recorder := store.NewAsyncRecorder(redisStore, cfg.Recorder.Buffer, logger.With(logf.String("component", "recorder")))
		defer func() {
			recorder.Close()
			if dropped := recorder.Dropped(); dropped > 0 {
				logger.Warn("decision events dropped", logf.Int64("count", dropped))
			}
		}()
		recorders = append(recorders, recorder)
	} else {
		logger.Info("redis not configured, decision statistics are kept in memory only")
	}

	registryOpts := []hostgate.Option{
		hostgate.WithLogger(logger.With(logf.String("component", "registry"))),
		hostgate.WithRecorder(hostgate.Recorders(recorders...)),
	}
	domains, err := cfg.Domains()
	if err != nil {
		return err
	}
	registryOpts = append(registryOpts, hostgate.WithConfig(domains))

	registry, err := hostgate.New(registryOpts...)
	if err != nil {
		return err
	}

	hosts, err := hostgate.NewHostCache(cfg.HostCache.MaxEntries)
	if err != nil {
		return err
	}
	defer hosts.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCollector(metricsTracker, func() int { return registry.Status().BucketCount }),
	)

	handler := api.NewHandler(registry, api.HandlerOpts{
		Hosts:      hosts,
		Configures: metricsTracker,
		Tracer:     tracing.Tracer(tp),
		Logger:     logger,
	})
	router := api.NewRouter(handler, api.RouterOpts{
		Stats:    metricsTracker,
		Buckets:  registry,
		Gatherer: promRegistry,
		Logger:   logger.With(logf.String("component", "http")),
	})
	router.Get("/dashboard", dashboardHandler)
	router.Get("/", rootHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	rpcOpts := []rpc.Option{
		rpc.WithLogger(logger.With(logf.String("component", "grpc"))),
		rpc.WithConfigureRecorder(metricsTracker),
	}
	if cfg.Tracing.Enabled {
		rpcOpts = append(rpcOpts, rpc.WithTracerProvider(tp))
	}
	grpcServer := rpc.NewServer(registry, hosts, rpcOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if cfg.GRPC.Addr != "" {
		if err := serveGRPC(grpcServer, cfg.GRPC.Addr, errCh); err != nil {
			return err
		}
	}

	printBanner(cfg)
	logger.Info("hostgate started",
		logf.String("http_addr", cfg.HTTP.Addr),
		logf.String("grpc_addr", cfg.GRPC.Addr),
		logf.Float64("default_cap", registry.Defaults().Capacity),
		logf.Int64("default_period_ms", registry.Defaults().Period.Milliseconds()),
		logf.Int("seeded_domains", registry.Status().BucketCount),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server failed", logf.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", logf.Error(err))
	}
	grpcServer.GracefulStop()

	return runErr
}

func serveGRPC(s *grpc.Server, addr string, errCh chan<- error) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Println("hostgate per-domain admission gate")
	fmt.Println("Listening on http://localhost" + cfg.HTTP.Addr)
	if cfg.GRPC.Addr != "" {
		fmt.Println("gRPC on " + cfg.GRPC.Addr + " (hostgate.v1.Gate)")
	}
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST /api/domains     - Configure a domain bucket")
	fmt.Println("  GET  /api/check?url=  - May this URL be fetched now?")
	fmt.Println("  GET  /api/status      - Number of tracked buckets")
	fmt.Println("  GET  /api/stats       - Decision statistics (JSON)")
	fmt.Println("  GET  /api/buckets     - Bucket snapshot (JSON)")
	fmt.Println("  GET  /metrics         - Prometheus metrics")
	fmt.Println("  GET  /dashboard       - Dashboard (HTML)")
	fmt.Println("  GET  /health          - Health check")
	fmt.Println()
}

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, `hostgate per-domain admission gate

  POST /api/domains     {"domain":"example.com","cap":2,"periodMs":1000}
  GET  /api/check?url=https://example.com/page
  GET  /api/status
  GET  /dashboard
`)
}
