package main

import (
	"context"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
	"mirrornet/internal/core/services"
	httphandlers "mirrornet/internal/handlers/http"
	"mirrornet/internal/infrastructure/capture"
	"mirrornet/internal/infrastructure/middleware"
	"mirrornet/internal/infrastructure/monitoring"
	"mirrornet/internal/infrastructure/streaming"
	"mirrornet/internal/infrastructure/transport"
	"mirrornet/pkg/config"
	"mirrornet/pkg/logger"
	"mirrornet/pkg/retry"
	"mirrornet/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const version = "0.1.0"

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/mirrornet/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing
	if cfg.Tracing.Enabled {
		tracingCfg := tracing.DefaultConfig()
		tracingCfg.Enabled = true
		if cfg.Tracing.Endpoint != "" {
			tracingCfg.JaegerURL = cfg.Tracing.Endpoint
		}
		tp, err := tracing.Init(tracingCfg)
		if err != nil {
			log.Fatalw("failed to initialize tracing", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Errorw("error shutting down tracer", "error", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	var metrics ports.Metrics = ports.NopMetrics{}
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector(registry)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transport: mDNS discovery, websocket signaling, pion data channels.
	tr := transport.NewWebRTCTransport(transport.Config{
		InstanceName: cfg.Device.ID,
		Domain:       cfg.Discovery.Domain,
		Port:         cfg.Discovery.Port,
		Signaling: transport.SignalingConfig{
			Address:           cfg.Signaling.Address,
			MessagesPerSecond: cfg.Signaling.MessagesPerSecond,
			Burst:             cfg.Signaling.Burst,
			HandshakeTimeout:  cfg.Signaling.HandshakeTimeout,
		},
	}, log)

	session := services.NewSessionService(services.SessionConfig{
		ServiceID:     cfg.Discovery.ServiceID,
		MaxRetries:    cfg.Session.MaxRetries,
		InviteTimeout: cfg.Session.InviteTimeout,
		Reinit: retry.Config{
			Enabled:      true,
			MaxAttempts:  cfg.Session.ReinitMaxAttempts,
			InitialDelay: cfg.Session.ReinitDelay,
			MaxDelay:     cfg.Session.ReinitMaxDelay,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}, tr, metrics, log)

	quality := services.NewQualityService(tierTable(cfg))
	initialTier := domain.QualityTier(cfg.Streaming.InitialTier)

	frames := services.NewFrameService(session, quality, streaming.NewImageEncoder(), initialTier, metrics, log)
	frames.SetStreamEnabled(cfg.Streaming.Enabled)

	device := domain.DeviceInfo{
		ID:            cfg.Device.ID,
		Name:          cfg.Device.Name,
		Model:         runtime.GOOS,
		SystemVersion: version,
	}
	control := services.NewControlService(session, frames, quality, nil, device, cfg.Discovery.AnnounceInterval, metrics, log)
	session.SetDataHandler(control.HandleData)
	session.SetChangeListener(control.HandleSessionChange)

	if err := session.Start(ctx); err != nil {
		log.Fatalw("failed to start session", "error", err)
	}
	control.Start(ctx)

	// Capture: the real screen when one is attached, a synthetic pattern
	// otherwise so headless hosts still produce frames.
	params, err := quality.Params(initialTier)
	if err != nil {
		log.Fatalw("unknown initial tier", "tier", initialTier)
	}
	var source ports.CaptureSource = capture.NewScreenSource(0, params.FrameRate, log)
	if err := source.Start(ctx, frames.Offer); err != nil {
		log.Warnw("screen capture unavailable, using pattern source", "error", err)
		source = capture.NewPatternSource(params.Width, params.Height, params.FrameRate)
		if err := source.Start(ctx, frames.Offer); err != nil {
			log.Fatalw("failed to start capture", "error", err)
		}
	}
	defer source.Stop()

	// Health checks
	health := monitoring.NewHealthChecker()
	health.AddCheck("session", func(ctx context.Context) (bool, error) {
		snap := session.Snapshot()
		if snap.State == domain.StateFailed {
			return false, domain.ErrTransportClosed
		}
		return true, nil
	}, 2*time.Second)
	health.AddCheck("transport", func(ctx context.Context) (bool, error) {
		if tr.Closed() {
			return false, domain.ErrTransportClosed
		}
		return true, nil
	}, 2*time.Second)

	// HTTP API
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg.API.RequestsPerSecond, cfg.API.Burst))

	statusHandler := httphandlers.NewStatusHandler(session, control, health, registry)
	statusHandler.SetupRoutes(router)

	srv := &http.Server{
		Addr:         cfg.API.Address,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("starting mirrord API on %s", cfg.API.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}

	source.Stop()
	session.Disconnect()
	if err := tr.Close(); err != nil {
		log.Errorw("error closing transport", "error", err)
	}

	log.Info("mirrord stopped")
}

// tierTable converts the YAML tier definitions into the domain policy table.
func tierTable(cfg *config.Config) map[domain.QualityTier]domain.TierParams {
	if len(cfg.Quality.Tiers) == 0 {
		return nil
	}
	tiers := make(map[domain.QualityTier]domain.TierParams, len(cfg.Quality.Tiers))
	for name, tc := range cfg.Quality.Tiers {
		mode := domain.EncodingLossy
		if tc.Encoding == "lossless" {
			mode = domain.EncodingLossless
		}
		reliability := domain.Unreliable
		if tc.Reliable {
			reliability = domain.Reliable
		}
		tiers[domain.QualityTier(name)] = domain.TierParams{
			Width:           int(tc.Width),
			Height:          int(tc.Height),
			FrameRate:       tc.FrameRate,
			Encoding:        domain.Encoding{Mode: mode, Quality: tc.EncodingQuality},
			MaxPayloadBytes: tc.MaxPayloadBytes,
			Reliability:     reliability,
		}
	}
	return tiers
}
