// cmd/submitter/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
	"github.com/SyedDaiam9101/bmt-submitter/internal/cache"
	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/inference"
	"github.com/SyedDaiam9101/bmt-submitter/internal/modelstore"
	"github.com/SyedDaiam9101/bmt-submitter/internal/result"
	"github.com/SyedDaiam9101/bmt-submitter/internal/submitter"
	"github.com/SyedDaiam9101/bmt-submitter/internal/telemetry"
)

const (
	serviceName    = "bmt-submitter"
	serviceVersion = "1.0.0"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".tif": true, ".tiff": true, ".webp": true,
}

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to config file (optional)")
	modelPath := flag.String("model", "", "Model file path or gs:// URI")
	profile := flag.String("profile", "", "Model profile: "+strings.Join(submitter.ProfileNames(), ", "))
	threads := flag.Int("threads", 0, "Intra-op thread count, also the batch width (default: 4)")
	metricsPort := flag.Int("metrics", -1, "Prometheus metrics port, 0 disables (default: 9100)")
	decoder := flag.String("decoder", "", "Image decoder: std or opencv (opencv needs -tags gocv)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override with flags if provided
	if *modelPath != "" {
		cfg.Model = *modelPath
	}
	if *profile != "" {
		cfg.Profile = *profile
	}
	if *decoder != "" {
		cfg.Decoder = *decoder
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *metricsPort >= 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *useMock {
		cfg.UseMockInference = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, flag.Args(), logger); err != nil {
		logger.Fatal("benchmark failed", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadWithConfigFile(path)
	}
	return config.Load()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

func run(cfg *config.Config, args []string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		zap.String("service", serviceName),
		zap.String("model", cfg.Model),
		zap.String("profile", cfg.Profile),
		zap.String("decoder", cfg.Decoder),
		zap.Int("threads", cfg.Threads),
		zap.Bool("mock", cfg.UseMockInference))

	// Initialize OpenTelemetry tracer
	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer(serviceName, serviceVersion, os.Stderr)
		if err != nil {
			logger.Warn("failed to initialize tracer", zap.Error(err))
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				shutdown(sctx)
			}()
		}
	}

	if cfg.MetricsPort > 0 {
		server := startHTTPServer(cfg.MetricsPort, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(sctx)
		}()
	}

	queries, err := collectQueries(args)
	if err != nil {
		return err
	}

	profile, err := submitter.LookupProfile(cfg.Profile)
	if err != nil {
		return err
	}
	decoder, err := newDecoder(cfg.Decoder, profile.Width, profile.Height)
	if err != nil {
		return err
	}

	opts := submitter.Options{
		Threads:     cfg.Threads,
		Decoder:     decoder,
		Environment: cfg.Environment,
		Logger:      logger,
	}

	model := cfg.Model
	if cfg.UseMockInference {
		logger.Info("using mock inference engine")
		opts.NewEngine = func(string, int) (inference.Engine, error) { return inference.NewMock(), nil }
	} else {
		store := &modelstore.Store{Dir: cfg.ModelCacheDir, Opener: modelstore.GCSOpener{}, Logger: logger}
		model, err = store.Resolve(ctx, cfg.Model)
		if err != nil {
			return err
		}
		opts.NewEngine = submitter.ONNXEngine(inference.Options{
			LibraryPath: cfg.ORTLibrary,
			InputName:   cfg.InputName,
			OutputName:  cfg.OutputName,
		})
	}

	// Initialize Redis cache (optional)
	if cfg.Redis != "" {
		c, err := cache.New(ctx, cfg.Redis, cfg.CacheTTL)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
		} else {
			defer c.Close()
			opts.Cache = c
		}
	}

	h := submitter.New(opts)
	defer h.Close()

	if err := h.Configure(ctx, submitter.ModelIdentity{Path: model, Profile: cfg.Profile}); err != nil {
		return err
	}

	env := h.DescribeEnvironment()
	logger.Info("environment",
		zap.String("cpu_type", env.CPUType),
		zap.String("accelerator_type", env.AcceleratorType),
		zap.String("submitter", env.Submitter),
		zap.String("cpu_core_count", env.CPUCoreCount),
		zap.String("cpu_ram_capacity", env.CPURAMCapacity),
		zap.String("cooling", env.Cooling),
		zap.String("cooling_option", env.CoolingOption),
		zap.String("interconnect", env.CPUAcceleratorInterconnectInterface),
		zap.String("benchmark_model", env.BenchmarkModel),
		zap.String("operating_system", env.OperatingSystem))

	buffers := make([]buffer.Variant, 0, len(queries))
	for _, q := range queries {
		v, err := h.Preprocess(ctx, q)
		if err != nil {
			return err
		}
		buffers = append(buffers, v)
	}

	start := time.Now()
	results, err := h.RunBatch(ctx, buffers)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	for i, r := range results {
		logResult(logger, queries[i], r)
	}

	var throughput float64
	if elapsed > 0 {
		throughput = float64(len(results)) / elapsed.Seconds()
	}
	logger.Info("benchmark complete",
		zap.Int("queries", len(results)),
		zap.Duration("elapsed", elapsed),
		zap.Float64("queries_per_second", throughput))
	return nil
}

func logResult(logger *zap.Logger, query string, r result.Result) {
	if !r.Valid() {
		logger.Warn("no result", zap.String("query", query), zap.Error(r.Err))
		return
	}
	switch r.Kind {
	case result.Classification:
		logger.Info("classified", zap.String("query", query), zap.Int("class", r.Index))
	case result.Detection:
		boxes, err := result.DecodeEndToEnd(r.Candidates, 0.25)
		if err != nil {
			logger.Info("detected", zap.String("query", query), zap.Int("candidate_values", len(r.Candidates)))
			return
		}
		logger.Info("detected", zap.String("query", query), zap.Int("boxes", len(boxes)))
	}
}

// collectQueries expands directory arguments into the image files they
// contain, in lexical order.
func collectQueries(args []string) ([]string, error) {
	var queries []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", arg, err)
		}
		if !info.IsDir() {
			queries = append(queries, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", arg, err)
		}
		sort.Strings(found)
		queries = append(queries, found...)
	}
	return queries, nil
}

func startHTTPServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening (metrics, health)", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return server
}
