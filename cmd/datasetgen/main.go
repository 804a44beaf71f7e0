// Command datasetgen queues image generation requests against Google's image
// models and collects the results as a labelled dataset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/mhpenta/datasetgen"
	"github.com/mhpenta/datasetgen/internal/broker"
	"github.com/mhpenta/datasetgen/internal/config"
	"github.com/mhpenta/datasetgen/internal/logging"
	"github.com/mhpenta/datasetgen/internal/metrics"
	"github.com/mhpenta/datasetgen/internal/server"
	"github.com/mhpenta/datasetgen/provider/gemini"
	"github.com/mhpenta/datasetgen/storage/local"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "datasetgen: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger and the Gemini-backed
// session shared by serve and generate.
func setup(ctx context.Context, configPath string, opts ...datasetgen.SessionOption) (*config.Config, *zap.Logger, *datasetgen.Session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Gemini.APIKey == "" {
		return nil, nil, nil, errors.New("an API key is required (DATASETGEN_GEMINI_API_KEY or API_KEY)")
	}

	gen, err := gemini.New(ctx, &gemini.ProviderConfig{
		APIKey:          cfg.Gemini.APIKey,
		GenerationModel: cfg.Gemini.GenerationModel,
		VariationModel:  cfg.Gemini.VariationModel,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	sessionOpts := []datasetgen.SessionOption{datasetgen.WithLogger(logger)}
	if cfg.Gemini.WaitOnRateLimit {
		sessionOpts = append(sessionOpts, datasetgen.WithWaitOnRateLimit(cfg.Gemini.MaxWait))
	}
	sessionOpts = append(sessionOpts, opts...)

	return cfg, logger, datasetgen.NewSession(gen, sessionOpts...), nil
}

func newExporter(cfg config.ExportConfig, logger *zap.Logger) (*datasetgen.Exporter, error) {
	store, err := local.New(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return datasetgen.NewExporter(store,
		datasetgen.WithExportDelay(cfg.Delay),
		datasetgen.WithExportLogger(logger),
	), nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The broker and collector must exist before the session they observe
	b := broker.NewMemoryBroker(0)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("datasetgen", registry, zap.NewNop())

	cfg, logger, session, err := setup(ctx, *configPath,
		datasetgen.WithNotifier(b),
		datasetgen.WithRecorder(collector),
	)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer session.Close()

	logger.Info("starting datasetgen",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	exporter, err := newExporter(cfg.Export, logger)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithBroker(b),
		server.WithExporter(exporter),
		server.WithLogger(logger),
	}
	if cfg.Server.MetricsEnabled {
		opts = append(opts, server.WithMetrics(collector))
	}
	h := server.NewHTTPServer(session, opts...)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("datasetgen stopped")
	return nil
}

// queueFile is the document read by `generate --requests`.
type queueFile struct {
	Requests []datasetgen.RequestInput `yaml:"requests"`
}

func readQueueFile(path string) ([]datasetgen.RequestInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}
	var qf queueFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing requests %s: %w", path, err)
	}
	return qf.Requests, nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	requestsPath := fs.String("requests", "", "YAML file listing the generation requests")
	outDir := fs.String("out", "", "Output directory (overrides export.dir)")
	variations := fs.Int("variations", 0, "Variations to generate per generated image")
	fs.Parse(args)

	if *requestsPath == "" {
		return errors.New("--requests is required")
	}
	inputs, err := readQueueFile(*requestsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, session, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer session.Close()

	for _, in := range inputs {
		if _, ok := session.AddRequest(in); !ok {
			logger.Warn("skipping request with empty prompt")
		}
	}

	genErr := session.GenerateDataset(ctx)
	if genErr != nil {
		logger.Error("dataset generation stopped early", zap.Error(genErr))
	}

	if genErr == nil && *variations > 0 {
		for _, img := range session.Images() {
			for i := 0; i < *variations; i++ {
				if _, err := session.GenerateVariation(ctx, img.ID); err != nil {
					logger.Warn("variation failed", zap.String("image_id", img.ID), zap.Error(err))
					break
				}
			}
		}
	}

	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}
	exporter, err := newExporter(cfg.Export, logger)
	if err != nil {
		return err
	}

	saved, err := exporter.ExportAll(ctx, session.Images())
	for _, r := range saved {
		fmt.Println(r.Path)
	}
	if err != nil {
		return err
	}

	for _, group := range session.Groups() {
		logger.Info("prompt group", zap.String("prompt", group.Prompt), zap.Int("images", len(group.Images)))
	}
	return genErr
}

func printVersion() {
	fmt.Printf("datasetgen %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`datasetgen - image dataset generator

Usage:
  datasetgen <command> [options]

Commands:
  serve     Start the HTTP server
  generate  Drain a request file and export the images
  version   Show version information
  help      Show this help message

Options for 'serve':
  --config <path>       Path to configuration file (YAML)

Options for 'generate':
  --config <path>       Path to configuration file (YAML)
  --requests <path>     YAML file with a "requests" list
  --out <dir>           Output directory
  --variations <n>      Variations per generated image

Examples:
  datasetgen serve --config datasetgen.yaml
  datasetgen generate --requests queue.yaml --out ./dataset --variations 2
  datasetgen version`)
}
