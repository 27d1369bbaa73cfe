package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"approval-watch/internal/config"
	"approval-watch/internal/decode"
	"approval-watch/internal/evm"
	"approval-watch/internal/explorer"
	"approval-watch/internal/holders"
	"approval-watch/internal/listing"
	"approval-watch/internal/observability"
	"approval-watch/internal/report"
	"approval-watch/internal/storage/memory"
	"approval-watch/internal/watch"
)

// watchConfig carries parsed flags into run.
type watchConfig struct {
	rpcURL      string
	wsURL       string
	profilePath string

	holderStrategy  string
	holderThreshold int
	holderWindow    uint64
	explorerURL     string
	explorerKey     string

	seenCapacity int
	listingTTL   time.Duration
	graceWindow  time.Duration

	workers      int
	pollInterval time.Duration
	retryDelay   time.Duration
	restartDelay time.Duration
	maxRestarts  int

	natsURL     string
	natsSubject string
}

func main() {
	// Parse flags
	rpcURL := flag.String("rpc-url", "", "EVM JSON-RPC HTTP endpoint")
	wsURL := flag.String("ws-url", "", "WebSocket endpoint for newHeads (optional, falls back to polling)")
	profilePath := flag.String("profile", "", "Chain profile YAML (defaults to Base mainnet)")

	holderStrategy := flag.String("holder-strategy", holders.StrategyLogScan, "Holder estimator: logscan or explorer")
	holderThreshold := flag.Int("holder-threshold", holders.DefaultThreshold, "Exclude tokens with more holders than this")
	holderWindow := flag.Uint64("holder-window", holders.DefaultWindow, "Blocks scanned per holder estimate (logscan)")
	explorerURL := flag.String("explorer-url", "", "Explorer API base URL (required for the explorer strategy)")
	explorerKey := flag.String("explorer-key", "", "Explorer API key")

	seenCapacity := flag.Int("seen-capacity", memory.DefaultSeenCapacity, "Dedup cache capacity")
	listingTTL := flag.Duration("listing-ttl", memory.DefaultListingTTL, "Listing decision TTL")
	graceWindow := flag.Duration("grace-window", memory.DefaultGraceWindow, "Re-alert suppression window")

	workers := flag.Int("workers", watch.DefaultWorkers, "Concurrent evaluators per block")
	pollInterval := flag.Duration("poll-interval", watch.DefaultPollInterval, "Idle delay between head checks")
	retryDelay := flag.Duration("retry-delay", watch.DefaultRetryDelay, "Delay after a failed head or block fetch")
	restartDelay := flag.Duration("restart-delay", watch.DefaultRestartDelay, "Delay before restarting a failed loop")
	maxRestarts := flag.Int("max-restarts", 0, "Restart budget (0 = unbounded)")

	natsURL := flag.String("nats-url", "", "NATS server URL for alert publishing (optional)")
	natsSubject := flag.String("nats-subject", report.DefaultSubject, "NATS subject for alerts")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lshortfile)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, watchConfig{
		rpcURL:          *rpcURL,
		wsURL:           *wsURL,
		profilePath:     *profilePath,
		holderStrategy:  *holderStrategy,
		holderThreshold: *holderThreshold,
		holderWindow:    *holderWindow,
		explorerURL:     *explorerURL,
		explorerKey:     *explorerKey,
		seenCapacity:    *seenCapacity,
		listingTTL:      *listingTTL,
		graceWindow:     *graceWindow,
		workers:         *workers,
		pollInterval:    *pollInterval,
		retryDelay:      *retryDelay,
		restartDelay:    *restartDelay,
		maxRestarts:     *maxRestarts,
		natsURL:         *natsURL,
		natsSubject:     *natsSubject,
	})

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// run wires the pipeline and keeps it alive until ctx is cancelled.
func run(ctx context.Context, logger *log.Logger, cfg watchConfig) error {
	if cfg.rpcURL == "" {
		return fmt.Errorf("--rpc-url is required")
	}

	profile, err := config.Load(cfg.profilePath)
	if err != nil {
		return err
	}
	logger.Printf("Profile: v3=%s v2=%s weth=%s routers=%d blacklist=%d",
		profile.V3Factory, profile.V2Factory, profile.WETH, len(profile.Routers), len(profile.Blacklist))

	// Block until the node answers; the loop is useless without it.
	client := evm.NewClient(cfg.rpcURL, evm.WithLogger(logger))
	logger.Println("Waiting for node connection...")
	if err := client.WaitConnected(ctx); err != nil {
		return err
	}
	defer client.Close()
	logger.Println("Node connection established")

	var heads watch.HeadSource = watch.NewPollHeadSource(client)
	if cfg.wsURL != "" {
		ws := evm.NewWSHeadSource(cfg.wsURL, nil, logger)
		go func() {
			if err := ws.Start(ctx); err != nil && err != context.Canceled {
				logger.Printf("Head subscription stopped: %v", err)
			}
		}()
		heads = ws
		logger.Printf("Tracking heads over WebSocket: %s", cfg.wsURL)
	}

	// All state is in-memory and dies with the process.
	seen := memory.NewSeenSet(cfg.seenCapacity)
	listingCache := memory.NewListingCache(cfg.listingTTL, 0)
	provisional := memory.NewProvisionalStore(cfg.graceWindow, 0)
	metaCache := memory.NewMetadataCache()
	alertLog := memory.NewAlertLog(0)

	resolver := listing.NewResolver(listing.Options{
		Caller:      client,
		Cache:       listingCache,
		Provisional: provisional,
		V3Factory:   profile.V3FactoryAddress(),
		V2Factory:   profile.V2FactoryAddress(),
		WETH:        profile.WETHAddress(),
		FeeTiers:    profile.FeeTiers,
		Logger:      logger,
	})

	deps := holders.Deps{
		Reader: client,
		Window: cfg.holderWindow,
		Logger: logger,
	}
	if cfg.explorerURL != "" {
		deps.API = explorer.NewClient(cfg.explorerURL, cfg.explorerKey)
	}
	estimator, err := holders.FromName(cfg.holderStrategy, deps)
	if err != nil {
		return fmt.Errorf("holder strategy %q: %w", cfg.holderStrategy, err)
	}

	var reporter report.Reporter = report.NewConsoleReporter(os.Stdout)
	if cfg.natsURL != "" {
		nr, err := report.NewNATSReporter(cfg.natsURL, cfg.natsSubject)
		if err != nil {
			return fmt.Errorf("nats reporter: %w", err)
		}
		defer nr.Close()
		reporter = report.NewMultiReporter(reporter, nr)
		logger.Printf("Publishing alerts to NATS subject %s", cfg.natsSubject)
	}

	evaluator := watch.NewEvaluator(watch.EvaluatorOptions{
		Decoder:   decode.NewDecoder(profile.WETHAddress()),
		Seen:      seen,
		Blacklist: profile.BlacklistSet(),
		Listings:  resolver,
		Estimator: estimator,
		Gate:      holders.NewGate(cfg.holderThreshold),
		Metadata:  evm.NewMetadataReader(client, logger),
		MetaCache: metaCache,
		Routers:   profile.RouterLabels(),
		Alerts:    alertLog,
		Reporter:  reporter,
		Logger:    logger,
	})

	runner := watch.NewRunner(watch.RunnerOptions{
		Heads:        heads,
		Blocks:       client,
		Dispatcher:   watch.NewDispatcher(cfg.workers, logger),
		Eval:         evaluator.Evaluate,
		PollInterval: cfg.pollInterval,
		RetryDelay:   cfg.retryDelay,
		Logger:       logger,
	})

	supervisor := watch.NewSupervisor(cfg.restartDelay, cfg.maxRestarts, logger)

	logger.Println("Starting approval watch...")
	return supervisor.Run(ctx, runner.Run)
}
