package main

import (
	"context"
	"flag"
	"fmt"
	"log"
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
	"approval-watch/internal/report"
	"approval-watch/internal/storage/memory"
	"approval-watch/internal/watch"
)

func main() {
	// Parse flags
	rpcURL := flag.String("rpc-url", "", "EVM JSON-RPC HTTP endpoint")
	fromHeight := flag.Uint64("from", 0, "First block height to scan")
	toHeight := flag.Uint64("to", 0, "Last block height to scan (0 = current head)")
	profilePath := flag.String("profile", "", "Chain profile YAML (defaults to Base mainnet)")

	holderStrategy := flag.String("holder-strategy", holders.StrategyLogScan, "Holder estimator: logscan or explorer")
	holderThreshold := flag.Int("holder-threshold", holders.DefaultThreshold, "Exclude tokens with more holders than this")
	holderWindow := flag.Uint64("holder-window", holders.DefaultWindow, "Blocks scanned per holder estimate (logscan)")
	explorerURL := flag.String("explorer-url", "", "Explorer API base URL (required for the explorer strategy)")
	explorerKey := flag.String("explorer-key", "", "Explorer API key")

	workers := flag.Int("workers", watch.DefaultWorkers, "Concurrent evaluators per block")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[scan] ", log.LstdFlags)

	// Cancel on interrupt; the scan stops at the next block boundary.
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping scan...", sig)
		cancel()
	}()

	err := run(ctx, logger, scanConfig{
		rpcURL:          *rpcURL,
		from:            *fromHeight,
		to:              *toHeight,
		profilePath:     *profilePath,
		holderStrategy:  *holderStrategy,
		holderThreshold: *holderThreshold,
		holderWindow:    *holderWindow,
		explorerURL:     *explorerURL,
		explorerKey:     *explorerKey,
		workers:         *workers,
	})
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}
}

type scanConfig struct {
	rpcURL      string
	from        uint64
	to          uint64
	profilePath string

	holderStrategy  string
	holderThreshold int
	holderWindow    uint64
	explorerURL     string
	explorerKey     string

	workers int
}

// run walks the block range through the same pipeline the live watcher
// uses, then prints a summary.
func run(ctx context.Context, logger *log.Logger, cfg scanConfig) error {
	if cfg.rpcURL == "" {
		return fmt.Errorf("--rpc-url is required")
	}
	if cfg.from == 0 {
		return fmt.Errorf("--from is required")
	}

	profile, err := config.Load(cfg.profilePath)
	if err != nil {
		return err
	}

	client := evm.NewClient(cfg.rpcURL, evm.WithLogger(logger))
	if err := client.WaitConnected(ctx); err != nil {
		return err
	}
	defer client.Close()

	to := cfg.to
	if to == 0 {
		to, err = client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("resolve head: %w", err)
		}
	}
	if cfg.from > to {
		return fmt.Errorf("--from %d is past --to %d", cfg.from, to)
	}

	seen := memory.NewSeenSet(0)
	listingCache := memory.NewListingCache(0, 0)
	provisional := memory.NewProvisionalStore(0, 0)
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
		Reporter:  report.NewConsoleReporter(os.Stdout),
		Logger:    logger,
	})

	dispatcher := watch.NewDispatcher(cfg.workers, logger)

	logger.Printf("Scanning blocks %d to %d", cfg.from, to)
	start := time.Now()
	blocks, txs := 0, 0

	for height := cfg.from; height <= to; height++ {
		if ctx.Err() != nil {
			break
		}

		block, err := client.BlockByNumber(ctx, height)
		if err != nil {
			logger.Printf("fetch block %d: %v", height, err)
			continue
		}

		dispatcher.Dispatch(ctx, height, block.Transactions(), evaluator.Evaluate)
		blocks++
		txs += len(block.Transactions())
	}

	logger.Printf("Scan complete: %d blocks, %d txs, %d alerts in %v",
		blocks, txs, alertLog.Len(ctx), time.Since(start).Round(time.Millisecond))
	return ctx.Err()
}
