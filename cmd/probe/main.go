package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/config"
	"approval-watch/internal/domain"
	"approval-watch/internal/evm"
	"approval-watch/internal/explorer"
	"approval-watch/internal/holders"
	"approval-watch/internal/listing"
	"approval-watch/internal/storage/memory"
)

func main() {
	// Parse flags
	rpcURL := flag.String("rpc-url", "", "EVM JSON-RPC HTTP endpoint")
	token := flag.String("token", "", "Token address to probe")
	profilePath := flag.String("profile", "", "Chain profile YAML (defaults to Base mainnet)")

	holderStrategy := flag.String("holder-strategy", holders.StrategyLogScan, "Holder estimator: logscan or explorer")
	holderThreshold := flag.Int("holder-threshold", holders.DefaultThreshold, "Exclusion threshold to report against")
	holderWindow := flag.Uint64("holder-window", holders.DefaultWindow, "Blocks scanned per holder estimate (logscan)")
	explorerURL := flag.String("explorer-url", "", "Explorer API base URL (required for the explorer strategy)")
	explorerKey := flag.String("explorer-key", "", "Explorer API key")

	flag.Parse()

	// Validate flags
	if *rpcURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-url is required")
		os.Exit(1)
	}
	if !common.IsHexAddress(*token) {
		fmt.Fprintf(os.Stderr, "Error: --token %q is not a valid address\n", *token)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := log.New(os.Stderr, "[probe] ", log.LstdFlags)

	profile, err := config.Load(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
		os.Exit(1)
	}

	client := evm.NewClient(*rpcURL, evm.WithLogger(logger))
	if err := client.WaitConnected(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to node: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	resolver := listing.NewResolver(listing.Options{
		Caller:      client,
		Cache:       memory.NewListingCache(0, 0),
		Provisional: memory.NewProvisionalStore(0, 0),
		V3Factory:   profile.V3FactoryAddress(),
		V2Factory:   profile.V2FactoryAddress(),
		WETH:        profile.WETHAddress(),
		FeeTiers:    profile.FeeTiers,
		Logger:      logger,
	})

	deps := holders.Deps{
		Reader: client,
		Window: *holderWindow,
		Logger: logger,
	}
	if *explorerURL != "" {
		deps.API = explorer.NewClient(*explorerURL, *explorerKey)
	}
	estimator, err := holders.FromName(*holderStrategy, deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: holder strategy %q: %v\n", *holderStrategy, err)
		os.Exit(1)
	}

	addr := common.HexToAddress(*token)
	meta := evm.NewMetadataReader(client, logger).Read(ctx, addr)
	status := resolver.Resolve(ctx, addr)
	estimate := estimator.Estimate(ctx, addr)
	gate := holders.NewGate(*holderThreshold)

	fmt.Printf("Token:    %s\n", addr.Hex())
	fmt.Printf("Name:     %s (%s)\n", meta.Name, meta.Symbol)
	fmt.Printf("Decimals: %d\n", meta.Decimals)
	if status.State == domain.ListingListed {
		fmt.Printf("Listing:  %s (%s)\n", status.State, status.Venue)
	} else {
		fmt.Printf("Listing:  %s\n", status.State)
	}
	fmt.Printf("Holders:  ~%d (threshold %d, excluded=%t)\n",
		estimate, *holderThreshold, gate.Exceeds(estimate))
}
