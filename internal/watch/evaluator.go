package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"approval-watch/internal/decode"
	"approval-watch/internal/domain"
	"approval-watch/internal/holders"
	"approval-watch/internal/idhash"
	"approval-watch/internal/observability"
	"approval-watch/internal/report"
	"approval-watch/internal/storage"
)

// ListingChecker answers whether a token should be filtered out as already
// listed or already alerted.
type ListingChecker interface {
	IsListed(ctx context.Context, token common.Address) bool
}

// MetadataSource reads best-effort token metadata.
type MetadataSource interface {
	Read(ctx context.Context, token common.Address) *domain.TokenMetadata
}

// EvaluatorOptions contains configuration for creating an Evaluator.
// Decoder, Seen, Listings, Estimator, Gate and Metadata are required;
// the rest may be nil or empty.
type EvaluatorOptions struct {
	Decoder   *decode.Decoder
	Seen      storage.SeenSet
	Blacklist map[common.Address]struct{}
	Listings  ListingChecker
	Estimator holders.Estimator
	Gate      *holders.Gate
	Metadata  MetadataSource
	MetaCache storage.MetadataCache
	Routers   map[common.Address]string
	Alerts    storage.AlertLog
	Reporter  report.Reporter
	Logger    *log.Logger
}

// Evaluator runs one transaction through the filter pipeline: decode,
// dedup, blacklist, listing, holder gate, then metadata and reporting for
// the survivors.
type Evaluator struct {
	decoder   *decode.Decoder
	seen      storage.SeenSet
	blacklist map[common.Address]struct{}
	listings  ListingChecker
	estimator holders.Estimator
	gate      *holders.Gate
	metadata  MetadataSource
	metaCache storage.MetadataCache
	routers   map[common.Address]string
	alerts    storage.AlertLog
	reporter  report.Reporter
	logger    *log.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts EvaluatorOptions) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Evaluator{
		decoder:   opts.Decoder,
		seen:      opts.Seen,
		blacklist: opts.Blacklist,
		listings:  opts.Listings,
		estimator: opts.Estimator,
		gate:      opts.Gate,
		metadata:  opts.Metadata,
		metaCache: opts.MetaCache,
		routers:   opts.Routers,
		alerts:    opts.Alerts,
		reporter:  opts.Reporter,
		logger:    opts.Logger,
	}
}

// Evaluate filters one transaction and reports it if it survives every
// gate. Filtered transactions return nil; only delivery and bookkeeping
// failures surface as errors.
func (e *Evaluator) Evaluate(ctx context.Context, height uint64, tx *types.Transaction) error {
	observability.RecordTxEvaluated()

	approval, ok := e.decoder.Decode(tx, height)
	if !ok {
		return nil
	}
	observability.RecordApprovalDecoded()

	if e.seen.Contains(ctx, approval.TxHash) {
		observability.RecordDedupHit()
		return nil
	}
	e.seen.Record(ctx, approval.TxHash)

	if _, banned := e.blacklist[approval.Token]; banned {
		observability.RecordBlacklistHit()
		return nil
	}

	if e.listings.IsListed(ctx, approval.Token) {
		return nil
	}

	observability.RecordHolderEstimate()
	estimate := e.estimator.Estimate(ctx, approval.Token)
	if e.gate.Exceeds(estimate) {
		observability.RecordHolderExclusion()
		return nil
	}

	alert := e.buildAlert(ctx, approval, estimate)

	if e.alerts != nil {
		if err := e.alerts.Append(ctx, alert); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Already reported this approval in this run.
				return nil
			}
			observability.RecordEvalError("alert_log")
			e.logger.Printf("append alert %s: %v", alert.ID, err)
		}
	}

	if e.reporter != nil {
		if err := e.reporter.Report(ctx, alert); err != nil {
			observability.RecordEvalError("report")
			observability.RecordReportError()
			return fmt.Errorf("report alert %s: %w", alert.ID, err)
		}
	}

	observability.RecordAlertEmitted()
	e.logger.Printf("alert %s: token=%s spender=%s holders=%d",
		alert.ID[:12], approval.Token.Hex(), approval.Spender.Hex(), estimate)
	return nil
}

func (e *Evaluator) buildAlert(ctx context.Context, approval *domain.Approval, estimate int) *domain.Alert {
	label, ok := e.routers[approval.Spender]
	if !ok {
		label = domain.UnknownRouterLabel
	}

	return &domain.Alert{
		ID:          idhash.ComputeAlertID(approval.TxHash, approval.Token, approval.Spender),
		Token:       approval.Token,
		Metadata:    e.tokenMetadata(ctx, approval.Token),
		Spender:     approval.Spender,
		RouterLabel: label,
		Amount:      approval.Amount,
		TxHash:      approval.TxHash,
		Height:      approval.Height,
		ObservedAt:  time.Now().UnixMilli(),
	}
}

// tokenMetadata serves cached metadata when available and reads through
// otherwise. Reads never fail; worst case is fallback values.
func (e *Evaluator) tokenMetadata(ctx context.Context, token common.Address) domain.TokenMetadata {
	if e.metaCache != nil {
		if meta, err := e.metaCache.Get(ctx, token); err == nil {
			return *meta
		}
	}

	meta := e.metadata.Read(ctx, token)

	if e.metaCache != nil {
		if err := e.metaCache.Put(ctx, meta); err != nil {
			observability.RecordEvalError("metadata_cache")
			e.logger.Printf("cache metadata for %s: %v", token.Hex(), err)
		}
	}
	return *meta
}
