// Package listing decides whether a token already trades on a known venue.
package listing

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"approval-watch/internal/domain"
	"approval-watch/internal/observability"
	"approval-watch/internal/storage"
)

// DefaultFeeTiers are the canonical Uniswap V3 fee tiers, cheapest first.
var DefaultFeeTiers = []uint32{100, 500, 3000, 10000}

// Factory read selectors.
var (
	getPoolSelector = crypto.Keccak256([]byte("getPool(address,address,uint24)"))[:4]
	getPairSelector = crypto.Keccak256([]byte("getPair(address,address)"))[:4]
)

// ContractCaller executes read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Options configures Resolver. Caller, Cache and Provisional are required.
type Options struct {
	Caller      ContractCaller
	Cache       storage.ListingCache
	Provisional storage.ProvisionalStore
	V3Factory   common.Address
	V2Factory   common.Address
	WETH        common.Address
	FeeTiers    []uint32
	Logger      *log.Logger
}

// Resolver answers the listing question for token addresses, backed by a
// TTL cache and a separate grace tier that suppresses repeat alerts for
// tokens already reported as unlisted.
type Resolver struct {
	caller      ContractCaller
	cache       storage.ListingCache
	provisional storage.ProvisionalStore
	v3Factory   common.Address
	v2Factory   common.Address
	weth        common.Address
	feeTiers    []uint32
	logger      *log.Logger
}

// NewResolver creates a Resolver, filling defaults for unset options.
func NewResolver(opts Options) *Resolver {
	if opts.FeeTiers == nil {
		opts.FeeTiers = DefaultFeeTiers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Resolver{
		caller:      opts.Caller,
		cache:       opts.Cache,
		provisional: opts.Provisional,
		v3Factory:   opts.V3Factory,
		v2Factory:   opts.V2Factory,
		weth:        opts.WETH,
		feeTiers:    opts.FeeTiers,
		logger:      opts.Logger,
	}
}

// IsListed reports whether a token should be filtered out: already on a
// venue, or already alerted within the grace window. It never fails; query
// errors degrade toward "not listed."
func (r *Resolver) IsListed(ctx context.Context, token common.Address) bool {
	status, err := r.cache.Get(ctx, token)
	if err == nil && status.State == domain.ListingListed {
		observability.RecordListingCacheHit("listed")
		return true
	}

	// The grace marker outranks a cached negative: a token alerted once
	// stays suppressed even while the negative decision is still fresh.
	if r.provisional.Suppressed(ctx, token) {
		observability.RecordProvisionalSuppressed()
		return true
	}

	if err == nil && status.State == domain.ListingNotListed {
		observability.RecordListingCacheHit("not_listed")
		return false
	}

	status = r.query(ctx, token)
	if err := r.cache.Put(ctx, status); err != nil {
		r.logger.Printf("cache listing for %s: %v", token.Hex(), err)
	}

	if status.State == domain.ListingListed {
		return true
	}

	if err := r.provisional.Mark(ctx, token); err != nil {
		r.logger.Printf("mark provisional %s: %v", token.Hex(), err)
	}
	return false
}

// Resolve returns the listing status for a token, serving an unexpired
// cached decision first. Unlike IsListed it neither consults nor writes
// the grace tier, so one-off lookups do not disturb alert suppression.
func (r *Resolver) Resolve(ctx context.Context, token common.Address) *domain.ListingStatus {
	if status, err := r.cache.Get(ctx, token); err == nil {
		return status
	}

	status := r.query(ctx, token)
	if err := r.cache.Put(ctx, status); err != nil {
		r.logger.Printf("cache listing for %s: %v", token.Hex(), err)
	}
	return status
}

// query asks the V3 factory across all fee tiers, short-circuiting on the
// first pool found, then falls back to the V2 factory. A failed call counts
// as no pool for that tier.
func (r *Resolver) query(ctx context.Context, token common.Address) *domain.ListingStatus {
	for _, fee := range r.feeTiers {
		observability.RecordFactoryQuery("v3")
		out, err := r.caller.CallContract(ctx, r.v3Factory, packGetPool(token, r.weth, fee))
		if err != nil {
			r.logger.Printf("getPool %s fee=%d: %v", token.Hex(), fee, err)
			continue
		}
		if pool := wordToAddress(out); pool != (common.Address{}) {
			observability.RecordListingFound("v3")
			return &domain.ListingStatus{
				Token: token,
				State: domain.ListingListed,
				Venue: fmt.Sprintf("v3:%d", fee),
			}
		}
	}

	observability.RecordFactoryQuery("v2")
	out, err := r.caller.CallContract(ctx, r.v2Factory, packGetPair(token, r.weth))
	if err != nil {
		r.logger.Printf("getPair %s: %v", token.Hex(), err)
	} else if pair := wordToAddress(out); pair != (common.Address{}) {
		observability.RecordListingFound("v2")
		return &domain.ListingStatus{
			Token: token,
			State: domain.ListingListed,
			Venue: "v2",
		}
	}

	return &domain.ListingStatus{
		Token: token,
		State: domain.ListingNotListed,
	}
}

func packGetPool(token, weth common.Address, fee uint32) []byte {
	data := make([]byte, 0, 4+3*32)
	data = append(data, getPoolSelector...)
	data = append(data, common.LeftPadBytes(token.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(weth.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(uint64(fee)).Bytes(), 32)...)
	return data
}

func packGetPair(token, weth common.Address) []byte {
	data := make([]byte, 0, 4+2*32)
	data = append(data, getPairSelector...)
	data = append(data, common.LeftPadBytes(token.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(weth.Bytes(), 32)...)
	return data
}

// wordToAddress reads an address out of a 32-byte return word. Anything
// shorter decodes to the zero address, meaning no pool.
func wordToAddress(out []byte) common.Address {
	if len(out) < 32 {
		return common.Address{}
	}
	return common.BytesToAddress(out[:32])
}
