package evm

import (
	"context"
	"log"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"approval-watch/internal/domain"
	"approval-watch/internal/observability"
)

// ERC-20 read selectors, derived from the canonical signatures.
var (
	nameSelector     = crypto.Keccak256([]byte("name()"))[:4]
	symbolSelector   = crypto.Keccak256([]byte("symbol()"))[:4]
	decimalsSelector = crypto.Keccak256([]byte("decimals()"))[:4]
)

// TransferTopic is the topic hash of the ERC-20 Transfer event.
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var stringArgs = abi.Arguments{{Type: mustNewType("string")}}

func mustNewType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

// ContractCaller executes read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// MetadataReader reads ERC-20 name, symbol and decimals from the chain.
type MetadataReader struct {
	caller ContractCaller
	logger *log.Logger
}

// NewMetadataReader creates a MetadataReader. A nil logger falls back to
// the standard logger.
func NewMetadataReader(caller ContractCaller, logger *log.Logger) *MetadataReader {
	if logger == nil {
		logger = log.Default()
	}
	return &MetadataReader{caller: caller, logger: logger}
}

// Read fetches metadata for a token. Fields that cannot be read keep their
// fallback values; Read never fails.
func (r *MetadataReader) Read(ctx context.Context, token common.Address) *domain.TokenMetadata {
	meta := domain.FallbackMetadata(token)
	meta.FetchedAt = time.Now().UnixMilli()

	if name, ok := r.readString(ctx, token, nameSelector); ok {
		meta.Name = name
	} else {
		observability.RecordMetadataFallback()
	}

	if symbol, ok := r.readString(ctx, token, symbolSelector); ok {
		meta.Symbol = symbol
	} else {
		observability.RecordMetadataFallback()
	}

	if decimals, ok := r.readDecimals(ctx, token); ok {
		meta.Decimals = decimals
	} else {
		observability.RecordMetadataFallback()
	}

	return meta
}

func (r *MetadataReader) readString(ctx context.Context, token common.Address, selector []byte) (string, bool) {
	out, err := r.caller.CallContract(ctx, token, selector)
	if err != nil {
		r.logger.Printf("metadata read failed for %s: %v", token.Hex(), err)
		return "", false
	}
	return decodeString(out)
}

func (r *MetadataReader) readDecimals(ctx context.Context, token common.Address) (uint8, bool) {
	out, err := r.caller.CallContract(ctx, token, decimalsSelector)
	if err != nil {
		r.logger.Printf("metadata read failed for %s: %v", token.Hex(), err)
		return 0, false
	}
	return decodeDecimals(out)
}

// decodeString unpacks an ABI-encoded string return value. Some older
// tokens return a fixed bytes32 instead, so a 32-byte output is also
// accepted as a NUL-padded literal.
func decodeString(out []byte) (string, bool) {
	if len(out) == 0 {
		return "", false
	}

	if vals, err := stringArgs.Unpack(out); err == nil && len(vals) == 1 {
		if s, ok := vals[0].(string); ok && s != "" {
			return s, true
		}
	}

	if len(out) == 32 {
		s := strings.TrimRight(string(out), "\x00")
		if s != "" && utf8.ValidString(s) {
			return s, true
		}
	}

	return "", false
}

// decodeDecimals interprets the return value as a big-endian integer and
// rejects anything that does not fit uint8.
func decodeDecimals(out []byte) (uint8, bool) {
	if len(out) == 0 {
		return 0, false
	}
	v := new(big.Int).SetBytes(out)
	if !v.IsUint64() || v.Uint64() > 255 {
		return 0, false
	}
	return uint8(v.Uint64()), true
}
