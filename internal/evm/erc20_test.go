package evm

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
)

// fakeContractCaller answers ERC-20 reads from canned per-selector outputs.
type fakeContractCaller struct {
	name     []byte
	symbol   []byte
	decimals []byte
	err      error
}

func (f *fakeContractCaller) CallContract(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	switch {
	case bytes.Equal(data, nameSelector):
		return f.name, nil
	case bytes.Equal(data, symbolSelector):
		return f.symbol, nil
	case bytes.Equal(data, decimalsSelector):
		return f.decimals, nil
	}
	return nil, errors.New("unexpected call")
}

// abiString encodes s as a dynamic ABI string return value.
func abiString(s string) []byte {
	out, err := stringArgs.Pack(s)
	if err != nil {
		panic(err)
	}
	return out
}

func bytes32String(s string) []byte {
	out := make([]byte, 32)
	copy(out, s)
	return out
}

func uintWord(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}

func TestMetadataReader_Read(t *testing.T) {
	ctx := context.Background()
	caller := &fakeContractCaller{
		name:     abiString("Degen Token"),
		symbol:   abiString("DEGEN"),
		decimals: uintWord(6),
	}
	reader := NewMetadataReader(caller, log.New(os.Stderr, "[test] ", log.LstdFlags))

	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	meta := reader.Read(ctx, token)

	if meta.Token != token {
		t.Errorf("Expected token %s, got %s", token.Hex(), meta.Token.Hex())
	}
	if meta.Name != "Degen Token" {
		t.Errorf("Expected name Degen Token, got %q", meta.Name)
	}
	if meta.Symbol != "DEGEN" {
		t.Errorf("Expected symbol DEGEN, got %q", meta.Symbol)
	}
	if meta.Decimals != 6 {
		t.Errorf("Expected 6 decimals, got %d", meta.Decimals)
	}
	if meta.FetchedAt == 0 {
		t.Error("Expected FetchedAt to be set")
	}
}

func TestMetadataReader_Read_Bytes32Token(t *testing.T) {
	ctx := context.Background()

	// MKR-style tokens return NUL-padded bytes32 for name and symbol.
	caller := &fakeContractCaller{
		name:     bytes32String("Maker"),
		symbol:   bytes32String("MKR"),
		decimals: uintWord(18),
	}
	reader := NewMetadataReader(caller, log.New(os.Stderr, "[test] ", log.LstdFlags))

	meta := reader.Read(ctx, common.Address{})
	if meta.Name != "Maker" {
		t.Errorf("Expected name Maker, got %q", meta.Name)
	}
	if meta.Symbol != "MKR" {
		t.Errorf("Expected symbol MKR, got %q", meta.Symbol)
	}
}

func TestMetadataReader_Read_Fallbacks(t *testing.T) {
	ctx := context.Background()
	caller := &fakeContractCaller{err: errors.New("execution reverted")}
	reader := NewMetadataReader(caller, log.New(os.Stderr, "[test] ", log.LstdFlags))

	meta := reader.Read(ctx, common.Address{})

	if meta.Name != domain.FallbackName {
		t.Errorf("Expected fallback name %q, got %q", domain.FallbackName, meta.Name)
	}
	if meta.Symbol != domain.FallbackSymbol {
		t.Errorf("Expected fallback symbol %q, got %q", domain.FallbackSymbol, meta.Symbol)
	}
	if meta.Decimals != domain.FallbackDecimals {
		t.Errorf("Expected fallback decimals %d, got %d", domain.FallbackDecimals, meta.Decimals)
	}
}

func TestMetadataReader_Read_PartialFallback(t *testing.T) {
	ctx := context.Background()

	// Name reads fine, symbol returns garbage, decimals overflows uint8.
	caller := &fakeContractCaller{
		name:     abiString("Working Name"),
		symbol:   []byte{0x01, 0x02},
		decimals: uintWord(300),
	}
	reader := NewMetadataReader(caller, log.New(os.Stderr, "[test] ", log.LstdFlags))

	meta := reader.Read(ctx, common.Address{})
	if meta.Name != "Working Name" {
		t.Errorf("Expected name to survive, got %q", meta.Name)
	}
	if meta.Symbol != domain.FallbackSymbol {
		t.Errorf("Expected symbol fallback, got %q", meta.Symbol)
	}
	if meta.Decimals != domain.FallbackDecimals {
		t.Errorf("Expected decimals fallback, got %d", meta.Decimals)
	}
}

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name   string
		out    []byte
		want   string
		wantOK bool
	}{
		{name: "abi encoded", out: abiString("Token"), want: "Token", wantOK: true},
		{name: "bytes32 padded", out: bytes32String("TKN"), want: "TKN", wantOK: true},
		{name: "empty output", out: nil, wantOK: false},
		{name: "empty string", out: abiString(""), wantOK: false},
		{name: "all zero word", out: make([]byte, 32), wantOK: false},
		{name: "garbage", out: []byte{0xde, 0xad}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeString(tt.out)
			if ok != tt.wantOK {
				t.Fatalf("decodeString() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("decodeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeDecimals(t *testing.T) {
	tests := []struct {
		name   string
		out    []byte
		want   uint8
		wantOK bool
	}{
		{name: "standard word", out: uintWord(18), want: 18, wantOK: true},
		{name: "zero decimals", out: uintWord(0), want: 0, wantOK: true},
		{name: "max uint8", out: uintWord(255), want: 255, wantOK: true},
		{name: "overflows uint8", out: uintWord(256), wantOK: false},
		{name: "empty output", out: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeDecimals(tt.out)
			if ok != tt.wantOK {
				t.Fatalf("decodeDecimals() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("decodeDecimals() = %d, want %d", got, tt.want)
			}
		})
	}
}
