// Package config holds the chain profile: contract addresses, fee tiers,
// router registry and blacklist.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Validation errors
var (
	ErrBadAddress = errors.New("invalid address")
	ErrNoFeeTiers = errors.New("at least one fee tier required")
)

// Profile describes one chain deployment. Routers maps a human label to a
// router address; the registry annotates output and never drives filtering.
type Profile struct {
	V3Factory string            `yaml:"v3_factory"`
	V2Factory string            `yaml:"v2_factory"`
	WETH      string            `yaml:"weth"`
	FeeTiers  []uint32          `yaml:"fee_tiers"`
	Routers   map[string]string `yaml:"routers"`
	Blacklist []string          `yaml:"blacklist"`
}

// Base returns the default profile for Base mainnet.
func Base() *Profile {
	return &Profile{
		V3Factory: "0x33128a8fC17869897dcE68Ed026d694621f6FDfD",
		V2Factory: "0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6",
		WETH:      "0x4200000000000000000000000000000000000006",
		FeeTiers:  []uint32{100, 500, 3000, 10000},
		Routers: map[string]string{
			"Universal Router": "0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD",
			"V2 Router02":      "0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24",
			"V3 SwapRouter02":  "0x2626664c2603336E57B271c5C0b26F421741e481",
		},
	}
}

// Load reads a YAML profile over the Base defaults. A section present in
// the file replaces its default wholesale; absent sections keep theirs.
// An empty path returns the defaults.
func Load(path string) (*Profile, error) {
	profile := Base()
	if path == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var overlay Profile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	profile.apply(&overlay)

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *Profile) apply(o *Profile) {
	if o.V3Factory != "" {
		p.V3Factory = o.V3Factory
	}
	if o.V2Factory != "" {
		p.V2Factory = o.V2Factory
	}
	if o.WETH != "" {
		p.WETH = o.WETH
	}
	if len(o.FeeTiers) > 0 {
		p.FeeTiers = o.FeeTiers
	}
	if len(o.Routers) > 0 {
		p.Routers = o.Routers
	}
	if len(o.Blacklist) > 0 {
		p.Blacklist = o.Blacklist
	}
}

// Validate checks that every configured address parses.
func (p *Profile) Validate() error {
	if !common.IsHexAddress(p.V3Factory) {
		return fmt.Errorf("%w: v3_factory %q", ErrBadAddress, p.V3Factory)
	}
	if !common.IsHexAddress(p.V2Factory) {
		return fmt.Errorf("%w: v2_factory %q", ErrBadAddress, p.V2Factory)
	}
	if !common.IsHexAddress(p.WETH) {
		return fmt.Errorf("%w: weth %q", ErrBadAddress, p.WETH)
	}
	if len(p.FeeTiers) == 0 {
		return ErrNoFeeTiers
	}
	for label, addr := range p.Routers {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: router %q = %q", ErrBadAddress, label, addr)
		}
	}
	for _, addr := range p.Blacklist {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: blacklist entry %q", ErrBadAddress, addr)
		}
	}
	return nil
}

// V3FactoryAddress returns the parsed V3 factory address.
func (p *Profile) V3FactoryAddress() common.Address { return common.HexToAddress(p.V3Factory) }

// V2FactoryAddress returns the parsed V2 factory address.
func (p *Profile) V2FactoryAddress() common.Address { return common.HexToAddress(p.V2Factory) }

// WETHAddress returns the parsed wrapped native asset address.
func (p *Profile) WETHAddress() common.Address { return common.HexToAddress(p.WETH) }

// RouterLabels inverts the router registry for lookup by spender address.
func (p *Profile) RouterLabels() map[common.Address]string {
	labels := make(map[common.Address]string, len(p.Routers))
	for label, addr := range p.Routers {
		labels[common.HexToAddress(addr)] = label
	}
	return labels
}

// BlacklistSet returns the blacklist as an address set.
func (p *Profile) BlacklistSet() map[common.Address]struct{} {
	set := make(map[common.Address]struct{}, len(p.Blacklist))
	for _, addr := range p.Blacklist {
		set[common.HexToAddress(addr)] = struct{}{}
	}
	return set
}
