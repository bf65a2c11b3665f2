package network

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/internal/pointer"
	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// NetworkType represents the type of network: mainnet, testnet or a local dev chain.
type NetworkType string

const (
	NetworkTypeMainnet NetworkType = "mainnet"
	NetworkTypeTestnet NetworkType = "testnet"
	NetworkTypeLocal   NetworkType = "local"
)

// Network is the manifest entry of one chain.
type Network struct {
	Key               string      `yaml:"key" toml:"key"`
	Name              string      `yaml:"name" toml:"name"`
	Type              NetworkType `yaml:"type" toml:"type"`
	Endpoints         []string    `yaml:"endpoints" toml:"endpoints"`
	SS58Prefix        uint16      `yaml:"ss58_prefix" toml:"ss58_prefix"`
	ParaID            *uint32     `yaml:"para_id,omitempty" toml:"para_id,omitempty"`
	Relay             bool        `yaml:"relay,omitempty" toml:"relay,omitempty"`
	AddressKind       string      `yaml:"address_kind" toml:"address_kind"`
	XcmVersion        string      `yaml:"xcm_version" toml:"xcm_version"`
	NativeAsset       NativeAsset `yaml:"native_asset" toml:"native_asset"`
	InstructionWeight Weight      `yaml:"instruction_weight" toml:"instruction_weight"`
	// FeePerSecond is a decimal integer in the native asset's smallest unit.
	FeePerSecond string    `yaml:"fee_per_second,omitempty" toml:"fee_per_second,omitempty"`
	ProxyType    ProxyType `yaml:"proxy_type" toml:"proxy_type"`
}

// NativeAsset is the manifest form of substrate.NativeAsset.
type NativeAsset struct {
	Symbol   string    `yaml:"symbol" toml:"symbol"`
	Decimals uint8     `yaml:"decimals" toml:"decimals"`
	Location *Location `yaml:"location,omitempty" toml:"location,omitempty"`
}

// Weight holds both dimensions as decimal strings so that u64 values survive YAML and TOML.
type Weight struct {
	RefTime   string `yaml:"ref_time" toml:"ref_time"`
	ProofSize string `yaml:"proof_size" toml:"proof_size"`
}

// ProxyType names the proxy pallet variant and its index.
type ProxyType struct {
	Name  string `yaml:"name" toml:"name"`
	Index uint8  `yaml:"index" toml:"index"`
}

// Location is the manifest form of a multilocation.
type Location struct {
	Parents  uint8      `yaml:"parents" toml:"parents"`
	Interior []Junction `yaml:"interior,omitempty" toml:"interior,omitempty"`
}

// Junction sets exactly one of its fields.
type Junction struct {
	Parachain      *uint32 `yaml:"parachain,omitempty" toml:"parachain,omitempty"`
	PalletInstance *uint8  `yaml:"pallet_instance,omitempty" toml:"pallet_instance,omitempty"`
	// GeneralIndex is a decimal u128.
	GeneralIndex string `yaml:"general_index,omitempty" toml:"general_index,omitempty"`
	// GeneralKey is 0x prefixed hex.
	GeneralKey string `yaml:"general_key,omitempty" toml:"general_key,omitempty"`
}

func (j Junction) toXCM() (xcm.Junction, error) {
	var (
		out xcm.Junction
		set int
	)
	if j.Parachain != nil {
		out, set = xcm.Parachain(*j.Parachain), set+1
	}
	if j.PalletInstance != nil {
		out, set = xcm.PalletInstance(*j.PalletInstance), set+1
	}
	if j.GeneralIndex != "" {
		idx, ok := new(big.Int).SetString(j.GeneralIndex, 10)
		if !ok || idx.Sign() < 0 {
			return nil, fmt.Errorf("invalid general index %q", j.GeneralIndex)
		}
		out, set = xcm.GeneralIndex{Index: idx}, set+1
	}
	if j.GeneralKey != "" {
		key, err := decodeHex(j.GeneralKey)
		if err != nil {
			return nil, fmt.Errorf("invalid general key: %w", err)
		}
		out, set = xcm.GeneralKey(key), set+1
	}
	if set != 1 {
		return nil, fmt.Errorf("junction must set exactly one field, got %d", set)
	}

	return out, nil
}

// MultiLocation converts l.
func (l Location) MultiLocation() (xcm.MultiLocation, error) {
	loc := xcm.MultiLocation{Parents: l.Parents}
	for i, j := range l.Interior {
		x, err := j.toXCM()
		if err != nil {
			return xcm.MultiLocation{}, fmt.Errorf("junction %d: %w", i, err)
		}
		loc = loc.Append(x)
	}

	return loc, loc.Validate()
}

// Validate validates the network configuration to ensure that all required fields are set.
func (n *Network) Validate() error {
	if n.Key == "" {
		return errors.New("key is required")
	}
	if n.Type == "" {
		return errors.New("type is required")
	}
	_, err := n.Endpoint()

	return err
}

// Endpoint converts the manifest entry into a substrate.ChainEndpoint.
func (n *Network) Endpoint() (substrate.ChainEndpoint, error) {
	kind, err := xcm.ParseAddressKind(n.AddressKind)
	if err != nil {
		return substrate.ChainEndpoint{}, err
	}
	version, err := xcm.ParseVersion(n.XcmVersion)
	if err != nil {
		return substrate.ChainEndpoint{}, err
	}
	instruction, err := weight.Parse(n.InstructionWeight.RefTime, n.InstructionWeight.ProofSize)
	if err != nil {
		return substrate.ChainEndpoint{}, fmt.Errorf("instruction weight: %w", err)
	}

	e := substrate.ChainEndpoint{
		Key:        n.Key,
		Name:       n.Name,
		Endpoints:  append([]string(nil), n.Endpoints...),
		SS58Prefix: n.SS58Prefix,
		NativeAsset: substrate.NativeAsset{
			Symbol:   n.NativeAsset.Symbol,
			Decimals: n.NativeAsset.Decimals,
		},
		InstructionWeight: instruction,
		AddressKind:       kind,
		XcmVersion:        version,
		ProxyType:         substrate.ProxyType{Name: n.ProxyType.Name, Index: n.ProxyType.Index},
		IsRelay:           n.Relay,
	}
	if n.ParaID != nil {
		e.ParaID = pointer.To(*n.ParaID)
	}
	if n.NativeAsset.Location != nil {
		loc, err := n.NativeAsset.Location.MultiLocation()
		if err != nil {
			return substrate.ChainEndpoint{}, fmt.Errorf("native asset location: %w", err)
		}
		e.NativeAsset.Location = &loc
	}
	if n.FeePerSecond != "" {
		fee, ok := new(big.Int).SetString(n.FeePerSecond, 10)
		if !ok {
			return substrate.ChainEndpoint{}, fmt.Errorf("invalid fee per second %q", n.FeePerSecond)
		}
		e.FeePerSecond = fee
	}

	return e, e.Validate()
}

// PreferredEndpoint returns the first websocket endpoint, or the first endpoint when none is a
// websocket URL.
func (n *Network) PreferredEndpoint() string {
	for _, url := range n.Endpoints {
		if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
			return url
		}
	}
	if len(n.Endpoints) > 0 {
		return n.Endpoints[0]
	}

	return ""
}
