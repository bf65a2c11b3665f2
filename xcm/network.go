package xcm

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// NetworkKind selects the consensus system a NetworkID refers to.
type NetworkKind uint8

const (
	// NetworkAny is V1/V2 "Any" and V3 "None".
	NetworkAny NetworkKind = iota
	NetworkNamed
	NetworkPolkadot
	NetworkKusama
	NetworkWestend
	NetworkRococo
	NetworkByGenesis
	NetworkEthereum
)

// NetworkID qualifies an account junction with the network it lives on.
type NetworkID struct {
	Kind    NetworkKind
	Name    []byte   // NetworkNamed, V1/V2 only
	Genesis [32]byte // NetworkByGenesis, V3 only
	ChainID uint64   // NetworkEthereum, V3 only
}

// AnyNetwork is the unqualified network.
var AnyNetwork = NetworkID{Kind: NetworkAny}

// ParseNetwork parses "any", "polkadot", "kusama", "westend", "rococo", "named:<name>",
// "genesis:<hex>" and "ethereum:<chain id>".
func ParseNetwork(s string) (NetworkID, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(kind) {
	case "", "any":
		return AnyNetwork, nil
	case "polkadot":
		return NetworkID{Kind: NetworkPolkadot}, nil
	case "kusama":
		return NetworkID{Kind: NetworkKusama}, nil
	case "westend":
		return NetworkID{Kind: NetworkWestend}, nil
	case "rococo":
		return NetworkID{Kind: NetworkRococo}, nil
	case "named":
		if arg == "" {
			return NetworkID{}, fmt.Errorf("named network requires a name")
		}

		return NetworkID{Kind: NetworkNamed, Name: []byte(arg)}, nil
	case "genesis":
		b, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
		if err != nil || len(b) != 32 {
			return NetworkID{}, fmt.Errorf("genesis network requires a 32 byte hex hash, got %q", arg)
		}
		n := NetworkID{Kind: NetworkByGenesis}
		copy(n.Genesis[:], b)

		return n, nil
	case "ethereum":
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return NetworkID{}, fmt.Errorf("ethereum network requires a chain id: %w", err)
		}

		return NetworkID{Kind: NetworkEthereum, ChainID: id}, nil
	}

	return NetworkID{}, fmt.Errorf("unknown network %q", s)
}

func (n NetworkID) String() string {
	switch n.Kind {
	case NetworkAny:
		return "Any"
	case NetworkNamed:
		return "Named(" + string(n.Name) + ")"
	case NetworkPolkadot:
		return "Polkadot"
	case NetworkKusama:
		return "Kusama"
	case NetworkWestend:
		return "Westend"
	case NetworkRococo:
		return "Rococo"
	case NetworkByGenesis:
		return "ByGenesis(0x" + hex.EncodeToString(n.Genesis[:]) + ")"
	case NetworkEthereum:
		return "Ethereum(" + strconv.FormatUint(n.ChainID, 10) + ")"
	}

	return "Unknown"
}
