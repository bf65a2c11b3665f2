package network

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/parachain-tools/xcm-automation/internal/pointer"
	"github.com/parachain-tools/xcm-automation/xcm"
)

func parachain(key string, typ NetworkType) Network {
	return Network{
		Key:               key,
		Name:              key,
		Type:              typ,
		Endpoints:         []string{"ws://127.0.0.1:9944"},
		ParaID:            pointer.To[uint32](2000),
		AddressKind:       "substrate",
		XcmVersion:        "v3",
		NativeAsset:       NativeAsset{Symbol: "UNIT", Decimals: 12},
		InstructionWeight: Weight{RefTime: "1000000000", ProofSize: "65536"},
	}
}

func Test_Config_Networks(t *testing.T) {
	t.Parallel()

	cfg := NewConfig([]Network{
		parachain("shibuya", NetworkTypeTestnet),
		parachain("astar", NetworkTypeMainnet),
		parachain("moonbase", NetworkTypeTestnet),
	})

	assert.Equal(t, []string{"astar", "moonbase", "shibuya"}, cfg.Keys())
	require.Len(t, cfg.Networks(), 3)
	assert.Equal(t, "astar", cfg.Networks()[0].Key)

	got, err := cfg.NetworkByKey("moonbase")
	require.NoError(t, err)
	assert.Equal(t, "moonbase", got.Key)

	_, err = cfg.NetworkByKey("kusama")
	require.ErrorContains(t, err, `network "kusama" not found`)
}

func Test_Config_Merge(t *testing.T) {
	t.Parallel()

	a := NewConfig([]Network{parachain("turing", NetworkTypeTestnet)})
	replaced := parachain("turing", NetworkTypeMainnet)
	b := NewConfig([]Network{replaced, parachain("rococo", NetworkTypeTestnet)})

	a.Merge(b)

	assert.Equal(t, []string{"rococo", "turing"}, a.Keys())
	got, err := a.NetworkByKey("turing")
	require.NoError(t, err)
	assert.Equal(t, NetworkTypeMainnet, got.Type)
}

func Test_Config_FilterWith(t *testing.T) {
	t.Parallel()

	relay := parachain("rococo", NetworkTypeTestnet)
	relay.Relay, relay.ParaID = true, nil
	cfg := NewConfig([]Network{
		parachain("turing", NetworkTypeTestnet),
		parachain("oak", NetworkTypeMainnet),
		relay,
	})

	tests := []struct {
		name string
		give []NetworkFilter
		want []string
	}{
		{name: "no filters", want: []string{"oak", "rococo", "turing"}},
		{name: "by type", give: []NetworkFilter{TypesFilter(NetworkTypeTestnet)}, want: []string{"rococo", "turing"}},
		{name: "by key", give: []NetworkFilter{KeysFilter("oak", "turing")}, want: []string{"oak", "turing"}},
		{name: "parachains", give: []NetworkFilter{ParachainFilter(), TypesFilter(NetworkTypeTestnet)}, want: []string{"turing"}},
		{name: "none match", give: []NetworkFilter{KeysFilter("kusama")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, cfg.FilterWith(tt.give...).Keys())
		})
	}
}

func Test_Config_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := NewConfig([]Network{parachain("turing", NetworkTypeTestnet)})

	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "networks:")

	var got Config
	require.NoError(t, yaml.Unmarshal(b, &got))
	assert.Equal(t, cfg.Networks(), got.Networks())
}

func Test_Load(t *testing.T) {
	t.Parallel()

	cfg, err := Load([]string{
		filepath.Join("testdata", "networks.yaml"),
		filepath.Join("testdata", "networks.toml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"moonbase", "rococo", "turing"}, cfg.Keys())

	turing, err := cfg.EndpointByKey("turing")
	require.NoError(t, err)
	id, ok := turing.ParachainID()
	require.True(t, ok)
	assert.Equal(t, uint32(2114), id)
	assert.Equal(t, xcm.AddressKindSubstrate, turing.AddressKind)
	assert.Equal(t, xcm.V3, turing.XcmVersion)
	assert.Equal(t, "416000000000", turing.FeePerSecond.String())
	assert.Equal(t, "1000000000", turing.InstructionWeight.RefTime().String())
	require.NotNil(t, turing.NativeAsset.Location)
	assert.Equal(t, xcm.SiblingParachain(2114).Append(xcm.GeneralKey{0x00, 0x00}), *turing.NativeAsset.Location)

	rococo, err := cfg.EndpointByKey("rococo")
	require.NoError(t, err)
	assert.True(t, rococo.IsRelay)
	assert.Nil(t, rococo.FeePerSecond)

	moonbase, err := cfg.EndpointByKey("moonbase")
	require.NoError(t, err)
	assert.Equal(t, xcm.AddressKindEthereum, moonbase.AddressKind)
	assert.Equal(t, uint16(1287), moonbase.SS58Prefix)
	assert.Equal(t, xcm.Here().Append(xcm.PalletInstance(3)), *moonbase.NativeAsset.Location)
}

func Test_Load_URLTransformer(t *testing.T) {
	t.Parallel()

	cfg, err := Load([]string{filepath.Join("testdata", "networks.yaml")},
		WithURLTransformer(func(url string) string { return url + "/secret" }),
	)
	require.NoError(t, err)

	turing, err := cfg.NetworkByKey("turing")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"wss://rpc.turing-staging.oak.tech/secret",
		"https://rpc.turing-staging.oak.tech/secret",
	}, turing.Endpoints)
	assert.Equal(t, "wss://rpc.turing-staging.oak.tech/secret", turing.PreferredEndpoint())
}

func Test_Load_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		wantErr string
	}{
		{
			name:    "bad yaml",
			give:    "networks: [",
			wantErr: "failed to unmarshal networks YAML",
		},
		{
			name: "missing type",
			give: strings.Join([]string{
				"networks:",
				"  - key: turing",
				"    endpoints: [ws://127.0.0.1:9944]",
				"    para_id: 2114",
				"    address_kind: substrate",
				"    xcm_version: v3",
			}, "\n"),
			wantErr: "type is required",
		},
		{
			name: "unknown address kind",
			give: strings.Join([]string{
				"networks:",
				"  - key: turing",
				"    type: testnet",
				"    endpoints: [ws://127.0.0.1:9944]",
				"    para_id: 2114",
				"    address_kind: bitcoin",
				"    xcm_version: v3",
			}, "\n"),
			wantErr: "bitcoin",
		},
		{
			name: "parachain without para id",
			give: strings.Join([]string{
				"networks:",
				"  - key: turing",
				"    type: testnet",
				"    endpoints: [ws://127.0.0.1:9944]",
				"    address_kind: substrate",
				"    xcm_version: v3",
			}, "\n"),
			wantErr: "para id is required",
		},
		{
			name: "ambiguous junction",
			give: strings.Join([]string{
				"networks:",
				"  - key: turing",
				"    type: testnet",
				"    endpoints: [ws://127.0.0.1:9944]",
				"    para_id: 2114",
				"    address_kind: substrate",
				"    xcm_version: v3",
				"    native_asset:",
				"      location:",
				"        parents: 1",
				"        interior:",
				"          - parachain: 2114",
				"            pallet_instance: 3",
			}, "\n"),
			wantErr: "exactly one field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "networks.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.give), 0o600))

			_, err := Load([]string{path})
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := Load([]string{filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorContains(t, err, "failed to read networks file")
}
