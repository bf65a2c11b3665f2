package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain"
	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

var (
	turing  = substrate.Chain{Endpoint: substrate.ChainEndpoint{Key: "turing", Name: "Turing"}}
	shibuya = substrate.Chain{Endpoint: substrate.ChainEndpoint{Key: "shibuya", Name: "Shibuya"}}
	rococo  = &substrate.Chain{Endpoint: substrate.ChainEndpoint{Key: "rococo", Name: "Rococo", IsRelay: true}}
)

type otherChain struct{}

func (otherChain) String() string { return "Other (other)" }
func (otherChain) Name() string   { return "Other" }
func (otherChain) Key() string    { return "other" }
func (otherChain) Family() string { return "other" }

func buildBlockChains() chain.BlockChains {
	return chain.NewBlockChainsFromSlice([]chain.BlockChain{turing, shibuya, rococo, otherChain{}})
}

func Test_NewBlockChains(t *testing.T) {
	t.Parallel()

	t.Run("nil map", func(t *testing.T) {
		t.Parallel()

		chains := chain.NewBlockChains(nil)
		assert.Empty(t, chains.ListChainKeys())
	})

	t.Run("copies the input", func(t *testing.T) {
		t.Parallel()

		original := map[string]chain.BlockChain{"turing": turing}
		chains := chain.NewBlockChains(original)
		original["shibuya"] = shibuya

		assert.False(t, chains.Exists("shibuya"))
	})
}

func Test_BlockChains_GetByKey(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	got, err := chains.GetByKey("turing")
	require.NoError(t, err)
	assert.Equal(t, "Turing (turing)", got.String())

	_, err = chains.GetByKey("moonbase")
	require.ErrorIs(t, err, chain.ErrBlockChainNotFound)
}

func Test_BlockChains_Exists(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	assert.True(t, chains.ExistsN("turing", "shibuya", "rococo"))
	assert.False(t, chains.ExistsN("turing", "moonbase"))
}

func Test_BlockChains_SubstrateChains(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	got := chains.SubstrateChains()
	assert.Len(t, got, 3, "pointer and value chains are both returned")
	assert.True(t, got["rococo"].Endpoint.IsRelay)

	c, err := chains.SubstrateChain("shibuya")
	require.NoError(t, err)
	assert.Equal(t, "Shibuya", c.Name())

	_, err = chains.SubstrateChain("other")
	require.ErrorIs(t, err, chain.ErrBlockChainNotFound)
}

func Test_BlockChains_ListChainKeys(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	tests := []struct {
		name string
		give []chain.ChainKeysOption
		want []string
	}{
		{
			name: "all sorted",
			want: []string{"other", "rococo", "shibuya", "turing"},
		},
		{
			name: "substrate family",
			give: []chain.ChainKeysOption{chain.WithFamily(substrate.Family)},
			want: []string{"rococo", "shibuya", "turing"},
		},
		{
			name: "with exclusion",
			give: []chain.ChainKeysOption{
				chain.WithFamily(substrate.Family),
				chain.WithKeysExclusion([]string{"rococo"}),
			},
			want: []string{"shibuya", "turing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, chains.ListChainKeys(tt.give...))
		})
	}
}

func Test_BlockChains_All(t *testing.T) {
	t.Parallel()

	chains := buildBlockChains()

	seen := map[string]bool{}
	for key, bc := range chains.All() {
		assert.Equal(t, key, bc.Key())
		seen[key] = true
	}
	assert.Len(t, seen, 4)
}
