package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celo-org/gas-snap/internal/entity"
)

func TestLookupHexChainID(t *testing.T) {
	p := NewProvider(nil)

	n, err := p.Lookup("0xaef3")
	require.NoError(t, err)
	assert.Equal(t, "alfajores", n.Identifier)

	n, err = p.Lookup("0xA4EC")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", n.Identifier)
}

func TestLookupDecimalChainID(t *testing.T) {
	p := NewProvider(nil)

	n, err := p.Lookup("44787")
	require.NoError(t, err)
	assert.Equal(t, "alfajores", n.Identifier)

	n, err = p.Lookup("42220")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", n.Identifier)
}

func TestLookupUnknownChainID(t *testing.T) {
	p := NewProvider(nil)

	for _, chainID := range []string{"0x1", "1", "garbage", ""} {
		_, err := p.Lookup(chainID)
		require.Error(t, err, "chainID %q", chainID)

		var unsupported *entity.UnsupportedNetworkError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, chainID, unsupported.ChainID)
	}
}

func TestLookupUnknownChainIDMessage(t *testing.T) {
	p := NewProvider(nil)

	_, err := p.Lookup("0x1")
	require.Error(t, err)
	assert.Equal(t, "Unsupported Network 0x1", err.Error())
}

func TestNewProviderCustomNetworks(t *testing.T) {
	custom := entity.Network{
		Identifier:     "devnet",
		ChainIDHex:     "0x539",
		ChainIDDecimal: 1337,
		RPCURL:         "http://localhost:8545",
	}
	p := NewProvider([]entity.Network{custom})

	n, err := p.Lookup("1337")
	require.NoError(t, err)
	assert.Equal(t, "devnet", n.Identifier)

	// Built-in networks are not registered when an explicit list is given.
	_, err = p.Lookup("0xaef3")
	assert.Error(t, err)
}

func TestByIdentifier(t *testing.T) {
	p := NewProvider(nil)

	n, ok := p.ByIdentifier("mainnet")
	require.True(t, ok)
	assert.Equal(t, uint64(42220), n.ChainIDDecimal)

	_, ok = p.ByIdentifier("baklava")
	assert.False(t, ok)
}

func TestTxURL(t *testing.T) {
	url := Alfajores.TxURL("0xabc")
	assert.Equal(t, "https://explorer.celo.org/alfajores/tx/0xabc", url)
}
