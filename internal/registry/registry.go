// Package registry maps chain identifiers to the static Celo network
// metadata this service supports.
package registry

import (
	"strconv"
	"strings"

	"github.com/celo-org/gas-snap/internal/entity"
)

// Predefined network definitions
var (
	Alfajores = entity.Network{
		Identifier:     "alfajores",
		Name:           "Celo Alfajores",
		ChainIDHex:     "0xaef3",
		ChainIDDecimal: 44787,
		RPCURL:         "https://alfajores-forno.celo-testnet.org",
		ExplorerURL:    "https://explorer.celo.org/alfajores",
	}
	Mainnet = entity.Network{
		Identifier:     "mainnet",
		Name:           "Celo Mainnet",
		ChainIDHex:     "0xa4ec",
		ChainIDDecimal: 42220,
		RPCURL:         "https://forno.celo.org",
		ExplorerURL:    "https://explorer.celo.org/mainnet",
	}
)

// Provider resolves chain identifiers against the configured network table.
// The table is read-only after construction and safe for concurrent use.
type Provider struct {
	byHex        map[string]entity.Network
	byDecimal    map[uint64]entity.Network
	byIdentifier map[string]entity.Network
}

// NewProvider builds a provider from the configured networks. An empty slice
// falls back to the built-in Alfajores and Mainnet definitions.
func NewProvider(networks []entity.Network) *Provider {
	if len(networks) == 0 {
		networks = []entity.Network{Alfajores, Mainnet}
	}

	p := &Provider{
		byHex:        make(map[string]entity.Network, len(networks)),
		byDecimal:    make(map[uint64]entity.Network, len(networks)),
		byIdentifier: make(map[string]entity.Network, len(networks)),
	}
	for _, n := range networks {
		p.byHex[strings.ToLower(n.ChainIDHex)] = n
		p.byDecimal[n.ChainIDDecimal] = n
		p.byIdentifier[n.Identifier] = n
	}
	return p
}

// Lookup matches a hex ("0x...") or decimal chain id string against the
// table. An unknown chain id is an error, never a default.
func (p *Provider) Lookup(chainID string) (entity.Network, error) {
	id := strings.ToLower(strings.TrimSpace(chainID))

	if strings.HasPrefix(id, "0x") {
		if n, ok := p.byHex[id]; ok {
			return n, nil
		}
		return entity.Network{}, &entity.UnsupportedNetworkError{ChainID: chainID}
	}

	dec, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return entity.Network{}, &entity.UnsupportedNetworkError{ChainID: chainID}
	}
	if n, ok := p.byDecimal[dec]; ok {
		return n, nil
	}
	return entity.Network{}, &entity.UnsupportedNetworkError{ChainID: chainID}
}

// ByIdentifier returns a network by its short identifier ("alfajores",
// "mainnet").
func (p *Provider) ByIdentifier(identifier string) (entity.Network, bool) {
	n, ok := p.byIdentifier[strings.ToLower(identifier)]
	return n, ok
}
