// Package currency holds the network-scoped bidirectional mapping between
// symbolic fee-currency names and their stable-token contract addresses.
package currency

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/celo-org/gas-snap/internal/entity"
)

// Stable-token contract addresses per network. The same symbolic name maps
// to a different address on each network; the tables are keyed by the
// explicit network identifier so the two can never be mixed up silently.
var addressesByNetwork = map[string]map[entity.CurrencyName]common.Address{
	"alfajores": {
		entity.CurrencyCUSD:  common.HexToAddress("0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1"),
		entity.CurrencyCEUR:  common.HexToAddress("0x10c892A6EC43a53E45D0B916B4b7D383B1b78C0F"),
		entity.CurrencyCREAL: common.HexToAddress("0xE4D517785D091D3c54818832dB6094bcc2744545"),
	},
	"mainnet": {
		entity.CurrencyCUSD:  common.HexToAddress("0x765DE816845861e75A25fCA122bb6898B8B1282a"),
		entity.CurrencyCEUR:  common.HexToAddress("0xD8763CBa276a3738E6DE85b4b3bF5FDed6D6cA73"),
		entity.CurrencyCREAL: common.HexToAddress("0xe8537a3d056DA446677B9E9d6c5dB704EaAb4787"),
	},
}

// NameFromAddress resolves a fee-currency address to its symbolic name on
// the given network. A nil address means the native currency.
func NameFromAddress(address *common.Address, network entity.Network) (entity.CurrencyName, error) {
	table, ok := addressesByNetwork[network.Identifier]
	if !ok {
		return "", &entity.UnsupportedNetworkError{ChainID: network.Identifier}
	}
	if address == nil {
		return entity.CurrencyCelo, nil
	}
	for name, addr := range table {
		if addr == *address {
			return name, nil
		}
	}
	return "", &entity.UnrecognizedCurrencyAddressError{Address: *address, Network: network.Identifier}
}

// AddressFromName resolves a symbolic currency name to its contract address
// on the given network. The native currency resolves to nil, meaning no
// fee-currency override at all.
func AddressFromName(name entity.CurrencyName, network entity.Network) (*common.Address, error) {
	table, ok := addressesByNetwork[network.Identifier]
	if !ok {
		return nil, &entity.UnsupportedNetworkError{ChainID: network.Identifier}
	}
	if name == entity.CurrencyCelo {
		return nil, nil
	}
	if addr, ok := table[name]; ok {
		a := addr
		return &a, nil
	}
	return nil, &entity.UnrecognizedCurrencyNameError{Name: string(name)}
}

// ParseName matches free-text input against the closed currency set,
// case-insensitively. ok is false for anything outside the set, including
// the empty string.
func ParseName(input string) (entity.CurrencyName, bool) {
	candidate := entity.CurrencyName(strings.ToLower(strings.TrimSpace(input)))
	for _, name := range entity.ValidCurrencies {
		if candidate == name {
			return name, true
		}
	}
	return "", false
}
