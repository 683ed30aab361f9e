package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CurrencyName is a symbolic fee-currency identifier from the closed set of
// currencies accepted for gas payment.
type CurrencyName string

const (
	CurrencyCelo  CurrencyName = "celo"
	CurrencyCUSD  CurrencyName = "cusd"
	CurrencyCEUR  CurrencyName = "ceur"
	CurrencyCREAL CurrencyName = "creal"
)

// ValidCurrencies lists every currency name accepted in an override prompt.
var ValidCurrencies = []CurrencyName{CurrencyCUSD, CurrencyCEUR, CurrencyCREAL, CurrencyCelo}

// OracleRate is a median price reported by the SortedOracles contract,
// expressed as a ratio to avoid floating-point rounding.
type OracleRate struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// TokenInfo is the per-token working state of a single fee-currency
// resolution. It is never persisted. Value stays zero whenever either the
// balance or the rate fetch failed, so a token with unknown data can never
// win the selection.
type TokenInfo struct {
	Address common.Address
	Balance *big.Int
	Rate    *OracleRate
	Value   *big.Int
}
