package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed human-facing messages, kept verbatim for client compatibility.
const (
	RejectionMessage         = "User rejected the request"
	InvalidCurrencyMessage   = "Invalid currency"
	InsufficientFundsMessage = "Oops! Looks like you don't have sufficient funds in the chosen gas currency to complete the operation. Please try again using another currency."
	MethodNotFoundMessage    = "Method not found."
)

// ValidationError reports a malformed request shape. It is raised before any
// network call is made and is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// UnsupportedNetworkError reports a chain id with no configured network.
type UnsupportedNetworkError struct {
	ChainID string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("Unsupported Network %s", e.ChainID)
}

// UnrecognizedCurrencyAddressError reports a fee-currency address that does
// not belong to the given network's currency table.
type UnrecognizedCurrencyAddressError struct {
	Address common.Address
	Network string
}

func (e *UnrecognizedCurrencyAddressError) Error() string {
	return fmt.Sprintf("Fee currency address %s not recognized on network %s.", e.Address.Hex(), e.Network)
}

// UnrecognizedCurrencyNameError reports a currency name outside the closed
// set of valid currencies.
type UnrecognizedCurrencyNameError struct {
	Name string
}

func (e *UnrecognizedCurrencyNameError) Error() string {
	return fmt.Sprintf("Fee currency string %s not recognized. Must be either 'celo', 'cusd', 'ceur' or 'creal'.", e.Name)
}

// RejectionError means the human declined at the confirmation or override
// step. Terminal, not exceptional.
type RejectionError struct{}

func (e *RejectionError) Error() string { return RejectionMessage }

// InvalidCurrencyError means the human entered an override string outside
// the valid currency set (or an empty one). Terminal.
type InvalidCurrencyError struct {
	Input string
}

func (e *InvalidCurrencyError) Error() string { return InvalidCurrencyMessage }

// InsufficientFundsError tags a submission failure caused by a balance
// shortfall in the chosen fee currency. The chain client classifies node
// errors into this type so callers never probe error strings themselves.
type InsufficientFundsError struct {
	Cause error
}

func (e *InsufficientFundsError) Error() string { return e.Cause.Error() }

func (e *InsufficientFundsError) Unwrap() error { return e.Cause }

// SubmissionError is the catch-all for submission failures that are not a
// balance shortfall. The underlying message passes through verbatim.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string { return e.Cause.Error() }

func (e *SubmissionError) Unwrap() error { return e.Cause }
