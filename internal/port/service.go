package port

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/celo-org/gas-snap/internal/entity"
)

// FeeCurrencyResolver picks the fee currency to pay gas with.
type FeeCurrencyResolver interface {
	// ResolveOptimalFeeCurrency returns the stable-token address the payer
	// should pay gas with, or nil when the native CELO balance suffices.
	// Native payment is always preferred when viable because it is cheaper.
	ResolveOptimalFeeCurrency(ctx context.Context, tx *entity.DraftTransaction, payer common.Address) (*common.Address, error)
}

// TransactionService drives a draft transaction through confirmation,
// currency override and submission.
type TransactionService interface {
	SubmitTransaction(ctx context.Context, tx *entity.DraftTransaction) (*entity.SubmissionResult, error)
}
