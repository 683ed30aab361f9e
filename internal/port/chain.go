package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/celo-org/gas-snap/internal/entity"
)

// ChainClient defines the interface for interacting with a Celo network.
// All balance, oracle and gas reads go through this boundary; the resolver
// and the orchestrator never talk to the node directly.
type ChainClient interface {
	// EstimateGas estimates the gas needed to execute the draft transaction.
	EstimateGas(ctx context.Context, tx *entity.DraftTransaction) (*big.Int, error)

	// SuggestGasPrice returns the node's gas price denominated in the given
	// fee currency. A nil feeCurrency asks for the native CELO gas price.
	SuggestGasPrice(ctx context.Context, feeCurrency *common.Address) (*big.Int, error)

	// NativeBalance fetches the CELO balance of a wallet.
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)

	// TokenBalance fetches the stable-token balance of a wallet.
	TokenBalance(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error)

	// MedianRate fetches the oracle price ratio for a whitelisted token.
	MedianRate(ctx context.Context, token common.Address) (*entity.OracleRate, error)

	// FeeCurrencyWhitelist returns the on-chain ordered list of token
	// addresses eligible for paying gas.
	FeeCurrencyWhitelist(ctx context.Context) ([]common.Address, error)

	// SendTransaction signs the draft with the given key and broadcasts it.
	// A balance shortfall is reported as *entity.InsufficientFundsError.
	SendTransaction(ctx context.Context, tx *entity.DraftTransaction, key *entity.KeyPair) (common.Hash, error)

	// WaitMined blocks until the transaction is mined or ctx expires.
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Network returns the network this client is connected to.
	Network() entity.Network
}
