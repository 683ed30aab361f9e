package service

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/celo-org/gas-snap/internal/config"
	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/registry"
)

// fakeChainClient implements port.ChainClient with overridable behavior per
// method. Unset methods fail loudly so a test that reaches an unexpected
// call does not pass by accident. calls counts every chain interaction.
type fakeChainClient struct {
	network entity.Network
	calls   int32

	estimateGasFn     func(tx *entity.DraftTransaction) (*big.Int, error)
	suggestGasPriceFn func(feeCurrency *common.Address) (*big.Int, error)
	nativeBalanceFn   func(owner common.Address) (*big.Int, error)
	tokenBalanceFn    func(token, owner common.Address) (*big.Int, error)
	medianRateFn      func(token common.Address) (*entity.OracleRate, error)
	whitelistFn       func() ([]common.Address, error)
	sendTransactionFn func(tx *entity.DraftTransaction, key *entity.KeyPair) (common.Hash, error)
	waitMinedFn       func(txHash common.Hash) (*types.Receipt, error)
}

func (f *fakeChainClient) EstimateGas(_ context.Context, tx *entity.DraftTransaction) (*big.Int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.estimateGasFn == nil {
		return nil, fmt.Errorf("unexpected EstimateGas call")
	}
	return f.estimateGasFn(tx)
}

func (f *fakeChainClient) SuggestGasPrice(_ context.Context, feeCurrency *common.Address) (*big.Int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.suggestGasPriceFn == nil {
		return nil, fmt.Errorf("unexpected SuggestGasPrice call")
	}
	return f.suggestGasPriceFn(feeCurrency)
}

func (f *fakeChainClient) NativeBalance(_ context.Context, owner common.Address) (*big.Int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.nativeBalanceFn == nil {
		return nil, fmt.Errorf("unexpected NativeBalance call")
	}
	return f.nativeBalanceFn(owner)
}

func (f *fakeChainClient) TokenBalance(_ context.Context, token, owner common.Address) (*big.Int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.tokenBalanceFn == nil {
		return nil, fmt.Errorf("unexpected TokenBalance call")
	}
	return f.tokenBalanceFn(token, owner)
}

func (f *fakeChainClient) MedianRate(_ context.Context, token common.Address) (*entity.OracleRate, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.medianRateFn == nil {
		return nil, fmt.Errorf("unexpected MedianRate call")
	}
	return f.medianRateFn(token)
}

func (f *fakeChainClient) FeeCurrencyWhitelist(_ context.Context) ([]common.Address, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.whitelistFn == nil {
		return nil, fmt.Errorf("unexpected FeeCurrencyWhitelist call")
	}
	return f.whitelistFn()
}

func (f *fakeChainClient) SendTransaction(_ context.Context, tx *entity.DraftTransaction, key *entity.KeyPair) (common.Hash, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.sendTransactionFn == nil {
		return common.Hash{}, fmt.Errorf("unexpected SendTransaction call")
	}
	return f.sendTransactionFn(tx, key)
}

func (f *fakeChainClient) WaitMined(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.waitMinedFn == nil {
		return nil, fmt.Errorf("unexpected WaitMined call")
	}
	return f.waitMinedFn(txHash)
}

func (f *fakeChainClient) Network() entity.Network {
	if f.network.Identifier == "" {
		return registry.Alfajores
	}
	return f.network
}

// fakeDialog implements port.Dialog and records everything shown to the
// user.
type fakeDialog struct {
	alerts        [][]string
	confirmations [][]string
	prompts       [][]string

	confirmResult bool
	confirmErr    error
	promptValue   string
	promptOK      bool
	promptErr     error
}

func (f *fakeDialog) Alert(_ context.Context, content []string) error {
	f.alerts = append(f.alerts, content)
	return nil
}

func (f *fakeDialog) Confirm(_ context.Context, content []string) (bool, error) {
	f.confirmations = append(f.confirmations, content)
	return f.confirmResult, f.confirmErr
}

func (f *fakeDialog) Prompt(_ context.Context, content []string, _ string) (string, bool, error) {
	f.prompts = append(f.prompts, content)
	return f.promptValue, f.promptOK, f.promptErr
}

// fakeSigner implements port.Signer backed by a single key pair.
type fakeSigner struct {
	key *entity.KeyPair
	err error
}

func (f *fakeSigner) DeriveKeyPair(address *common.Address) (*entity.KeyPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

// fakeResolver implements port.FeeCurrencyResolver with a canned answer.
type fakeResolver struct {
	address *common.Address
	err     error
	calls   int
}

func (f *fakeResolver) ResolveOptimalFeeCurrency(_ context.Context, _ *entity.DraftTransaction, _ common.Address) (*common.Address, error) {
	f.calls++
	return f.address, f.err
}

func newTestConfig() *config.Config {
	return &config.Config{
		RpcClient: config.RpcClientConfig{
			ReceiptTimeoutMs: 5000,
		},
		Resolver: config.ResolverConfig{
			MaxConcurrentFetches:     4,
			RateCacheTTLSeconds:      30,
			WhitelistCacheTTLSeconds: 300,
		},
	}
}
