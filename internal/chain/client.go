// Package chain implements the Celo network gateway: core-contract reads,
// gas queries and transaction submission over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/celo-org/gas-snap/internal/config"
	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/port"
)

// RegistryAddress is the fixed address of the Celo core-contract registry.
var RegistryAddress = common.HexToAddress("0x000000000000000000000000000000000000ce10")

// Registry identifiers of the core contracts this client reads.
const (
	sortedOraclesContract        = "SortedOracles"
	feeCurrencyWhitelistContract = "FeeCurrencyWhitelist"
)

// celoClient implements the port.ChainClient interface over a single Celo
// network endpoint.
type celoClient struct {
	ethClient   *ethclient.Client
	rpcClient   *rpc.Client
	network     entity.Network
	limiter     *rate.Limiter
	callTimeout time.Duration
	receiptPoll time.Duration
	addrCache   *cache.Cache // registry identifier -> core-contract address
	logger      *zap.Logger
}

// NewClient dials the network RPC endpoint and returns a chain client.
func NewClient(network entity.Network, cfg config.RpcClientConfig, logger *zap.Logger) (port.ChainClient, error) {
	initParsedABIs()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectionTimeoutMs)*time.Millisecond)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", network.RPCURL, err)
	}

	return &celoClient{
		ethClient:   ethclient.NewClient(rpcClient),
		rpcClient:   rpcClient,
		network:     network,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstLimit),
		callTimeout: time.Duration(cfg.CallTimeoutMs) * time.Millisecond,
		receiptPoll: time.Duration(cfg.ReceiptPollMs) * time.Millisecond,
		addrCache:   cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:      logger.Named("CeloClient"),
	}, nil
}

// Network returns the network this client is connected to.
func (c *celoClient) Network() entity.Network {
	return c.network
}

// callContext wraps a raw RPC call with the client's rate limiter and
// per-call timeout.
func (c *celoClient) callContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.rpcClient.CallContext(callCtx, result, method, args...)
}

// contractCall executes an eth_call against the given contract and unpacks
// the named method's outputs.
func (c *celoClient) contractCall(ctx context.Context, abiName string, contract common.Address, method string, args ...interface{}) ([]interface{}, error) {
	parsed := parsedABIs[abiName]
	callData, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	output, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &contract, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, contract.Hex(), err)
	}
	unpacked, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return unpacked, nil
}

// coreContractAddress resolves a core-contract address through the on-chain
// registry, caching the result for the lifetime of the client.
func (c *celoClient) coreContractAddress(ctx context.Context, identifier string) (common.Address, error) {
	if cached, found := c.addrCache.Get(identifier); found {
		return cached.(common.Address), nil
	}

	unpacked, err := c.contractCall(ctx, "registry", RegistryAddress, "getAddressForString", identifier)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry lookup for %s failed: %w", identifier, err)
	}
	addr, ok := unpacked[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("registry lookup for %s returned unexpected type %T", identifier, unpacked[0])
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("registry has no address for %s", identifier)
	}

	c.addrCache.Set(identifier, addr, cache.NoExpiration)
	c.logger.Debug("Resolved core contract", zap.String("identifier", identifier), zap.String("address", addr.Hex()))
	return addr, nil
}

// EstimateGas estimates the gas needed to execute the draft transaction.
func (c *celoClient) EstimateGas(ctx context.Context, tx *entity.DraftTransaction) (*big.Int, error) {
	var result hexutil.Big
	if err := c.callContext(ctx, &result, "eth_estimateGas", txCallArg(tx)); err != nil {
		return nil, fmt.Errorf("gas estimation failed: %w", err)
	}
	return result.ToInt(), nil
}

// SuggestGasPrice returns the node's gas price denominated in the given fee
// currency. Celo's eth_gasPrice accepts an optional fee-currency argument.
func (c *celoClient) SuggestGasPrice(ctx context.Context, feeCurrency *common.Address) (*big.Int, error) {
	var result hexutil.Big
	var err error
	if feeCurrency == nil {
		err = c.callContext(ctx, &result, "eth_gasPrice")
	} else {
		err = c.callContext(ctx, &result, "eth_gasPrice", *feeCurrency)
	}
	if err != nil {
		return nil, fmt.Errorf("gas price query failed: %w", err)
	}
	return result.ToInt(), nil
}

// NativeBalance fetches the CELO balance of a wallet.
func (c *celoClient) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	balance, err := c.ethClient.BalanceAt(callCtx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance query for %s failed: %w", owner.Hex(), err)
	}
	return balance, nil
}

// TokenBalance fetches the stable-token balance of a wallet.
func (c *celoClient) TokenBalance(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	unpacked, err := c.contractCall(ctx, "erc20", token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned unexpected type %T", unpacked[0])
	}
	return balance, nil
}

// MedianRate fetches the oracle price ratio for a whitelisted token.
func (c *celoClient) MedianRate(ctx context.Context, token common.Address) (*entity.OracleRate, error) {
	oracles, err := c.coreContractAddress(ctx, sortedOraclesContract)
	if err != nil {
		return nil, err
	}
	unpacked, err := c.contractCall(ctx, "oracles", oracles, "medianRate", token)
	if err != nil {
		return nil, err
	}
	if len(unpacked) != 2 {
		return nil, fmt.Errorf("medianRate returned %d values, want 2", len(unpacked))
	}
	numerator, okN := unpacked[0].(*big.Int)
	denominator, okD := unpacked[1].(*big.Int)
	if !okN || !okD {
		return nil, fmt.Errorf("medianRate returned unexpected types %T, %T", unpacked[0], unpacked[1])
	}
	return &entity.OracleRate{Numerator: numerator, Denominator: denominator}, nil
}

// FeeCurrencyWhitelist returns the on-chain ordered list of fee-currency
// token addresses.
func (c *celoClient) FeeCurrencyWhitelist(ctx context.Context) ([]common.Address, error) {
	whitelist, err := c.coreContractAddress(ctx, feeCurrencyWhitelistContract)
	if err != nil {
		return nil, err
	}
	unpacked, err := c.contractCall(ctx, "whitelist", whitelist, "getWhitelist")
	if err != nil {
		return nil, err
	}
	addresses, ok := unpacked[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("getWhitelist returned unexpected type %T", unpacked[0])
	}
	return addresses, nil
}

// SendTransaction signs the draft with the given key and broadcasts it.
func (c *celoClient) SendTransaction(ctx context.Context, tx *entity.DraftTransaction, key *entity.KeyPair) (common.Hash, error) {
	if tx.From == nil || tx.GasLimit == nil || tx.GasPrice == nil {
		return common.Hash{}, fmt.Errorf("draft transaction is missing from, gasLimit or gasPrice")
	}

	nonce := uint64(0)
	if tx.Nonce != nil {
		nonce = *tx.Nonce
	} else {
		if err := c.limiter.Wait(ctx); err != nil {
			return common.Hash{}, err
		}
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		pending, err := c.ethClient.PendingNonceAt(callCtx, *tx.From)
		cancel()
		if err != nil {
			return common.Hash{}, fmt.Errorf("nonce query failed: %w", err)
		}
		nonce = pending
	}

	value := big.NewInt(0)
	if tx.Value != nil {
		value = tx.Value
	}
	gatewayFee := big.NewInt(0)
	if tx.GatewayFee != nil {
		gatewayFee = tx.GatewayFee
	}

	signed := &celoTx{
		Nonce:               nonce,
		GasPrice:            tx.GasPrice,
		Gas:                 tx.GasLimit.Uint64(),
		FeeCurrency:         tx.FeeCurrency,
		GatewayFeeRecipient: tx.GatewayFeeRecipient,
		GatewayFee:          gatewayFee,
		To:                  tx.To,
		Value:               value,
		Data:                tx.Data,
	}
	if err := signed.sign(big.NewInt(int64(c.network.ChainIDDecimal)), key.PrivateKey); err != nil {
		return common.Hash{}, err
	}

	raw, err := signed.encode()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode transaction: %w", err)
	}

	var txHash common.Hash
	if err := c.callContext(ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, classifySendError(err)
	}

	c.logger.Info("Transaction broadcast",
		zap.String("hash", txHash.Hex()),
		zap.String("network", c.network.Identifier))
	return txHash, nil
}

// WaitMined polls for the receipt of the broadcast transaction until it is
// mined or ctx expires.
func (c *celoClient) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		receipt, err := c.ethClient.TransactionReceipt(callCtx, txHash)
		cancel()

		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Warn("Receipt query failed, retrying", zap.String("hash", txHash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// classifySendError tags node-side balance shortfalls so callers can match
// on the error type instead of probing message strings.
func classifySendError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "insufficient funds") {
		return &entity.InsufficientFundsError{Cause: err}
	}
	return err
}

// txCallArg converts a draft transaction into the JSON-RPC call argument
// shape. Empty fields are omitted entirely; in particular a zero value must
// not appear in the outgoing payload.
func txCallArg(tx *entity.DraftTransaction) map[string]interface{} {
	arg := map[string]interface{}{}
	if tx.From != nil {
		arg["from"] = *tx.From
	}
	if tx.To != nil {
		arg["to"] = *tx.To
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(tx.Value)
	}
	if len(tx.Data) > 0 {
		arg["data"] = tx.Data
	}
	if tx.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(tx.GasPrice)
	}
	if tx.FeeCurrency != nil {
		arg["feeCurrency"] = *tx.FeeCurrency
	}
	if tx.GatewayFeeRecipient != nil {
		arg["gatewayFeeRecipient"] = *tx.GatewayFeeRecipient
	}
	if tx.GatewayFee != nil && tx.GatewayFee.Sign() > 0 {
		arg["gatewayFee"] = (*hexutil.Big)(tx.GatewayFee)
	}
	return arg
}
