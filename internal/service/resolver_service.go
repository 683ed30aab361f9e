package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/celo-org/gas-snap/internal/config"
	"github.com/celo-org/gas-snap/internal/currency"
	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/pkg/metrics"
	"github.com/celo-org/gas-snap/internal/port"
)

// SafetyMultiplier pads the gas estimate so a balance that barely covers the
// estimate is not selected only to fail once the real cost lands higher.
const SafetyMultiplier = 5

const (
	whitelistCacheKey = "feeCurrencyWhitelist"
	rateCachePrefix   = "medianRate:"
)

// feeCurrencyResolverImpl implements the FeeCurrencyResolver interface.
type feeCurrencyResolverImpl struct {
	chain  port.ChainClient
	cfg    *config.Config
	cache  *cache.Cache
	logger *zap.Logger
}

// NewFeeCurrencyResolver creates a new instance of FeeCurrencyResolver.
func NewFeeCurrencyResolver(chain port.ChainClient, cfg *config.Config, logger *zap.Logger) port.FeeCurrencyResolver {
	return &feeCurrencyResolverImpl{
		chain:  chain,
		cfg:    cfg,
		cache:  cache.New(time.Duration(cfg.Resolver.RateCacheTTLSeconds)*time.Second, 10*time.Minute),
		logger: logger.Named("FeeCurrencyResolver"),
	}
}

// ResolveOptimalFeeCurrency picks the fee currency the payer can best afford.
// It returns nil when the native CELO balance covers the padded gas cost plus
// the transferred value, otherwise the whitelisted token with the highest
// CELO-converted balance.
func (s *feeCurrencyResolverImpl) ResolveOptimalFeeCurrency(ctx context.Context, tx *entity.DraftTransaction, payer common.Address) (*common.Address, error) {
	network := s.chain.Network()

	gasEstimate, err := s.chain.EstimateGas(ctx, tx)
	if err != nil {
		metrics.ResolutionErrors.WithLabelValues(network.Identifier).Inc()
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	requiredNative := new(big.Int).Mul(gasEstimate, big.NewInt(SafetyMultiplier))
	if tx.Value != nil {
		requiredNative.Add(requiredNative, tx.Value)
	}

	nativeBalance, err := s.chain.NativeBalance(ctx, payer)
	if err != nil {
		metrics.ResolutionErrors.WithLabelValues(network.Identifier).Inc()
		return nil, fmt.Errorf("failed to fetch native balance: %w", err)
	}

	if requiredNative.Cmp(nativeBalance) < 0 {
		s.logger.Debug("Native balance covers transaction, paying gas in CELO",
			zap.String("payer", payer.Hex()),
			zap.String("required", requiredNative.String()),
			zap.String("balance", nativeBalance.String()))
		metrics.ResolutionsTotal.WithLabelValues(network.Identifier, string(entity.CurrencyCelo)).Inc()
		return nil, nil
	}

	whitelist, err := s.feeCurrencyWhitelist(ctx)
	if err != nil {
		metrics.ResolutionErrors.WithLabelValues(network.Identifier).Inc()
		return nil, fmt.Errorf("failed to fetch fee currency whitelist: %w", err)
	}
	if len(whitelist) == 0 {
		s.logger.Warn("Fee currency whitelist is empty, falling back to CELO",
			zap.String("network", network.Identifier))
		metrics.ResolutionsTotal.WithLabelValues(network.Identifier, string(entity.CurrencyCelo)).Inc()
		return nil, nil
	}

	tokens := s.fetchTokenInfos(ctx, whitelist, payer)

	best := tokens[0]
	for _, token := range tokens[1:] {
		if token.Value.Cmp(best.Value) > 0 {
			best = token
		}
	}

	s.logger.Info("Resolved optimal fee currency",
		zap.String("payer", payer.Hex()),
		zap.String("feeCurrency", best.Address.Hex()),
		zap.String("convertedValue", best.Value.String()))

	selected := best.Address
	metrics.ResolutionsTotal.WithLabelValues(network.Identifier, s.currencyLabel(&selected)).Inc()
	return &selected, nil
}

// fetchTokenInfos fetches the oracle rate and payer balance for every
// whitelisted token concurrently. A token whose rate or balance cannot be
// fetched keeps a converted value of zero so the remaining candidates still
// compete.
func (s *feeCurrencyResolverImpl) fetchTokenInfos(ctx context.Context, whitelist []common.Address, payer common.Address) []*entity.TokenInfo {
	tokens := make([]*entity.TokenInfo, len(whitelist))
	for i, addr := range whitelist {
		tokens[i] = &entity.TokenInfo{Address: addr, Value: big.NewInt(0)}
	}

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Resolver.MaxConcurrentFetches)

	for i := range tokens {
		token := tokens[i]
		eg.Go(func() error {
			rateValue, err := s.medianRate(childCtx, token.Address)
			if err != nil {
				s.logger.Warn("Failed to fetch oracle rate, excluding token from selection",
					zap.String("token", token.Address.Hex()), zap.Error(err))
				metrics.TokenFetchFailures.WithLabelValues(s.chain.Network().Identifier).Inc()
				return nil
			}
			token.Rate = rateValue
			return nil
		})
		eg.Go(func() error {
			balance, err := s.chain.TokenBalance(childCtx, token.Address, payer)
			if err != nil {
				s.logger.Warn("Failed to fetch token balance, excluding token from selection",
					zap.String("token", token.Address.Hex()), zap.Error(err))
				metrics.TokenFetchFailures.WithLabelValues(s.chain.Network().Identifier).Inc()
				return nil
			}
			token.Balance = balance
			return nil
		})
	}
	// Goroutines report failures as zero-valued tokens, so Wait only
	// surfaces context cancellation.
	if err := eg.Wait(); err != nil {
		s.logger.Warn("Token info fan-out interrupted", zap.Error(err))
	}

	for _, token := range tokens {
		token.Value = convertedValue(token)
	}
	return tokens
}

// convertedValue expresses a token balance in CELO terms. The oracle ratio is
// reduced by integer division before multiplying, so rates below one CELO per
// token truncate to zero.
func convertedValue(token *entity.TokenInfo) *big.Int {
	if token.Balance == nil || token.Rate == nil {
		return big.NewInt(0)
	}
	if token.Rate.Denominator == nil || token.Rate.Denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	ratio := new(big.Int).Div(token.Rate.Numerator, token.Rate.Denominator)
	return new(big.Int).Mul(token.Balance, ratio)
}

func (s *feeCurrencyResolverImpl) feeCurrencyWhitelist(ctx context.Context) ([]common.Address, error) {
	if cached, found := s.cache.Get(whitelistCacheKey); found {
		return cached.([]common.Address), nil
	}
	whitelist, err := s.chain.FeeCurrencyWhitelist(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(whitelistCacheKey, whitelist, time.Duration(s.cfg.Resolver.WhitelistCacheTTLSeconds)*time.Second)
	return whitelist, nil
}

func (s *feeCurrencyResolverImpl) medianRate(ctx context.Context, token common.Address) (*entity.OracleRate, error) {
	key := rateCachePrefix + token.Hex()
	if cached, found := s.cache.Get(key); found {
		return cached.(*entity.OracleRate), nil
	}
	rateValue, err := s.chain.MedianRate(ctx, token)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, rateValue, time.Duration(s.cfg.Resolver.RateCacheTTLSeconds)*time.Second)
	return rateValue, nil
}

func (s *feeCurrencyResolverImpl) currencyLabel(address *common.Address) string {
	name, err := currency.NameFromAddress(address, s.chain.Network())
	if err != nil {
		return "unknown"
	}
	return string(name)
}
