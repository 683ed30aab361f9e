package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/celo-org/gas-snap/internal/entity"
)

var (
	payerAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")

	cusdAddr  = common.HexToAddress("0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1")
	ceurAddr  = common.HexToAddress("0x10c892A6EC43a53E45D0B916B4b7D383B1b78C0F")
	crealAddr = common.HexToAddress("0xE4D517785D091D3c54818832dB6094bcc2744545")

	testWhitelist = []common.Address{cusdAddr, ceurAddr, crealAddr}

	// Oracle ratios: how much CELO one token unit is worth, times 100.
	testRates = map[common.Address]*entity.OracleRate{
		cusdAddr:  {Numerator: big.NewInt(100000), Denominator: big.NewInt(100)},
		ceurAddr:  {Numerator: big.NewInt(118000), Denominator: big.NewInt(100)},
		crealAddr: {Numerator: big.NewInt(19000), Denominator: big.NewInt(100)},
	}
)

func newResolverFixture(chain *fakeChainClient) *feeCurrencyResolverImpl {
	return NewFeeCurrencyResolver(chain, newTestConfig(), zap.NewNop()).(*feeCurrencyResolverImpl)
}

func stableChain(balances map[common.Address]*big.Int) *fakeChainClient {
	return &fakeChainClient{
		estimateGasFn: func(*entity.DraftTransaction) (*big.Int, error) {
			return big.NewInt(21000), nil
		},
		nativeBalanceFn: func(common.Address) (*big.Int, error) {
			// Too little CELO to cover gas*5 + value.
			return big.NewInt(100), nil
		},
		whitelistFn: func() ([]common.Address, error) {
			wl := make([]common.Address, len(testWhitelist))
			copy(wl, testWhitelist)
			return wl, nil
		},
		medianRateFn: func(token common.Address) (*entity.OracleRate, error) {
			if r, ok := testRates[token]; ok {
				return r, nil
			}
			return nil, fmt.Errorf("no oracle for %s", token.Hex())
		},
		tokenBalanceFn: func(token, _ common.Address) (*big.Int, error) {
			if b, ok := balances[token]; ok {
				return new(big.Int).Set(b), nil
			}
			return nil, fmt.Errorf("no balance for %s", token.Hex())
		},
	}
}

func TestResolvePrefersNativeWhenBalanceSuffices(t *testing.T) {
	chain := &fakeChainClient{
		estimateGasFn: func(*entity.DraftTransaction) (*big.Int, error) {
			return big.NewInt(21000), nil
		},
		nativeBalanceFn: func(common.Address) (*big.Int, error) {
			return big.NewInt(2001260000), nil
		},
	}
	resolver := newResolverFixture(chain)

	tx := &entity.DraftTransaction{Value: big.NewInt(1000000000)}
	addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), tx, payerAddr)
	require.NoError(t, err)

	// 21000*5 + 1000000000 = 1000105000 < 2001260000
	assert.Nil(t, addr)
}

func TestResolveSelectsHighestConvertedBalance(t *testing.T) {
	cases := []struct {
		name     string
		balances map[common.Address]*big.Int
		want     common.Address
	}{
		{
			// Equal balances: cEUR has the strongest rate (1180 vs 1000 vs 190).
			name: "equal balances",
			balances: map[common.Address]*big.Int{
				cusdAddr:  big.NewInt(100000),
				ceurAddr:  big.NewInt(100000),
				crealAddr: big.NewInt(100000),
			},
			want: ceurAddr,
		},
		{
			// 250000*1000 = 250000000 beats 100000*1180 = 118000000.
			name: "cusd heavy",
			balances: map[common.Address]*big.Int{
				cusdAddr:  big.NewInt(250000),
				ceurAddr:  big.NewInt(100000),
				crealAddr: big.NewInt(100000),
			},
			want: cusdAddr,
		},
		{
			// 700000*190 = 133000000 beats 100000*1180 = 118000000.
			name: "creal heavy",
			balances: map[common.Address]*big.Int{
				cusdAddr:  big.NewInt(100000),
				ceurAddr:  big.NewInt(100000),
				crealAddr: big.NewInt(700000),
			},
			want: crealAddr,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := newResolverFixture(stableChain(tc.balances))

			addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
			require.NoError(t, err)
			require.NotNil(t, addr)
			assert.Equal(t, tc.want, *addr)
		})
	}
}

func TestResolveTieBreaksOnFirstWhitelistEntry(t *testing.T) {
	// All converted values equal: 118000*1000 == 100000*1180 is false, so use
	// balances that make cusd and ceur tie exactly.
	balances := map[common.Address]*big.Int{
		cusdAddr:  big.NewInt(1180),
		ceurAddr:  big.NewInt(1000),
		crealAddr: big.NewInt(0),
	}
	resolver := newResolverFixture(stableChain(balances))

	addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.NoError(t, err)
	require.NotNil(t, addr)

	// cusd: 1180*1000 == ceur: 1000*1180; the earlier whitelist entry wins.
	assert.Equal(t, cusdAddr, *addr)
}

func TestResolveFailedFetchDegradesToZero(t *testing.T) {
	balances := map[common.Address]*big.Int{
		cusdAddr:  big.NewInt(10),
		ceurAddr:  big.NewInt(1000000000),
		crealAddr: big.NewInt(10),
	}
	chain := stableChain(balances)
	// The richest token's balance read fails, so it must not win.
	inner := chain.tokenBalanceFn
	chain.tokenBalanceFn = func(token, owner common.Address) (*big.Int, error) {
		if token == ceurAddr {
			return nil, fmt.Errorf("rpc timeout")
		}
		return inner(token, owner)
	}
	resolver := newResolverFixture(chain)

	addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, cusdAddr, *addr)
}

func TestResolveAllFetchesFailedReturnsFirstEntry(t *testing.T) {
	chain := stableChain(nil)
	chain.medianRateFn = func(common.Address) (*entity.OracleRate, error) {
		return nil, fmt.Errorf("oracle unavailable")
	}
	chain.tokenBalanceFn = func(_, _ common.Address) (*big.Int, error) {
		return nil, fmt.Errorf("rpc unavailable")
	}
	resolver := newResolverFixture(chain)

	addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, testWhitelist[0], *addr)
}

func TestResolveDivisionHappensBeforeMultiplication(t *testing.T) {
	// 150/100 truncates to 1, so 1000*1 = 1000 rather than 1000*150/100 = 1500.
	token := &entity.TokenInfo{
		Address: cusdAddr,
		Balance: big.NewInt(1000),
		Rate:    &entity.OracleRate{Numerator: big.NewInt(150), Denominator: big.NewInt(100)},
	}
	assert.Equal(t, big.NewInt(1000), convertedValue(token))

	// A ratio below one truncates all the way to zero.
	token.Rate = &entity.OracleRate{Numerator: big.NewInt(99), Denominator: big.NewInt(100)}
	assert.Equal(t, big.NewInt(0), convertedValue(token))
}

func TestConvertedValueGuards(t *testing.T) {
	assert.Equal(t, big.NewInt(0), convertedValue(&entity.TokenInfo{Address: cusdAddr}))
	assert.Equal(t, big.NewInt(0), convertedValue(&entity.TokenInfo{
		Address: cusdAddr,
		Balance: big.NewInt(100),
		Rate:    &entity.OracleRate{Numerator: big.NewInt(1), Denominator: big.NewInt(0)},
	}))
}

func TestConvertedValueDoesNotMutateInputs(t *testing.T) {
	balance := big.NewInt(1000)
	numerator := big.NewInt(150)
	denominator := big.NewInt(100)
	token := &entity.TokenInfo{
		Address: cusdAddr,
		Balance: balance,
		Rate:    &entity.OracleRate{Numerator: numerator, Denominator: denominator},
	}
	convertedValue(token)

	assert.Equal(t, big.NewInt(1000), balance)
	assert.Equal(t, big.NewInt(150), numerator)
	assert.Equal(t, big.NewInt(100), denominator)
}

func TestResolveGasEstimateFailureIsFatal(t *testing.T) {
	chain := &fakeChainClient{
		estimateGasFn: func(*entity.DraftTransaction) (*big.Int, error) {
			return nil, fmt.Errorf("execution reverted")
		},
	}
	resolver := newResolverFixture(chain)

	_, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimate gas")
}

func TestResolveWhitelistFailureIsFatal(t *testing.T) {
	chain := stableChain(nil)
	chain.whitelistFn = func() ([]common.Address, error) {
		return nil, fmt.Errorf("registry unavailable")
	}
	resolver := newResolverFixture(chain)

	_, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whitelist")
}

func TestResolveEmptyWhitelistFallsBackToNative(t *testing.T) {
	chain := stableChain(nil)
	chain.whitelistFn = func() ([]common.Address, error) {
		return nil, nil
	}
	resolver := newResolverFixture(chain)

	addr, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestResolveCachesWhitelistAndRates(t *testing.T) {
	balances := map[common.Address]*big.Int{
		cusdAddr:  big.NewInt(100000),
		ceurAddr:  big.NewInt(100000),
		crealAddr: big.NewInt(100000),
	}
	chain := stableChain(balances)
	whitelistCalls := 0
	inner := chain.whitelistFn
	chain.whitelistFn = func() ([]common.Address, error) {
		whitelistCalls++
		return inner()
	}
	rateCalls := 0
	innerRate := chain.medianRateFn
	chain.medianRateFn = func(token common.Address) (*entity.OracleRate, error) {
		rateCalls++
		return innerRate(token)
	}
	resolver := newResolverFixture(chain)

	for i := 0; i < 3; i++ {
		_, err := resolver.ResolveOptimalFeeCurrency(context.Background(), &entity.DraftTransaction{}, payerAddr)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, whitelistCalls)
	assert.Equal(t, len(testWhitelist), rateCalls)
}
