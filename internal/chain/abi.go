package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the core-contract reads this service performs.
const (
	registryABI = `[{"constant":true,"inputs":[{"name":"identifier","type":"string"}],"name":"getAddressForString","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`

	sortedOraclesABI = `[{"constant":true,"inputs":[{"name":"token","type":"address"}],"name":"medianRate","outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

	feeCurrencyWhitelistABI = `[{"constant":true,"inputs":[],"name":"getWhitelist","outputs":[{"name":"","type":"address[]"}],"payable":false,"stateMutability":"view","type":"function"}]`

	erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`
)

var (
	parsedABIs     map[string]abi.ABI
	parsedABIsOnce sync.Once
)

func initParsedABIs() {
	parsedABIsOnce.Do(func() {
		parsedABIs = make(map[string]abi.ABI, 4)
		for name, raw := range map[string]string{
			"registry":  registryABI,
			"oracles":   sortedOraclesABI,
			"whitelist": feeCurrencyWhitelistABI,
			"erc20":     erc20ABI,
		} {
			parsed, err := abi.JSON(strings.NewReader(raw))
			if err != nil {
				panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
			}
			parsedABIs[name] = parsed
		}
	})
}
