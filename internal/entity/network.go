package entity

// Network holds the static metadata for a supported Celo network.
// Instances are immutable after configuration loading and safe to share.
type Network struct {
	Identifier     string `json:"identifier" yaml:"identifier"` // e.g. "alfajores", "mainnet"
	Name           string `json:"name" yaml:"name"`
	ChainIDHex     string `json:"chainIdHex" yaml:"chainIdHex"`
	ChainIDDecimal uint64 `json:"chainIdDecimal" yaml:"chainIdDecimal"`
	RPCURL         string `json:"rpcUrl" yaml:"rpcUrl"`
	ExplorerURL    string `json:"explorerUrl" yaml:"explorerUrl"`
}

// TxURL builds the block-explorer link for a mined transaction hash.
func (n Network) TxURL(txHash string) string {
	return n.ExplorerURL + "/tx/" + txHash
}
