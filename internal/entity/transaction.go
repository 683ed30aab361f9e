package entity

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DraftTransaction is a pending transaction as received from the caller.
// Optional fields are nil until the orchestrator normalizes or fills them.
// A nil FeeCurrency means the transaction pays gas in native CELO.
type DraftTransaction struct {
	From                *common.Address
	To                  *common.Address
	Nonce               *uint64
	GasLimit            *big.Int
	GasPrice            *big.Int
	Data                hexutil.Bytes
	Value               *big.Int
	ChainID             *big.Int
	FeeCurrency         *common.Address
	GatewayFeeRecipient *common.Address
	GatewayFee          *big.Int
}

// KeyPair is the signing identity returned by the signer collaborator.
type KeyPair struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte
}

// SubmissionResult carries the outcome of a successfully mined transaction.
type SubmissionResult struct {
	TxHash      common.Hash `json:"txHash"`
	ExplorerURL string      `json:"explorerUrl"`
}
