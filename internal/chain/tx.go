package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// celoTx is a Celo legacy transaction: the Ethereum legacy format extended
// with feeCurrency, gatewayFeeRecipient and gatewayFee between the gas and
// recipient fields.
type celoTx struct {
	Nonce               uint64
	GasPrice            *big.Int
	Gas                 uint64
	FeeCurrency         *common.Address `rlp:"nil"`
	GatewayFeeRecipient *common.Address `rlp:"nil"`
	GatewayFee          *big.Int
	To                  *common.Address `rlp:"nil"`
	Value               *big.Int
	Data                []byte

	// Signature values, EIP-155 encoded.
	V *big.Int
	R *big.Int
	S *big.Int
}

// celoTxSigning is the EIP-155 signing payload for celoTx: the nine body
// fields followed by (chainId, 0, 0).
type celoTxSigning struct {
	Nonce               uint64
	GasPrice            *big.Int
	Gas                 uint64
	FeeCurrency         *common.Address `rlp:"nil"`
	GatewayFeeRecipient *common.Address `rlp:"nil"`
	GatewayFee          *big.Int
	To                  *common.Address `rlp:"nil"`
	Value               *big.Int
	Data                []byte
	ChainID             *big.Int
	Zero1               uint
	Zero2               uint
}

// signingHash returns the digest the sender signs for the given chain id.
func (t *celoTx) signingHash(chainID *big.Int) (common.Hash, error) {
	payload := &celoTxSigning{
		Nonce:               t.Nonce,
		GasPrice:            t.GasPrice,
		Gas:                 t.Gas,
		FeeCurrency:         t.FeeCurrency,
		GatewayFeeRecipient: t.GatewayFeeRecipient,
		GatewayFee:          t.GatewayFee,
		To:                  t.To,
		Value:               t.Value,
		Data:                t.Data,
		ChainID:             chainID,
		Zero1:               0,
		Zero2:               0,
	}
	encoded, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode signing payload: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// sign populates V, R and S with an EIP-155 signature over the signing hash.
func (t *celoTx) sign(chainID *big.Int, key *ecdsa.PrivateKey) error {
	hash, err := t.signingHash(chainID)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	t.R = new(big.Int).SetBytes(sig[:32])
	t.S = new(big.Int).SetBytes(sig[32:64])
	// v = chainId*2 + 35 + recovery id
	t.V = new(big.Int).Add(
		new(big.Int).Mul(chainID, big.NewInt(2)),
		big.NewInt(int64(sig[64])+35),
	)
	return nil
}

// encode returns the raw RLP bytes ready for eth_sendRawTransaction.
func (t *celoTx) encode() ([]byte, error) {
	return rlp.EncodeToBytes(t)
}

// hash returns the transaction hash of the signed transaction.
func (t *celoTx) hash() (common.Hash, error) {
	encoded, err := t.encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// sender recovers the signing address from V, R and S. Used to verify the
// signature round-trip in tests.
func (t *celoTx) sender(chainID *big.Int) (common.Address, error) {
	hash, err := t.signingHash(chainID)
	if err != nil {
		return common.Address{}, err
	}

	recID := new(big.Int).Sub(t.V, new(big.Int).Mul(chainID, big.NewInt(2)))
	recID.Sub(recID, big.NewInt(35))

	sig := make([]byte, 65)
	t.R.FillBytes(sig[:32])
	t.S.FillBytes(sig[32:64])
	sig[64] = byte(recID.Uint64())

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover sender: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
