// Package signer manages the locally configured accounts and derives signing
// keys for transaction submission.
package signer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/port"
)

// MaxSearchDepth bounds how many configured accounts are scanned when
// matching a requested sender address.
const MaxSearchDepth = 50

type accountSigner struct {
	accounts []*entity.KeyPair
	logger   *zap.Logger
}

// NewSigner parses the configured private keys and returns a signer backed
// by them. At least one account is required.
func NewSigner(privateKeys []string, logger *zap.Logger) (port.Signer, error) {
	if len(privateKeys) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}

	accounts := make([]*entity.KeyPair, 0, len(privateKeys))
	for i, hexKey := range privateKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key at index %d: %w", i, err)
		}
		accounts = append(accounts, &entity.KeyPair{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			PrivateKey: key,
			PublicKey:  crypto.FromECDSAPub(&key.PublicKey),
		})
	}

	logger = logger.Named("Signer")
	logger.Info("Loaded signing accounts", zap.Int("count", len(accounts)))
	return &accountSigner{accounts: accounts, logger: logger}, nil
}

// DeriveKeyPair returns the key pair for the requested address, or the
// default account when address is nil.
func (s *accountSigner) DeriveKeyPair(address *common.Address) (*entity.KeyPair, error) {
	if address == nil {
		return s.accounts[0], nil
	}

	depth := len(s.accounts)
	if depth > MaxSearchDepth {
		depth = MaxSearchDepth
	}
	for i := 0; i < depth; i++ {
		if s.accounts[i].Address == *address {
			return s.accounts[i], nil
		}
	}
	return nil, fmt.Errorf("unable to locate private key for account %s", address.Hex())
}
