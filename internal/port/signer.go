package port

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/celo-org/gas-snap/internal/entity"
)

// Signer defines the interface to the signing-key collaborator. Key
// derivation itself is opaque to this service.
type Signer interface {
	// DeriveKeyPair returns the signing identity for the given address, or
	// the default identity when address is nil. An address that no managed
	// key can sign for is an error.
	DeriveKeyPair(address *common.Address) (*entity.KeyPair, error)
}
