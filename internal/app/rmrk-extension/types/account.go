package types

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const AccountIDSize = 32

// AccountID identifies an account or a deployed program on the ledger.
type AccountID [AccountIDSize]byte

// NewAccountID derives a deterministic account id from a seed. Used for fixtures and well known test accounts.
func NewAccountID(seed string) AccountID {
	return AccountID(chainhash.HashH([]byte(seed)))
}

func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDSize {
		return id, fmt.Errorf("invalid account id length: %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseAccountID parses the base58 form produced by AccountID.String.
func ParseAccountID(s string) (AccountID, error) {
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return AccountID{}, fmt.Errorf("invalid base58 account id: %q", s)
	}
	return AccountIDFromBytes(decoded)
}

func (a AccountID) String() string {
	return base58.Encode(a[:])
}

func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDSize)
	copy(b, a[:])
	return b
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) Equal(other AccountID) bool {
	return bytes.Equal(a[:], other[:])
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// CallContext is what a program presents to the extension when it calls it: the identity the engine
// authorizes the operation against. For a contract that is the contract's own account.
type CallContext struct {
	Caller AccountID
}
