package runtime

import (
	"crypto/ed25519"

	"github.com/roach88/fundledger/internal/codec"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// AccountMeta declares one account a transaction executes against.
type AccountMeta struct {
	Address  ident.Identity `json:"address"`
	Signer   bool           `json:"signer"`
	Writable bool           `json:"writable"`
}

// CellInit asks the host to create the ledger cell derived from Authority
// and Seed before the command runs, if it does not exist yet. Authority must
// be a declared signer and the derived address a declared writable account.
type CellInit struct {
	Authority ident.Identity `json:"authority"`
	Seed      string         `json:"seed"`
}

// Transaction is one signed command addressed to a program.
//
// Signatures are keyed by signer identity and cover Message(). JSON encodes
// identities as base58 and byte slices as base64. Create is not part of the
// message; each entry is bound by its signer and writable account instead.
type Transaction struct {
	Program    ident.Identity            `json:"program"`
	Accounts   []AccountMeta             `json:"accounts"`
	Payload    []byte                    `json:"payload"`
	Create     []CellInit                `json:"create,omitempty"`
	Signatures map[ident.Identity][]byte `json:"signatures,omitempty"`
}

const (
	flagSigner   = 1 << 0
	flagWritable = 1 << 1
)

// Message returns the canonical bytes signers sign:
//
//	[program 32B][u32 n][n × (address 32B, flags u8)][u32 len][payload]
func (tx *Transaction) Message() []byte {
	w := codec.NewWriter(ident.Size + 4 + len(tx.Accounts)*(ident.Size+1) + 4 + len(tx.Payload))
	w.PutIdentity(tx.Program)
	w.PutUint32(uint32(len(tx.Accounts)))
	for _, a := range tx.Accounts {
		w.PutIdentity(a.Address)
		var flags uint8
		if a.Signer {
			flags |= flagSigner
		}
		if a.Writable {
			flags |= flagWritable
		}
		w.PutUint8(flags)
	}
	w.PutBytes(tx.Payload)
	return w.Bytes()
}

// Sign adds key's signature over Message().
func (tx *Transaction) Sign(key ed25519.PrivateKey) {
	if tx.Signatures == nil {
		tx.Signatures = make(map[ident.Identity][]byte)
	}
	signer := ident.FromPublicKey(key.Public().(ed25519.PublicKey))
	tx.Signatures[signer] = ed25519.Sign(key, tx.Message())
}

// Verify checks a valid signature exists for every account declared as a
// signer. Signatures from undeclared keys are ignored.
func (tx *Transaction) Verify() error {
	msg := tx.Message()
	for _, a := range tx.Accounts {
		if !a.Signer {
			continue
		}
		sig, ok := tx.Signatures[a.Address]
		if !ok {
			return fault.New(fault.MissingAuthentication, "no signature").WithAccount(a.Address)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(a.Address.PublicKey(), msg, sig) {
			return fault.New(fault.MissingAuthentication, "invalid signature").WithAccount(a.Address)
		}
	}
	return nil
}

// declared reports the union of the flags addr is declared with.
func (tx *Transaction) declared(addr ident.Identity) (signer, writable bool) {
	for _, a := range tx.Accounts {
		if a.Address == addr {
			signer = signer || a.Signer
			writable = writable || a.Writable
		}
	}
	return signer, writable
}

// Addresses returns the account addresses in declared order.
func (tx *Transaction) Addresses() []string {
	out := make([]string, len(tx.Accounts))
	for i, a := range tx.Accounts {
		out[i] = a.Address.String()
	}
	return out
}
