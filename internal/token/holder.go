// Package token is the in-process value-transfer service.
//
// It moves fungible balances between holder cells it owns. The ledger
// processor treats it as an external collaborator reached through
// processor.Transferrer; the host also routes the service's own commands
// to Program.Process.
//
// Holder layout: [0x03][authority 32B][balance u64].
package token

import (
	"github.com/roach88/fundledger/internal/codec"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// KindHolder is the record kind byte of a holder cell.
const KindHolder byte = 0x03

// HolderSize is the encoded size of a Holder and the capacity of holder cells.
const HolderSize = 1 + ident.Size + 8

// Holder is a fungible balance controlled by Authority.
type Holder struct {
	Authority ident.Identity `json:"authority"`
	Balance   uint64         `json:"balance"`
}

// Encode returns the canonical layout of h.
func (h Holder) Encode() []byte {
	w := codec.NewWriter(HolderSize)
	w.PutUint8(KindHolder)
	w.PutIdentity(h.Authority)
	w.PutUint64(h.Balance)
	return w.Bytes()
}

func parseHolder(r *codec.Reader) (any, error) {
	return Holder{Authority: r.ReadIdentity(), Balance: r.ReadUint64()}, nil
}

// HolderSchema is the holder record schema, for callers that decode any cell.
func HolderSchema() codec.Schema {
	return codec.Tagged("holder", KindHolder, parseHolder)
}

var holders = codec.NewDecoder(codec.AllowPadding, HolderSchema())

// DecodeHolder decodes holder cell contents.
func DecodeHolder(data []byte) (Holder, error) {
	m, err := holders.Decode(data)
	if err != nil {
		return Holder{}, err
	}
	h, ok := m.Value.(Holder)
	if !ok {
		return Holder{}, fault.New(fault.DecodeFailure, "cell holds %s, not holder", m.Schema)
	}
	return h, nil
}
