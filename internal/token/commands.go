package token

import (
	"context"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/codec"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// Command tags of the value-transfer service.
const (
	TagTransfer   byte = 0x01
	TagInitHolder byte = 0x02
)

// TransferCommand moves Amount. Accounts: [from, to, authority(signer)].
type TransferCommand struct {
	Amount uint64
}

// InitHolderCommand initializes a holder. Accounts: [holder].
type InitHolderCommand struct {
	Authority ident.Identity
}

// Encode returns the command payload.
func (c TransferCommand) Encode() []byte {
	w := codec.NewWriter(9)
	w.PutUint8(TagTransfer)
	w.PutUint64(c.Amount)
	return w.Bytes()
}

// Encode returns the command payload.
func (c InitHolderCommand) Encode() []byte {
	w := codec.NewWriter(1 + ident.Size)
	w.PutUint8(TagInitHolder)
	w.PutIdentity(c.Authority)
	return w.Bytes()
}

var commands = codec.NewDecoder(codec.Strict,
	codec.Tagged("transfer", TagTransfer, func(r *codec.Reader) (any, error) {
		return TransferCommand{Amount: r.ReadUint64()}, nil
	}),
	codec.Tagged("init_holder", TagInitHolder, func(r *codec.Reader) (any, error) {
		return InitHolderCommand{Authority: r.ReadIdentity()}, nil
	}),
)

// DecodeCommand decodes a value-transfer service payload.
func DecodeCommand(payload []byte) (codec.Match, error) {
	return commands.Decode(payload)
}

// Process executes one value-transfer service command against accounts.
// It returns the decoded command name for logging.
func (p *Program) Process(ctx context.Context, accounts []*cell.Cell, payload []byte) (string, error) {
	m, err := DecodeCommand(payload)
	if err != nil {
		return "", err
	}

	it := cell.Iter(accounts)
	switch cmd := m.Value.(type) {
	case TransferCommand:
		cells, err := it.NextN(3)
		if err != nil {
			return m.Schema, err
		}
		return m.Schema, p.Transfer(ctx, TransferRequest{
			Service:   p.id,
			From:      cells[0],
			To:        cells[1],
			Authority: cells[2],
			Amount:    cmd.Amount,
		})
	case InitHolderCommand:
		holder, err := it.Next()
		if err != nil {
			return m.Schema, err
		}
		return m.Schema, p.InitHolder(holder, cmd.Authority)
	default:
		return m.Schema, fault.New(fault.DecodeFailure, "unhandled command %s", m.Schema)
	}
}
