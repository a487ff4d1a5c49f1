package token

import (
	"context"
	"math"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// TransferRequest moves Amount from From to To, authorized by Authority.
type TransferRequest struct {
	// Service is the identity of the value-transfer service being invoked.
	Service ident.Identity

	From      *cell.Cell
	To        *cell.Cell
	Authority *cell.Cell
	Amount    uint64
}

// Program is the value-transfer service.
type Program struct {
	id ident.Identity
}

// New creates the service with the given program identity.
func New(id ident.Identity) *Program {
	return &Program{id: id}
}

// ID returns the service's program identity.
func (p *Program) ID() ident.Identity {
	return p.id
}

// Transfer moves req.Amount between two holder cells.
//
// Every check runs before either cell is written, so a failed transfer
// leaves both holders untouched.
func (p *Program) Transfer(_ context.Context, req TransferRequest) error {
	if req.Service != p.id {
		return fault.New(fault.ExternalServiceIdentityMismatch,
			"transfer addressed to %s, service is %s", req.Service, p.id)
	}
	if req.From == nil || req.To == nil || req.Authority == nil {
		return fault.New(fault.InvalidArgument, "transfer needs from, to and authority cells")
	}

	from, err := p.loadHolder(req.From)
	if err != nil {
		return err
	}
	to, err := p.loadHolder(req.To)
	if err != nil {
		return err
	}

	if err := cell.RequireSigner(req.Authority); err != nil {
		return err
	}
	if from.Authority != req.Authority.Address {
		return fault.New(fault.AuthorizationMismatch,
			"holder is controlled by %s, not %s", from.Authority, req.Authority.Address).WithAccount(req.From.Address)
	}
	if from.Balance < req.Amount {
		return fault.New(fault.InvalidArgument,
			"insufficient funds: balance %d, transfer %d", from.Balance, req.Amount).WithAccount(req.From.Address)
	}

	// Self-transfer: validated, nothing moves.
	if req.From.Address == req.To.Address {
		return nil
	}

	if to.Balance > math.MaxUint64-req.Amount {
		return fault.New(fault.InvalidArgument, "balance overflow").WithAccount(req.To.Address)
	}

	from.Balance -= req.Amount
	to.Balance += req.Amount

	if err := req.From.Overwrite(p.id, from.Encode()); err != nil {
		return err
	}
	return req.To.Overwrite(p.id, to.Encode())
}

// loadHolder checks that c is a writable, initialized holder owned by p.
func (p *Program) loadHolder(c *cell.Cell) (Holder, error) {
	if err := cell.RequireOwner(c, p.id); err != nil {
		return Holder{}, err
	}
	if !c.Writable {
		return Holder{}, fault.New(fault.AuthorizationMismatch, "holder is not writable").WithAccount(c.Address)
	}
	if c.Capacity() < HolderSize {
		return Holder{}, fault.New(fault.CapacityExceeded,
			"holder cell holds %d bytes, need %d", c.Capacity(), HolderSize).WithAccount(c.Address)
	}
	h, err := DecodeHolder(c.Data())
	if err != nil {
		return Holder{}, err
	}
	return h, nil
}

// InitHolder writes an empty holder controlled by authority into an
// uninitialized cell owned by p.
func (p *Program) InitHolder(c *cell.Cell, authority ident.Identity) error {
	if err := cell.RequireOwner(c, p.id); err != nil {
		return err
	}
	if c.Initialized() {
		return fault.New(fault.InvalidArgument, "holder already initialized").WithAccount(c.Address)
	}
	return c.Overwrite(p.id, Holder{Authority: authority}.Encode())
}

// Mint credits amount to an initialized holder. It is a host operation used
// when seeding balances; no command reaches it.
func (p *Program) Mint(c *cell.Cell, amount uint64) error {
	h, err := p.loadHolder(c)
	if err != nil {
		return err
	}
	if h.Balance > math.MaxUint64-amount {
		return fault.New(fault.InvalidArgument, "balance overflow").WithAccount(c.Address)
	}
	h.Balance += amount
	return c.Overwrite(p.id, h.Encode())
}

// BalanceOf decodes the balance held in c.
func BalanceOf(c *cell.Cell) (uint64, error) {
	h, err := DecodeHolder(c.Data())
	if err != nil {
		return 0, err
	}
	return h.Balance, nil
}
