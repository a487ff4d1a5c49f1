package processor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/token"
	"github.com/roach88/fundledger/internal/treasury"
)

// Transferrer is the value-transfer service the processor invokes.
// token.Program is the in-process implementation.
type Transferrer interface {
	Transfer(ctx context.Context, req token.TransferRequest) error
}

// Config wires a Processor.
type Config struct {
	// ID is the processor's own program identity. Ledger cells must be owned by it.
	ID ident.Identity

	// TokenService is the identity the transfer-service account must carry.
	TokenService ident.Identity

	// Transfers performs value transfers.
	Transfers Transferrer

	// Treasury is the disbursement allow-list. Nil means treasury.Default().
	Treasury *treasury.AllowList
}

// Processor executes ledger commands. It is stateless between calls.
type Processor struct {
	id        ident.Identity
	service   ident.Identity
	transfers Transferrer
	treasury  *treasury.AllowList
}

// New validates cfg and returns a Processor.
func New(cfg Config) (*Processor, error) {
	if cfg.ID.IsZero() {
		return nil, errors.New("processor: program id is required")
	}
	if cfg.TokenService.IsZero() {
		return nil, errors.New("processor: token service id is required")
	}
	if cfg.Transfers == nil {
		return nil, errors.New("processor: transferrer is required")
	}
	allow := cfg.Treasury
	if allow == nil {
		allow = treasury.Default()
	}
	return &Processor{
		id:        cfg.ID,
		service:   cfg.TokenService,
		transfers: cfg.Transfers,
		treasury:  allow,
	}, nil
}

// ID returns the processor's program identity.
func (p *Processor) ID() ident.Identity {
	return p.id
}

// TokenService returns the configured value-transfer service identity.
func (p *Processor) TokenService() ident.Identity {
	return p.service
}

// Treasury returns the allow-list consulted by disburse.
func (p *Processor) Treasury() *treasury.AllowList {
	return p.treasury
}

// Process decodes payload and executes it against accounts.
//
// It returns the decoded command name, or "" when the payload did not decode.
// On error some cells may already be modified; callers must discard them.
func (p *Processor) Process(ctx context.Context, accounts []*cell.Cell, payload []byte) (string, error) {
	m, err := DecodeCommand(payload)
	if err != nil {
		return "", err
	}

	slog.Debug("processing command",
		"command", m.Schema,
		"accounts", len(accounts),
	)

	it := cell.Iter(accounts)
	switch cmd := m.Value.(type) {
	case CreateOrganization:
		return m.Schema, p.createOrganization(it, cmd)
	case Invest:
		return m.Schema, p.invest(ctx, it, cmd)
	case Disburse:
		return m.Schema, p.disburse(ctx, it, cmd)
	default:
		return m.Schema, fault.New(fault.DecodeFailure, "unhandled command %s", m.Schema)
	}
}

// transfer invokes the value-transfer service, mapping any failure to
// ExternalTransferFailure.
func (p *Processor) transfer(ctx context.Context, req token.TransferRequest) error {
	if err := p.transfers.Transfer(ctx, req); err != nil {
		return fault.Wrap(fault.ExternalTransferFailure, err, "transfer of %d", req.Amount)
	}
	return nil
}

// requireService checks the transfer-service account.
func (p *Processor) requireService(c *cell.Cell) error {
	if c.Address != p.service {
		return fault.New(fault.ExternalServiceIdentityMismatch,
			"transfer service is %s, got %s", p.service, c.Address).WithAccount(c.Address)
	}
	return nil
}
