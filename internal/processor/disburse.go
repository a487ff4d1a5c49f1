package processor

import (
	"context"
	"log/slog"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/token"
)

// disburse moves value out of the tier's allowed treasury source. No ledger
// record is written.
func (p *Processor) disburse(ctx context.Context, it *cell.Iterator, cmd Disburse) error {
	accounts, err := it.NextN(4)
	if err != nil {
		return err
	}
	service, source, destination, authority := accounts[0], accounts[1], accounts[2], accounts[3]

	if err := p.treasury.Check(cmd.Tier, source.Address); err != nil {
		return err
	}
	if err := cell.RequireSigner(authority); err != nil {
		return err
	}
	if err := p.requireService(service); err != nil {
		return err
	}
	if err := p.transfer(ctx, token.TransferRequest{
		Service:   service.Address,
		From:      source,
		To:        destination,
		Authority: authority,
		Amount:    cmd.Amount,
	}); err != nil {
		return err
	}

	slog.Debug("disbursed",
		"tier", cmd.Tier,
		"source", source.Address.String(),
		"destination", destination.Address.String(),
		"amount", cmd.Amount,
	)
	return nil
}
