package processor

import (
	"context"
	"log/slog"
	"math"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/token"
)

// InvestmentAddress returns the cell address that records investor's
// cumulative investment in the organization at org.
func (p *Processor) InvestmentAddress(investor, org ident.Identity) (ident.Identity, error) {
	return ident.Derive(investor, ident.InvestmentSeed(org), p.id)
}

// invest transfers value and records it. The order is fixed: transfer,
// organization total, investor record.
func (p *Processor) invest(ctx context.Context, it *cell.Iterator, cmd Invest) error {
	accounts, err := it.NextN(6)
	if err != nil {
		return err
	}
	caller, orgCell, investorCell := accounts[0], accounts[1], accounts[2]
	source, destination, service := accounts[3], accounts[4], accounts[5]

	// Validate the organization.
	org, err := ledger.DecodeOrganization(orgCell.Data())
	if err != nil {
		return fault.Wrap(fault.DecodeFailure, err, "organization cell holds no organization").WithAccount(orgCell.Address)
	}
	if err := cell.RequireOwner(orgCell, p.id); err != nil {
		return err
	}
	if org.Name != cmd.OrganizationName || org.GroupingID != cmd.GroupingID {
		return fault.New(fault.InvalidArgument,
			"command names organization %q/%q, cell holds %q/%q",
			cmd.OrganizationName, cmd.GroupingID, org.Name, org.GroupingID).WithAccount(orgCell.Address)
	}

	// Validate the investor cell.
	if err := cell.RequireOwner(investorCell, p.id); err != nil {
		return err
	}
	if investorCell.Address == orgCell.Address {
		return fault.New(fault.AuthorizationMismatch,
			"investor cell is the organization cell").WithAccount(investorCell.Address)
	}
	if err := ident.VerifyDerived(investorCell.Address, caller.Address, ident.InvestmentSeed(orgCell.Address), p.id); err != nil {
		return err
	}

	if org.TotalInvestment > math.MaxUint64-cmd.Amount {
		return fault.New(fault.InvalidArgument, "organization total overflows").WithAccount(orgCell.Address)
	}

	// Validate the transfer accounts, then transfer.
	if err := cell.RequireSigner(caller); err != nil {
		return err
	}
	if err := p.requireService(service); err != nil {
		return err
	}
	if err := cell.RequireOwner(source, p.service); err != nil {
		return err
	}
	if err := cell.RequireOwner(destination, p.service); err != nil {
		return err
	}
	if err := p.transfer(ctx, token.TransferRequest{
		Service:   service.Address,
		From:      source,
		To:        destination,
		Authority: caller,
		Amount:    cmd.Amount,
	}); err != nil {
		return err
	}

	org.TotalInvestment += cmd.Amount
	if err := orgCell.Overwrite(p.id, org.Encode()); err != nil {
		return err
	}

	// Investor record.
	var record ledger.Investment
	if investorCell.Kind() == ledger.KindUninitialized {
		record = ledger.Investment{
			Investor:         caller.Address.String(),
			Amount:           cmd.Amount,
			GroupingID:       cmd.GroupingID,
			OrganizationName: cmd.OrganizationName,
		}
	} else {
		record, err = ledger.DecodeInvestment(investorCell.Data())
		if err != nil {
			return fault.Wrap(fault.DecodeFailure, err, "investor cell holds no investment").WithAccount(investorCell.Address)
		}
		if record.Amount > math.MaxUint64-cmd.Amount {
			return fault.New(fault.InvalidArgument, "investment amount overflows").WithAccount(investorCell.Address)
		}
		record.Amount += cmd.Amount
	}
	if err := investorCell.Overwrite(p.id, record.Encode()); err != nil {
		return err
	}

	slog.Debug("investment recorded",
		"organization", orgCell.Address.String(),
		"investor", caller.Address.String(),
		"amount", cmd.Amount,
		"organization_total", org.TotalInvestment,
		"investor_total", record.Amount,
	)
	return nil
}
