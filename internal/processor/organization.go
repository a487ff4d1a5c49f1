package processor

import (
	"log/slog"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
)

// OrganizationAddress returns the cell address an organization named name,
// created by owner, lives at.
func (p *Processor) OrganizationAddress(owner ident.Identity, name string) (ident.Identity, error) {
	return ident.Derive(owner, name, p.id)
}

// createOrganization writes a fresh organization record.
//
// Creating again with the same owner and name overwrites the earlier record,
// total included.
func (p *Processor) createOrganization(it *cell.Iterator, cmd CreateOrganization) error {
	accounts, err := it.NextN(2)
	if err != nil {
		return err
	}
	owner, org := accounts[0], accounts[1]

	if err := cell.RequireSigner(owner); err != nil {
		return err
	}
	if err := ledger.ValidateNames(cmd.Name, cmd.GroupingID); err != nil {
		return err
	}
	if _, err := ident.Parse(cmd.Owner); err != nil {
		return fault.Wrap(fault.InvalidArgument, err, "owner is not an identity")
	}
	if err := ident.VerifyDerived(org.Address, owner.Address, cmd.Name, p.id); err != nil {
		return err
	}

	record := ledger.Organization{
		Owner:      cmd.Owner,
		Name:       cmd.Name,
		GroupingID: cmd.GroupingID,
		Quorum:     cmd.Quorum,
	}
	if err := org.Overwrite(p.id, record.Encode()); err != nil {
		return err
	}

	slog.Debug("organization written",
		"address", org.Address.String(),
		"name", cmd.Name,
		"quorum", cmd.Quorum,
	)
	return nil
}
