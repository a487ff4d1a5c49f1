package runtime

import (
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/token"
)

// CreateOrganizationTx builds an unsigned create_organization transaction.
// The derived organization cell is created when the transaction executes.
func (h *Host) CreateOrganizationTx(owner ident.Identity, cmd processor.CreateOrganization) (Transaction, error) {
	org, err := h.proc.OrganizationAddress(owner, cmd.Name)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Program: h.proc.ID(),
		Accounts: []AccountMeta{
			{Address: owner, Signer: true},
			{Address: org, Writable: true},
		},
		Payload: cmd.Encode(),
		Create:  []CellInit{{Authority: owner, Seed: cmd.Name}},
	}, nil
}

// InvestTx builds an unsigned invest transaction. The caller's investment
// cell for org is created when the transaction executes.
func (h *Host) InvestTx(caller, org, source, destination ident.Identity, cmd processor.Invest) (Transaction, error) {
	inv, err := h.proc.InvestmentAddress(caller, org)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Program: h.proc.ID(),
		Accounts: []AccountMeta{
			{Address: caller, Signer: true},
			{Address: org, Writable: true},
			{Address: inv, Writable: true},
			{Address: source, Writable: true},
			{Address: destination, Writable: true},
			{Address: h.token.ID()},
		},
		Payload: cmd.Encode(),
		Create:  []CellInit{{Authority: caller, Seed: ident.InvestmentSeed(org)}},
	}, nil
}

// DisburseTx builds an unsigned disburse transaction.
func (h *Host) DisburseTx(source, destination, authority ident.Identity, cmd processor.Disburse) Transaction {
	return Transaction{
		Program: h.proc.ID(),
		Accounts: []AccountMeta{
			{Address: h.token.ID()},
			{Address: source, Writable: true},
			{Address: destination, Writable: true},
			{Address: authority, Signer: true},
		},
		Payload: cmd.Encode(),
	}
}

// TransferTx builds an unsigned transfer addressed to the value-transfer
// service directly.
func (h *Host) TransferTx(from, to, authority ident.Identity, amount uint64) Transaction {
	return Transaction{
		Program: h.token.ID(),
		Accounts: []AccountMeta{
			{Address: from, Writable: true},
			{Address: to, Writable: true},
			{Address: authority, Signer: true},
		},
		Payload: token.TransferCommand{Amount: amount}.Encode(),
	}
}
