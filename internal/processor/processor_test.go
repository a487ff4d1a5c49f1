package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/token"
	"github.com/roach88/fundledger/internal/treasury"
)

var (
	programID = ident.Identity{0xf0, 0x0d}
	serviceID = ident.Identity{0x70, 0x4e}

	owner    = ident.Identity{0x0a}
	investor = ident.Identity{0x11}
	other    = ident.Identity{0x22}
)

// fixture is a processor wired to an in-process token service.
type fixture struct {
	proc    *Processor
	tok     *token.Program
	service *cell.Cell
	next    byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tok := token.New(serviceID)
	proc, err := New(Config{ID: programID, TokenService: serviceID, Transfers: tok})
	require.NoError(t, err)
	return &fixture{
		proc:    proc,
		tok:     tok,
		service: cell.New(serviceID, ident.Zero, 0),
	}
}

// holder creates a funded holder at a fresh address.
func (f *fixture) holder(t *testing.T, authority ident.Identity, balance uint64) *cell.Cell {
	t.Helper()
	f.next++
	return f.holderAt(t, ident.Identity{0xc0, f.next}, authority, balance)
}

func (f *fixture) holderAt(t *testing.T, addr, authority ident.Identity, balance uint64) *cell.Cell {
	t.Helper()
	c := cell.New(addr, serviceID, token.HolderSize)
	c.Writable = true
	require.NoError(t, f.tok.InitHolder(c, authority))
	if balance > 0 {
		require.NoError(t, f.tok.Mint(c, balance))
	}
	return c
}

func ledgerCell(addr ident.Identity) *cell.Cell {
	c := cell.New(addr, programID, ledger.DefaultCapacity)
	c.Writable = true
	return c
}

func signer(addr ident.Identity) *cell.Cell {
	c := cell.New(addr, ident.Zero, 0)
	c.Signer = true
	return c
}

// createOrg runs create_organization and returns the organization cell.
func (f *fixture) createOrg(t *testing.T, by ident.Identity, name, grouping string, quorum uint8) *cell.Cell {
	t.Helper()
	addr, err := f.proc.OrganizationAddress(by, name)
	require.NoError(t, err)
	org := ledgerCell(addr)

	cmd := CreateOrganization{Name: name, GroupingID: grouping, Quorum: quorum, Owner: by.String()}
	got, err := f.proc.Process(context.Background(), []*cell.Cell{signer(by), org}, cmd.Encode())
	require.NoError(t, err)
	assert.Equal(t, CommandCreateOrganization, got)
	return org
}

func (f *fixture) investmentCell(t *testing.T, who ident.Identity, org *cell.Cell) *cell.Cell {
	t.Helper()
	addr, err := f.proc.InvestmentAddress(who, org.Address)
	require.NoError(t, err)
	return ledgerCell(addr)
}

// investAccounts returns the invest account list in its fixed order.
func (f *fixture) investAccounts(caller ident.Identity, org, inv, from, to *cell.Cell) []*cell.Cell {
	return []*cell.Cell{signer(caller), org, inv, from, to, f.service}
}

func orgRecord(t *testing.T, c *cell.Cell) ledger.Organization {
	t.Helper()
	org, err := ledger.DecodeOrganization(c.Data())
	require.NoError(t, err)
	return org
}

func investRecord(t *testing.T, c *cell.Cell) ledger.Investment {
	t.Helper()
	inv, err := ledger.DecodeInvestment(c.Data())
	require.NoError(t, err)
	return inv
}

func balance(t *testing.T, c *cell.Cell) uint64 {
	t.Helper()
	b, err := token.BalanceOf(c)
	require.NoError(t, err)
	return b
}

func TestNew_Validates(t *testing.T) {
	tok := token.New(serviceID)

	_, err := New(Config{TokenService: serviceID, Transfers: tok})
	assert.Error(t, err)
	_, err = New(Config{ID: programID, Transfers: tok})
	assert.Error(t, err)
	_, err = New(Config{ID: programID, TokenService: serviceID})
	assert.Error(t, err)

	p, err := New(Config{ID: programID, TokenService: serviceID, Transfers: tok})
	require.NoError(t, err)
	assert.Equal(t, programID, p.ID())
	assert.Equal(t, serviceID, p.TokenService())
	assert.True(t, p.Treasury().Collapsed(), "nil treasury falls back to the default list")
}

func TestProcess_UndecodablePayload(t *testing.T) {
	f := newFixture(t)
	valid := Disburse{Amount: 1, Tier: "prod"}.Encode()

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{0x09, 0, 0, 0, 0}},
		{"truncated", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte{}, valid...), 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := f.proc.Process(context.Background(), nil, tt.payload)
			assert.True(t, IsCode(err, fault.DecodeFailure), "got %v", err)
			assert.Empty(t, name)
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	cmds := []any{
		CreateOrganization{Name: "acme", GroupingID: "g-1", Quorum: 3, Owner: owner.String()},
		Invest{OrganizationName: "acme", GroupingID: "g-1", Amount: 100},
		Disburse{Amount: 7, Tier: "dev"},
	}
	for _, want := range cmds {
		var payload []byte
		switch c := want.(type) {
		case CreateOrganization:
			payload = c.Encode()
		case Invest:
			payload = c.Encode()
		case Disburse:
			payload = c.Encode()
		}
		m, err := DecodeCommand(payload)
		require.NoError(t, err)
		assert.Equal(t, want, m.Value)
	}
}

// recordingTransferrer records calls and fails with err when set.
type recordingTransferrer struct {
	calls int
	err   error
}

func (r *recordingTransferrer) Transfer(context.Context, token.TransferRequest) error {
	r.calls++
	return r.err
}

func TestTransfer_FailureMapsToExternalTransferFailure(t *testing.T) {
	sentinel := errors.New("service unavailable")
	rec := &recordingTransferrer{err: sentinel}
	proc, err := New(Config{ID: programID, TokenService: serviceID, Transfers: rec})
	require.NoError(t, err)

	service := cell.New(serviceID, ident.Zero, 0)
	source := cell.New(ident.MustParse(treasury.DefaultSource), serviceID, token.HolderSize)
	dest := cell.New(ident.Identity{0xde}, serviceID, token.HolderSize)

	_, err = proc.Process(context.Background(),
		[]*cell.Cell{service, source, dest, signer(owner)},
		Disburse{Amount: 5, Tier: "prod"}.Encode())

	assert.Equal(t, fault.ExternalTransferFailure, CodeOf(err))
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, rec.calls)
}
