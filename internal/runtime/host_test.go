package runtime

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/metrics"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/testutil"
	"github.com/roach88/fundledger/internal/token"
)

var (
	programID = ident.Identity{0xf0, 0x01}
	serviceID = ident.Identity{0x70, 0x01}
)

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newHostOn(t *testing.T, st *store.Store) *Host {
	t.Helper()
	tok := token.New(serviceID)
	proc, err := processor.New(processor.Config{ID: programID, TokenService: serviceID, Transfers: tok})
	require.NoError(t, err)

	h, err := New(context.Background(), st, proc, tok,
		WithIDGenerator(testutil.NewSequentialIDs("")),
		WithMetrics(metrics.New()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return h
}

func newHost(t *testing.T) (*Host, *store.Store) {
	t.Helper()
	st := openStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	return newHostOn(t, st), st
}

// wallet returns a funded holder for name, controlled by name's key.
func wallet(t *testing.T, h *Host, name string, balance uint64) ident.Identity {
	t.Helper()
	ctx := context.Background()
	addr := testutil.Identity("holder/" + name)
	require.NoError(t, h.InitHolder(ctx, addr, testutil.Identity(name)))
	if balance > 0 {
		require.NoError(t, h.Mint(ctx, addr, balance))
	}
	return addr
}

func submit(t *testing.T, h *Host, tx Transaction, signers ...string) error {
	t.Helper()
	for _, s := range signers {
		tx.Sign(testutil.Key(s))
	}
	rec, err := h.Submit(context.Background(), tx)
	require.NotNil(t, rec, "execution must be recorded: %v", err)
	assert.NoError(t, rec.Verify())
	return err
}

func createOrg(t *testing.T, h *Host, owner, name, grouping string, quorum uint8) ident.Identity {
	t.Helper()
	tx, err := h.CreateOrganizationTx(testutil.Identity(owner), processor.CreateOrganization{
		Name:       name,
		GroupingID: grouping,
		Quorum:     quorum,
		Owner:      testutil.Identity(owner).String(),
	})
	require.NoError(t, err)
	require.NoError(t, submit(t, h, tx, owner))
	return tx.Accounts[1].Address
}

func investTx(t *testing.T, h *Host, who string, org, vault ident.Identity, amount uint64) Transaction {
	t.Helper()
	tx, err := h.InvestTx(testutil.Identity(who), org,
		testutil.Identity("holder/"+who), vault,
		processor.Invest{OrganizationName: "acme", GroupingID: "acme-fund", Amount: amount})
	require.NoError(t, err)
	return tx
}

func storedOrg(t *testing.T, h *Host, addr ident.Identity) ledger.Organization {
	t.Helper()
	c, err := h.Cell(context.Background(), addr)
	require.NoError(t, err)
	org, err := ledger.DecodeOrganization(c.Data())
	require.NoError(t, err)
	return org
}

func storedInvestment(t *testing.T, h *Host, investor string, org ident.Identity) ledger.Investment {
	t.Helper()
	addr, err := h.Processor().InvestmentAddress(testutil.Identity(investor), org)
	require.NoError(t, err)
	c, err := h.Cell(context.Background(), addr)
	require.NoError(t, err)
	inv, err := ledger.DecodeInvestment(c.Data())
	require.NoError(t, err)
	return inv
}

func balanceOf(t *testing.T, h *Host, addr ident.Identity) uint64 {
	t.Helper()
	b, err := h.Balance(context.Background(), addr)
	require.NoError(t, err)
	return b
}

func TestSubmit_AcmeScenario(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()

	vault := wallet(t, h, "O", 0)
	wallet(t, h, "I1", 1000)
	wallet(t, h, "I2", 1000)

	org := createOrg(t, h, "O", "acme", "acme-fund", 3)
	assert.Equal(t, uint8(3), storedOrg(t, h, org).Quorum)

	require.NoError(t, submit(t, h, investTx(t, h, "I1", org, vault, 100), "I1"))
	assert.Equal(t, uint64(100), storedOrg(t, h, org).TotalInvestment)
	require.NoError(t, submit(t, h, investTx(t, h, "I1", org, vault, 50), "I1"))
	assert.Equal(t, uint64(150), storedOrg(t, h, org).TotalInvestment)
	require.NoError(t, submit(t, h, investTx(t, h, "I2", org, vault, 25), "I2"))
	assert.Equal(t, uint64(175), storedOrg(t, h, org).TotalInvestment)

	assert.Equal(t, uint64(150), storedInvestment(t, h, "I1", org).Amount)
	assert.Equal(t, uint64(25), storedInvestment(t, h, "I2", org).Amount)
	assert.Equal(t, uint64(175), balanceOf(t, h, vault))

	execs, err := h.Executions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, execs, 4)
	for i, e := range execs {
		assert.Equal(t, int64(4-i), e.Seq)
		assert.Equal(t, store.OutcomeOK, e.Outcome)
	}
	assert.Equal(t, processor.CommandCreateOrganization, execs[3].Command)

	orgs, err := h.Organizations(ctx, testutil.Identity("O").String())
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, org, orgs[0].Address)
}

func TestSubmit_FailedWriteRollsBackTransfer(t *testing.T) {
	h, st := newHost(t)
	ctx := context.Background()

	vault := wallet(t, h, "O", 0)
	source := wallet(t, h, "I1", 100)
	org := createOrg(t, h, "O", "acme", "acme-fund", 3)

	// Put a foreign record into I1's investment cell so the final write fails
	// after the transfer and the organization update already ran.
	tx := investTx(t, h, "I1", org, vault, 30)
	invAddr, err := st.CreateCellWithSeed(ctx, testutil.Identity("I1"), ident.InvestmentSeed(org), programID, ledger.DefaultCapacity)
	require.NoError(t, err)
	require.Equal(t, tx.Accounts[2].Address, invAddr)
	inv, err := st.GetCell(ctx, invAddr)
	require.NoError(t, err)
	inv.Writable = true
	require.NoError(t, inv.Overwrite(programID, token.Holder{Balance: 1}.Encode()))
	require.NoError(t, st.PutCellData(ctx, inv))

	err = submit(t, h, tx, "I1")
	assert.True(t, fault.Is(err, fault.DecodeFailure), "got %v", err)

	assert.Equal(t, uint64(100), balanceOf(t, h, source), "transfer rolled back")
	assert.Equal(t, uint64(0), balanceOf(t, h, vault))
	assert.Zero(t, storedOrg(t, h, org).TotalInvestment, "organization total rolled back")

	execs, err := h.Executions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, store.OutcomeError, execs[0].Outcome)
	assert.Equal(t, string(fault.DecodeFailure), execs[0].Code)
	assert.Equal(t, processor.CommandInvest, execs[0].Command)
}

func TestSubmit_SignatureChecks(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()
	owner := testutil.Identity("O")
	cmd := processor.CreateOrganization{Name: "acme", GroupingID: "g", Quorum: 1, Owner: owner.String()}

	unsigned, err := h.CreateOrganizationTx(owner, cmd)
	require.NoError(t, err)
	err = submit(t, h, unsigned)
	assert.True(t, fault.Is(err, fault.MissingAuthentication), "got %v", err)

	wrongKey, err := h.CreateOrganizationTx(owner, cmd)
	require.NoError(t, err)
	err = submit(t, h, wrongKey, "mallory")
	assert.True(t, fault.Is(err, fault.MissingAuthentication), "got %v", err)

	tampered, err := h.CreateOrganizationTx(owner, cmd)
	require.NoError(t, err)
	tampered.Sign(testutil.Key("O"))
	tampered.Payload = processor.CreateOrganization{Name: "acme", GroupingID: "g", Quorum: 9, Owner: owner.String()}.Encode()
	err = submit(t, h, tampered)
	assert.True(t, fault.Is(err, fault.MissingAuthentication), "got %v", err)

	_, err = h.Cell(ctx, unsigned.Accounts[1].Address)
	assert.ErrorIs(t, err, store.ErrCellNotFound)
}

func TestSubmit_UndeclaredSignerIsRejected(t *testing.T) {
	h, _ := newHost(t)
	vault := wallet(t, h, "O", 0)
	source := wallet(t, h, "I1", 100)
	org := createOrg(t, h, "O", "acme", "acme-fund", 3)

	tx := investTx(t, h, "I1", org, vault, 10)
	tx.Accounts[0].Signer = false

	err := submit(t, h, tx)
	assert.True(t, fault.Is(err, fault.MissingAuthentication), "got %v", err)
	assert.Equal(t, uint64(100), balanceOf(t, h, source))
}

func TestSubmit_RejectedCommandLeavesNoDerivedCell(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()
	owner := testutil.Identity("O")

	tx, err := h.CreateOrganizationTx(owner, processor.CreateOrganization{
		Name: "acme", GroupingID: strings.Repeat("g", ledger.MaxGroupingIDLen+1), Quorum: 1, Owner: owner.String(),
	})
	require.NoError(t, err)
	err = submit(t, h, tx, "O")
	assert.True(t, fault.Is(err, fault.InvalidArgument), "got %v", err)
	_, err = h.Cell(ctx, tx.Accounts[1].Address)
	assert.ErrorIs(t, err, store.ErrCellNotFound)

	vault := wallet(t, h, "V", 0)
	wallet(t, h, "I1", 5)
	org := createOrg(t, h, "O", "acme", "acme-fund", 3)
	inv := investTx(t, h, "I1", org, vault, 50)
	err = submit(t, h, inv, "I1")
	assert.True(t, fault.Is(err, fault.ExternalTransferFailure), "got %v", err)
	_, err = h.Cell(ctx, inv.Accounts[2].Address)
	assert.ErrorIs(t, err, store.ErrCellNotFound)

	orgs, err := h.Organizations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
}

func TestSubmit_CellCreationRequiresSignerAndAccount(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()
	owner := testutil.Identity("O")
	cmd := processor.CreateOrganization{Name: "acme", GroupingID: "g", Quorum: 1, Owner: owner.String()}

	foreign, err := h.CreateOrganizationTx(owner, cmd)
	require.NoError(t, err)
	foreign.Create = append(foreign.Create, CellInit{Authority: testutil.Identity("mallory"), Seed: "acme"})
	err = submit(t, h, foreign, "O")
	assert.True(t, fault.Is(err, fault.MissingAuthentication), "got %v", err)

	undeclared, err := h.CreateOrganizationTx(owner, cmd)
	require.NoError(t, err)
	undeclared.Create = append(undeclared.Create, CellInit{Authority: owner, Seed: "globex"})
	err = submit(t, h, undeclared, "O")
	assert.True(t, fault.Is(err, fault.InvalidArgument), "got %v", err)

	_, err = h.Cell(ctx, foreign.Accounts[1].Address)
	assert.ErrorIs(t, err, store.ErrCellNotFound)
}

// A seq is only consumed by a recorded execution.
func TestSubmit_UnrecordedExecutionReleasesSeq(t *testing.T) {
	h, st := newHost(t)
	from := wallet(t, h, "alice", 10)
	to := wallet(t, h, "bob", 0)
	require.NoError(t, submit(t, h, h.TransferTx(from, to, testutil.Identity("alice"), 1), "alice"))
	require.Equal(t, int64(1), h.clock.Current())

	require.NoError(t, st.Close())
	rec, err := h.Submit(context.Background(), Transaction{Program: ident.Identity{0x99}, Payload: []byte{0x01}})
	assert.Error(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, int64(1), h.clock.Current())
}

func TestSubmit_UnknownProgram(t *testing.T) {
	h, _ := newHost(t)
	err := submit(t, h, Transaction{Program: ident.Identity{0x99}, Payload: []byte{0x01}})
	assert.True(t, fault.Is(err, fault.InvalidArgument), "got %v", err)
}

func TestSubmit_UndecodablePayloadRecorded(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()

	rec, err := h.Submit(ctx, Transaction{Program: programID, Payload: []byte{0xff}})
	assert.True(t, fault.Is(err, fault.DecodeFailure), "got %v", err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Command)
	assert.Equal(t, store.OutcomeError, rec.Outcome)

	execs, err := h.Executions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, rec.Hash, execs[0].ReceiptHash)
}

func TestSubmit_DirectTransfer(t *testing.T) {
	h, _ := newHost(t)
	from := wallet(t, h, "alice", 40)
	to := wallet(t, h, "bob", 0)

	require.NoError(t, submit(t, h, h.TransferTx(from, to, testutil.Identity("alice"), 15), "alice"))
	assert.Equal(t, uint64(25), balanceOf(t, h, from))
	assert.Equal(t, uint64(15), balanceOf(t, h, to))

	err := submit(t, h, h.TransferTx(from, to, testutil.Identity("bob"), 1), "bob")
	assert.True(t, fault.Is(err, fault.AuthorizationMismatch), "got %v", err)
}

func TestSubmit_Disburse(t *testing.T) {
	h, _ := newHost(t)
	ctx := context.Background()

	treasuryAddr := h.Processor().Treasury().Rules()[0].AllowedSource
	require.NoError(t, h.InitHolder(ctx, treasuryAddr, testutil.Identity("treasurer")))
	require.NoError(t, h.Mint(ctx, treasuryAddr, 500))
	dest := wallet(t, h, "grantee", 0)

	tx := h.DisburseTx(treasuryAddr, dest, testutil.Identity("treasurer"), processor.Disburse{Amount: 200, Tier: "prod"})
	require.NoError(t, submit(t, h, tx, "treasurer"))
	assert.Equal(t, uint64(300), balanceOf(t, h, treasuryAddr))
	assert.Equal(t, uint64(200), balanceOf(t, h, dest))

	bad := h.DisburseTx(treasuryAddr, dest, testutil.Identity("treasurer"), processor.Disburse{Amount: 1, Tier: "qa"})
	err := submit(t, h, bad, "treasurer")
	assert.True(t, fault.Is(err, fault.InvalidArgument), "got %v", err)
}

func TestSubmit_DuplicateAccountSharesHandle(t *testing.T) {
	h, _ := newHost(t)
	vault := wallet(t, h, "O", 0)
	source := wallet(t, h, "I1", 100)
	org := createOrg(t, h, "O", "acme", "acme-fund", 3)

	tx := investTx(t, h, "I1", org, vault, 10)
	tx.Accounts[2].Address = org
	tx.Create = nil

	err := submit(t, h, tx, "I1")
	assert.True(t, fault.Is(err, fault.AuthorizationMismatch), "got %v", err)
	assert.Equal(t, uint64(100), balanceOf(t, h, source))
}

func TestNew_ResumesClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	st := openStore(t, path)
	h := newHostOn(t, st)

	from := wallet(t, h, "alice", 10)
	to := wallet(t, h, "bob", 0)
	require.NoError(t, submit(t, h, h.TransferTx(from, to, testutil.Identity("alice"), 1), "alice"))
	require.NoError(t, submit(t, h, h.TransferTx(from, to, testutil.Identity("alice"), 1), "alice"))

	tok := token.New(serviceID)
	proc, err := processor.New(processor.Config{ID: programID, TokenService: serviceID, Transfers: tok})
	require.NoError(t, err)
	resumed, err := New(context.Background(), st, proc, tok,
		WithIDGenerator(testutil.NewSequentialIDs("resumed")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	tx := resumed.TransferTx(from, to, testutil.Identity("alice"), 1)
	tx.Sign(testutil.Key("alice"))
	rec, err := resumed.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Seq)
}

func TestNew_RejectsMismatchedTokenService(t *testing.T) {
	_, st := newHost(t)
	tok := token.New(ident.Identity{0x01})
	proc, err := processor.New(processor.Config{ID: programID, TokenService: serviceID, Transfers: tok})
	require.NoError(t, err)

	_, err = New(context.Background(), st, proc, tok)
	assert.Error(t, err)
}

func TestView(t *testing.T) {
	h, st := newHost(t)
	ctx := context.Background()

	vault := wallet(t, h, "O", 9)
	v, err := h.View(ctx, vault)
	require.NoError(t, err)
	assert.Equal(t, "holder", v.Kind)
	assert.Equal(t, token.Holder{Authority: testutil.Identity("O"), Balance: 9}, v.Record)

	org := createOrg(t, h, "O", "acme", "acme-fund", 3)
	v, err = h.View(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, "organization", v.Kind)
	assert.Equal(t, ledger.DefaultCapacity, v.Capacity)
	assert.Equal(t, "acme", v.Record.(ledger.Organization).Name)

	fresh, err := st.CreateCellWithSeed(ctx, testutil.Identity("I9"), "unused", programID, ledger.DefaultCapacity)
	require.NoError(t, err)
	v, err = h.View(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "uninitialized", v.Kind)
	assert.Nil(t, v.Record)

	_, err = h.View(ctx, testutil.Identity("nowhere"))
	assert.ErrorIs(t, err, store.ErrCellNotFound)
}
