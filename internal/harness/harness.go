package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fundledger/internal/config"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/runtime"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/testutil"
	"github.com/roach88/fundledger/internal/token"
	"github.com/roach88/fundledger/internal/treasury"
)

// Harness runs one scenario against a fresh ledger.
//
// Keys are derived from names with testutil.Key, holder addresses from
// holder names, and execution IDs are sequential, so a scenario always
// produces the same trace.
type Harness struct {
	host   *runtime.Host
	logger *slog.Logger

	// labels maps every address the scenario touches back to its name.
	labels map[ident.Identity]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and host
// 2. Create and fund holders
// 3. Submit flow steps, checking each against its expect clause
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	allow, err := allowList(scenario.Treasury)
	if err != nil {
		return nil, err
	}
	tok := token.New(config.DefaultTokenServiceID)
	proc, err := processor.New(processor.Config{
		ID:           config.DefaultProcessorID,
		TokenService: tok.ID(),
		Transfers:    tok,
		Treasury:     allow,
	})
	if err != nil {
		return nil, err
	}
	host, err := runtime.New(ctx, st, proc, tok,
		runtime.WithIDGenerator(testutil.NewSequentialIDs("")),
		runtime.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		host:   host,
		logger: logger,
		labels: map[ident.Identity]string{tok.ID(): "token_service"},
	}

	if err := h.seed(ctx, scenario.Holders); err != nil {
		return nil, fmt.Errorf("failed to seed holders: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, errMsg := range h.evaluate(ctx, result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// HolderAddress is the address of the scenario holder with the given name.
func HolderAddress(name string) ident.Identity {
	return testutil.Identity("holder/" + name)
}

func allowList(tiers map[string]string) (*treasury.AllowList, error) {
	if len(tiers) == 0 {
		return treasury.Default(), nil
	}
	sources := make(map[treasury.Tier]ident.Identity, len(tiers))
	for tier, holder := range tiers {
		t, err := treasury.ParseTier(tier)
		if err != nil {
			return nil, err
		}
		sources[t] = HolderAddress(holder)
	}
	return treasury.NewAllowList(sources)
}

func (h *Harness) seed(ctx context.Context, holders []Holder) error {
	for _, hs := range holders {
		addr := HolderAddress(hs.Name)
		h.labels[addr] = "holder/" + hs.Name
		if err := h.host.InitHolder(ctx, addr, testutil.Identity(hs.Authority)); err != nil {
			return fmt.Errorf("holder %s: %w", hs.Name, err)
		}
		if hs.Balance > 0 {
			if err := h.host.Mint(ctx, addr, hs.Balance); err != nil {
				return fmt.Errorf("holder %s: %w", hs.Name, err)
			}
		}
	}
	return nil
}

// executeFlow submits every step and compares its outcome with the step's
// expect clause. A mismatch is a scenario failure, not a harness error.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		tx, err := h.build(step)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		if !step.Unsigned {
			tx.Sign(testutil.Key(step.Signer))
		}

		rec, submitErr := h.host.Submit(ctx, tx)
		if rec == nil {
			return fmt.Errorf("flow step %d: execution not recorded: %w", i, submitErr)
		}

		event := TraceEvent{
			Seq:         rec.Seq,
			ExecutionID: rec.ExecutionID,
			Command:     step.Command,
			Signer:      step.Signer,
			Outcome:     rec.Outcome,
			Code:        rec.Code,
			Written:     make([]string, 0, len(rec.Written)),
		}
		for _, w := range rec.Written {
			event.Written = append(event.Written, h.label(w))
		}
		result.AddTrace(event)

		expected := ExpectClause{Outcome: store.OutcomeOK}
		if step.Expect != nil {
			expected = *step.Expect
		}
		if rec.Outcome != expected.Outcome || (expected.Code != "" && rec.Code != expected.Code) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected %s %s, got %s %s (%v)",
				i, step.Command, expected.Outcome, expected.Code, rec.Outcome, rec.Code, submitErr))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"command", step.Command,
			"execution_id", rec.ExecutionID,
			"outcome", rec.Outcome,
		)
	}
	return nil
}

// build turns a step into an unsigned transaction.
func (h *Harness) build(step FlowStep) (runtime.Transaction, error) {
	signer := testutil.Identity(step.Signer)

	switch step.Command {
	case processor.CommandCreateOrganization:
		owner := step.Owner
		if owner == "" {
			owner = signer.String()
		}
		tx, err := h.host.CreateOrganizationTx(signer, processor.CreateOrganization{
			Name:       step.Name,
			GroupingID: step.GroupingID,
			Quorum:     step.Quorum,
			Owner:      owner,
		})
		if err != nil {
			return tx, err
		}
		h.labels[tx.Accounts[1].Address] = "organization/" + step.Signer + "/" + step.Name
		return tx, nil

	case processor.CommandInvest:
		ownerName, orgName, err := splitOrganization(step.Organization)
		if err != nil {
			return runtime.Transaction{}, err
		}
		org, err := h.organizationAddress(ownerName, orgName)
		if err != nil {
			return runtime.Transaction{}, err
		}
		name := step.Name
		if name == "" {
			name = orgName
		}
		tx, err := h.host.InvestTx(signer, org, HolderAddress(step.Source), HolderAddress(step.Destination),
			processor.Invest{OrganizationName: name, GroupingID: step.GroupingID, Amount: step.Amount})
		if err != nil {
			return tx, err
		}
		h.labels[tx.Accounts[2].Address] = "investment/" + step.Signer + "/" + step.Organization
		return tx, nil

	case processor.CommandDisburse:
		source, err := h.host.Processor().Treasury().Source(step.Tier)
		if step.Source != "" {
			source, err = HolderAddress(step.Source), nil
		}
		if err != nil {
			// Submit anyway so the processor records the rejection.
			source = ident.Zero
		}
		return h.host.DisburseTx(source, HolderAddress(step.Destination), signer,
			processor.Disburse{Amount: step.Amount, Tier: step.Tier}), nil

	case commandTransfer:
		return h.host.TransferTx(HolderAddress(step.Source), HolderAddress(step.Destination), signer, step.Amount), nil

	default:
		return runtime.Transaction{}, fmt.Errorf("unknown command %q", step.Command)
	}
}

func (h *Harness) organizationAddress(owner, name string) (ident.Identity, error) {
	addr, err := h.host.Processor().OrganizationAddress(testutil.Identity(owner), name)
	if err != nil {
		return ident.Zero, err
	}
	h.labels[addr] = "organization/" + owner + "/" + name
	return addr, nil
}

// label returns the scenario name of a base58 address, or the address
// itself when the scenario never named it.
func (h *Harness) label(addr string) string {
	id, err := ident.Parse(addr)
	if err != nil {
		return addr
	}
	if name, ok := h.labels[id]; ok {
		return name
	}
	return addr
}

