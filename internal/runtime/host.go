package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/metrics"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/receipt"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/token"
)

// codeInternal marks executions that failed for a reason other than a
// command fault, such as a storage error.
const codeInternal = "INTERNAL"

// Host executes transactions against the persisted cell store.
type Host struct {
	mu sync.Mutex

	store   *store.Store
	proc    *processor.Processor
	token   *token.Program
	clock   *Clock
	ids     IDGenerator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithIDGenerator replaces the UUIDv7 execution-id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Host) { h.ids = g }
}

// WithMetrics records command metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Host) { h.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// New creates a Host. The logical clock resumes after the highest seq
// already in the store.
func New(ctx context.Context, st *store.Store, proc *processor.Processor, tok *token.Program, opts ...Option) (*Host, error) {
	if proc.TokenService() != tok.ID() {
		return nil, fmt.Errorf("processor expects token service %s, got %s", proc.TokenService(), tok.ID())
	}
	seq, err := st.MaxSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}

	h := &Host{
		store:  st,
		proc:   proc,
		token:  tok,
		clock:  NewClockAt(seq),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Processor returns the fund-ledger processor.
func (h *Host) Processor() *processor.Processor {
	return h.proc
}

// Token returns the value-transfer service.
func (h *Host) Token() *token.Program {
	return h.token
}

// Submit executes tx and records the execution.
//
// The returned receipt is non-nil whenever the execution was recorded. A
// rejected command returns its receipt together with the command error;
// cells are left exactly as they were before the call.
func (h *Host) Submit(ctx context.Context, tx Transaction) (*receipt.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	rec := &receipt.Receipt{
		ExecutionID: h.ids.Generate(),
		Seq:         h.clock.Next(),
		Program:     tx.Program.String(),
		Accounts:    tx.Addresses(),
		PayloadHash: receipt.PayloadHash(tx.Payload),
	}

	execErr := tx.Verify()
	if execErr == nil {
		execErr = h.store.WithTx(ctx, func(stx *store.Tx) error {
			return h.execute(ctx, stx, tx, rec)
		})
	}

	if execErr != nil {
		rec.Outcome = store.OutcomeError
		rec.Written = nil
		rec.Code = codeOf(execErr)
		rec.Message = execErr.Error()
		if err := rec.Seal(); err != nil {
			h.clock.Release(rec.Seq)
			return nil, errors.Join(execErr, err)
		}
		if err := h.store.WriteExecution(ctx, executionOf(rec)); err != nil {
			h.clock.Release(rec.Seq)
			return nil, errors.Join(execErr, fmt.Errorf("record execution: %w", err))
		}
	}

	h.observe(tx, rec, time.Since(start))
	if execErr != nil {
		return rec, execErr
	}
	return rec, nil
}

// execute runs inside the store transaction. Any error rolls back every
// cell write together with the execution record.
func (h *Host) execute(ctx context.Context, stx *store.Tx, tx Transaction, rec *receipt.Receipt) error {
	if err := h.createCells(ctx, stx, tx); err != nil {
		return err
	}
	cells, err := loadAccounts(ctx, stx, tx.Accounts)
	if err != nil {
		return err
	}

	command, err := h.dispatch(ctx, tx.Program, cells, tx.Payload)
	rec.Command = command
	if err != nil {
		return err
	}

	written, err := persistDirty(ctx, stx, cells)
	if err != nil {
		return err
	}

	rec.Written = written
	rec.Outcome = store.OutcomeOK
	if err := rec.Seal(); err != nil {
		return err
	}
	return stx.WriteExecution(ctx, executionOf(rec))
}

// createCells creates the requested ledger cells that do not exist yet.
// They share the command's store transaction and vanish if it is rejected.
func (h *Host) createCells(ctx context.Context, stx *store.Tx, tx Transaction) error {
	for _, ci := range tx.Create {
		if tx.Program != h.proc.ID() {
			return fault.New(fault.InvalidArgument, "cell creation requested for program %s", tx.Program)
		}
		if signer, _ := tx.declared(ci.Authority); !signer {
			return fault.New(fault.MissingAuthentication, "cell authority is not a signer").WithAccount(ci.Authority)
		}
		addr, err := ident.Derive(ci.Authority, ci.Seed, h.proc.ID())
		if err != nil {
			return err
		}
		if _, writable := tx.declared(addr); !writable {
			return fault.New(fault.InvalidArgument, "created cell is not a writable account").WithAccount(addr)
		}
		_, err = stx.CreateCellWithSeed(ctx, ci.Authority, ci.Seed, h.proc.ID(), ledger.DefaultCapacity)
		if err != nil && !errors.Is(err, store.ErrCellExists) {
			return err
		}
	}
	return nil
}

func (h *Host) dispatch(ctx context.Context, program ident.Identity, cells []*cell.Cell, payload []byte) (string, error) {
	switch program {
	case h.proc.ID():
		return h.proc.Process(ctx, cells, payload)
	case h.token.ID():
		return h.token.Process(ctx, cells, payload)
	default:
		return "", fault.New(fault.InvalidArgument, "unknown program %s", program)
	}
}

// loadAccounts resolves each declared account to a cell handle. An account
// listed twice shares one handle, with the union of its flags. An address
// with no stored cell is presented as an empty cell owned by the zero
// identity, which no program can write.
func loadAccounts(ctx context.Context, stx *store.Tx, metas []AccountMeta) ([]*cell.Cell, error) {
	byAddr := make(map[ident.Identity]*cell.Cell, len(metas))
	cells := make([]*cell.Cell, len(metas))

	for i, m := range metas {
		c, ok := byAddr[m.Address]
		if !ok {
			loaded, err := stx.GetCell(ctx, m.Address)
			switch {
			case errors.Is(err, store.ErrCellNotFound):
				c = cell.New(m.Address, ident.Zero, 0)
			case err != nil:
				return nil, err
			default:
				c = loaded
			}
			byAddr[m.Address] = c
		}
		c.Signer = c.Signer || m.Signer
		c.Writable = c.Writable || m.Writable
		cells[i] = c
	}
	return cells, nil
}

// persistDirty writes every modified cell once, in account order.
func persistDirty(ctx context.Context, stx *store.Tx, cells []*cell.Cell) ([]string, error) {
	seen := make(map[ident.Identity]bool, len(cells))
	var written []string
	for _, c := range cells {
		if !c.Dirty() || seen[c.Address] {
			continue
		}
		seen[c.Address] = true
		if err := stx.PutCellData(ctx, c); err != nil {
			return nil, err
		}
		written = append(written, c.Address.String())
	}
	return written, nil
}

func (h *Host) observe(tx Transaction, rec *receipt.Receipt, elapsed time.Duration) {
	h.metrics.ObserveCommand(rec.Command, rec.Outcome, elapsed)
	if rec.Outcome == store.OutcomeOK {
		h.metrics.AddTransferred(rec.Command, h.transferredAmount(tx))
	}

	attrs := []any{
		"execution_id", rec.ExecutionID,
		"seq", rec.Seq,
		"command", rec.Command,
		"outcome", rec.Outcome,
	}
	if rec.Outcome == store.OutcomeOK {
		h.logger.Info("execution recorded", attrs...)
		return
	}
	h.logger.Warn("execution rejected", append(attrs, "code", rec.Code, "error", rec.Message)...)
}

// transferredAmount is the value a successful command moved.
func (h *Host) transferredAmount(tx Transaction) uint64 {
	switch tx.Program {
	case h.proc.ID():
		m, err := processor.DecodeCommand(tx.Payload)
		if err != nil {
			return 0
		}
		switch cmd := m.Value.(type) {
		case processor.Invest:
			return cmd.Amount
		case processor.Disburse:
			return cmd.Amount
		}
	case h.token.ID():
		m, err := token.DecodeCommand(tx.Payload)
		if err != nil {
			return 0
		}
		if cmd, ok := m.Value.(token.TransferCommand); ok {
			return cmd.Amount
		}
	}
	return 0
}

func codeOf(err error) string {
	if code := fault.CodeOf(err); code != "" {
		return string(code)
	}
	return codeInternal
}

func executionOf(rec *receipt.Receipt) store.Execution {
	return store.Execution{
		ID:          rec.ExecutionID,
		Seq:         rec.Seq,
		Command:     rec.Command,
		Outcome:     rec.Outcome,
		Code:        rec.Code,
		Message:     rec.Message,
		PayloadHash: rec.PayloadHash,
		ReceiptHash: rec.Hash,
	}
}
