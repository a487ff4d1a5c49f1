package runtime

import (
	"context"
	"fmt"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/store"
	"github.com/roach88/fundledger/internal/token"
)

// InitHolder creates a holder cell at addr controlled by authority.
// It is a genesis operation and records no execution.
func (h *Host) InitHolder(ctx context.Context, addr, authority ident.Identity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.store.WithTx(ctx, func(stx *store.Tx) error {
		if err := stx.CreateCell(ctx, addr, h.token.ID(), token.HolderSize); err != nil {
			return err
		}
		c, err := stx.GetCell(ctx, addr)
		if err != nil {
			return err
		}
		c.Writable = true
		if err := h.token.InitHolder(c, authority); err != nil {
			return fmt.Errorf("init holder %s: %w", addr, err)
		}
		return stx.PutCellData(ctx, c)
	})
}

// Mint credits amount to the holder at addr. It is a genesis operation and
// records no execution.
func (h *Host) Mint(ctx context.Context, addr ident.Identity, amount uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.store.WithTx(ctx, func(stx *store.Tx) error {
		c, err := stx.GetCell(ctx, addr)
		if err != nil {
			return err
		}
		c.Writable = true
		if err := h.token.Mint(c, amount); err != nil {
			return fmt.Errorf("mint to %s: %w", addr, err)
		}
		return stx.PutCellData(ctx, c)
	})
}

// Cell loads the stored cell at addr.
func (h *Host) Cell(ctx context.Context, addr ident.Identity) (*cell.Cell, error) {
	return h.store.GetCell(ctx, addr)
}

// Balance returns the balance of the holder at addr.
func (h *Host) Balance(ctx context.Context, addr ident.Identity) (uint64, error) {
	c, err := h.store.GetCell(ctx, addr)
	if err != nil {
		return 0, err
	}
	return token.BalanceOf(c)
}

// Organizations lists organization records, optionally filtered by owner.
func (h *Host) Organizations(ctx context.Context, owner string) ([]ledger.OrganizationEntry, error) {
	return ledger.ListOrganizations(ctx, h.store, h.proc.ID(), owner)
}

// Executions returns the most recent executions, newest first.
func (h *Host) Executions(ctx context.Context, limit int) ([]store.Execution, error) {
	return h.store.ListExecutions(ctx, limit)
}
