package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/ident"
)

// cellRow is the persisted form of a cell. Identities are stored as base58 text.
type cellRow struct {
	Address    string `db:"address"`
	Owner      string `db:"owner"`
	Capacity   int    `db:"capacity"`
	Data       []byte `db:"data"`
	CreatedSeq int64  `db:"created_seq"`
}

func (r cellRow) toCell() (*cell.Cell, error) {
	addr, err := ident.Parse(r.Address)
	if err != nil {
		return nil, fmt.Errorf("cell address %q: %w", r.Address, err)
	}
	owner, err := ident.Parse(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("cell %s owner: %w", r.Address, err)
	}
	if len(r.Data) != r.Capacity {
		return nil, fmt.Errorf("cell %s holds %d bytes, capacity %d", r.Address, len(r.Data), r.Capacity)
	}
	return cell.Load(addr, owner, r.Data), nil
}

// createCell inserts a zero-filled cell. created_seq records the execution
// log position at creation time.
func createCell(ctx context.Context, db queryer, addr, owner ident.Identity, capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("create cell: negative capacity %d", capacity)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO cells (address, owner, capacity, data, created_seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) FROM executions))
	`,
		addr.String(),
		owner.String(),
		capacity,
		make([]byte, capacity),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create cell %s: %w", addr, ErrCellExists)
	}
	if err != nil {
		return fmt.Errorf("create cell %s: %w", addr, err)
	}
	return nil
}

func getCell(ctx context.Context, db queryer, addr ident.Identity) (*cell.Cell, error) {
	var row cellRow
	err := db.GetContext(ctx, &row, `
		SELECT address, owner, capacity, data, created_seq
		FROM cells
		WHERE address = ?
	`, addr.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get cell %s: %w", addr, ErrCellNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cell %s: %w", addr, err)
	}
	return row.toCell()
}

// putCellData replaces the data of an existing cell. Owner and capacity are
// fixed at creation and never change.
func putCellData(ctx context.Context, db queryer, c *cell.Cell) error {
	res, err := db.ExecContext(ctx, `
		UPDATE cells SET data = ?
		WHERE address = ? AND capacity = ?
	`, c.Data(), c.Address.String(), c.Capacity())
	if err != nil {
		return fmt.Errorf("put cell %s: %w", c.Address, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put cell %s: %w", c.Address, err)
	}
	if n == 0 {
		return fmt.Errorf("put cell %s with capacity %d: %w", c.Address, c.Capacity(), ErrCellNotFound)
	}
	return nil
}

func cellsOwnedBy(ctx context.Context, db queryer, owner ident.Identity) ([]*cell.Cell, error) {
	var rows []cellRow
	err := db.SelectContext(ctx, &rows, `
		SELECT address, owner, capacity, data, created_seq
		FROM cells
		WHERE owner = ?
		ORDER BY created_seq ASC, address ASC COLLATE BINARY
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list cells owned by %s: %w", owner, err)
	}

	cells := make([]*cell.Cell, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCell()
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// CreateCell creates a zero-filled cell at addr owned by owner.
// Returns ErrCellExists if the address is taken.
func (s *Store) CreateCell(ctx context.Context, addr, owner ident.Identity, capacity int) error {
	return createCell(ctx, s.db, addr, owner, capacity)
}

// CreateCellWithSeed creates a cell at Derive(authority, seed, owner) and
// returns its address. This is the create-with-seed scheme: the cell can only
// be written by owner, and only commands signed by authority can prove they
// derive it.
func (s *Store) CreateCellWithSeed(ctx context.Context, authority ident.Identity, seed string, owner ident.Identity, capacity int) (ident.Identity, error) {
	addr, err := ident.Derive(authority, seed, owner)
	if err != nil {
		return ident.Zero, fmt.Errorf("create cell with seed: %w", err)
	}
	if err := createCell(ctx, s.db, addr, owner, capacity); err != nil {
		return addr, err
	}
	return addr, nil
}

// GetCell loads the cell at addr. Returns ErrCellNotFound if absent.
func (s *Store) GetCell(ctx context.Context, addr ident.Identity) (*cell.Cell, error) {
	return getCell(ctx, s.db, addr)
}

// PutCellData persists the current contents of c.
func (s *Store) PutCellData(ctx context.Context, c *cell.Cell) error {
	return putCellData(ctx, s.db, c)
}

// CellsOwnedBy returns every cell owned by owner in creation order.
func (s *Store) CellsOwnedBy(ctx context.Context, owner ident.Identity) ([]*cell.Cell, error) {
	return cellsOwnedBy(ctx, s.db, owner)
}

// CreateCell is Store.CreateCell inside the transaction.
func (t *Tx) CreateCell(ctx context.Context, addr, owner ident.Identity, capacity int) error {
	return createCell(ctx, t.tx, addr, owner, capacity)
}

// CreateCellWithSeed is Store.CreateCellWithSeed inside the transaction.
func (t *Tx) CreateCellWithSeed(ctx context.Context, authority ident.Identity, seed string, owner ident.Identity, capacity int) (ident.Identity, error) {
	addr, err := ident.Derive(authority, seed, owner)
	if err != nil {
		return ident.Zero, fmt.Errorf("create cell with seed: %w", err)
	}
	if err := createCell(ctx, t.tx, addr, owner, capacity); err != nil {
		return addr, err
	}
	return addr, nil
}

// GetCell is Store.GetCell inside the transaction.
func (t *Tx) GetCell(ctx context.Context, addr ident.Identity) (*cell.Cell, error) {
	return getCell(ctx, t.tx, addr)
}

// PutCellData is Store.PutCellData inside the transaction.
func (t *Tx) PutCellData(ctx context.Context, c *cell.Cell) error {
	return putCellData(ctx, t.tx, c)
}
