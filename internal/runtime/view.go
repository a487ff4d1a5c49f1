package runtime

import (
	"context"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/token"
)

// CellView is a stored cell with its contents decoded when possible.
type CellView struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Capacity int    `json:"capacity"`
	Data     []byte `json:"data"`
	Kind     string `json:"kind"`
	Record   any    `json:"record,omitempty"`
}

// View loads the cell at addr and decodes it by its owning program.
func (h *Host) View(ctx context.Context, addr ident.Identity) (CellView, error) {
	c, err := h.store.GetCell(ctx, addr)
	if err != nil {
		return CellView{}, err
	}
	return h.view(c), nil
}

// view decodes c. Contents that do not decode are reported with kind
// "unknown" and no record.
func (h *Host) view(c *cell.Cell) CellView {
	v := CellView{
		Address:  c.Address.String(),
		Owner:    c.Owner.String(),
		Capacity: c.Capacity(),
		Data:     c.Data(),
		Kind:     "unknown",
	}
	if !c.Initialized() {
		v.Kind = "uninitialized"
		return v
	}

	switch c.Owner {
	case h.proc.ID():
		if m, err := ledger.DecodeRecord(c.Data()); err == nil {
			v.Kind, v.Record = m.Schema, m.Value
		}
	case h.token.ID():
		if holder, err := token.DecodeHolder(c.Data()); err == nil {
			v.Kind, v.Record = "holder", holder
		}
	}
	return v
}
