package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/ident"
)

// CellSource enumerates stored cells by owning program.
// Implemented by store.Store.
type CellSource interface {
	CellsOwnedBy(ctx context.Context, owner ident.Identity) ([]*cell.Cell, error)
}

// OrganizationEntry pairs an organization record with the cell holding it.
type OrganizationEntry struct {
	Address      ident.Identity `json:"address"`
	Organization Organization   `json:"organization"`
}

// ListOrganizations scans the cells owned by program and returns those that
// hold an organization record. When owner is non-empty only organizations
// whose Owner field equals it are returned. Cells that hold anything else,
// or nothing, are skipped.
func ListOrganizations(ctx context.Context, src CellSource, program ident.Identity, owner string) ([]OrganizationEntry, error) {
	cells, err := src.CellsOwnedBy(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	var out []OrganizationEntry
	for _, c := range cells {
		if c.Kind() != KindOrganization {
			continue
		}
		org, err := DecodeOrganization(c.Data())
		if err != nil {
			continue
		}
		if owner != "" && org.Owner != owner {
			continue
		}
		out = append(out, OrganizationEntry{Address: c.Address, Organization: org})
	}
	return out, nil
}
