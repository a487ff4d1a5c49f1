// Package genesis seeds a fresh ledger with token holders and balances.
//
// A genesis file is YAML:
//
//	holders:
//	  - name: treasury
//	    address: 3GC36PPDbSd2BMDbXWrcMiZgu2uZTLXCrQ5hRwSNMWhG
//	    authority: 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
//	    balance: 1000000
//
// Unknown fields are rejected.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fundledger/internal/ident"
)

// File is a parsed genesis file.
type File struct {
	Holders []Holder `yaml:"holders"`
}

// Holder is one token holder to create.
type Holder struct {
	// Name is an optional label used only in logs and errors.
	Name      string `yaml:"name,omitempty"`
	Address   string `yaml:"address"`
	Authority string `yaml:"authority"`
	Balance   uint64 `yaml:"balance,omitempty"`
}

// Entry is a validated holder.
type Entry struct {
	Name      string
	Address   ident.Identity
	Authority ident.Identity
	Balance   uint64
}

// Seeder is the host surface genesis needs. Implemented by runtime.Host.
type Seeder interface {
	InitHolder(ctx context.Context, addr, authority ident.Identity) error
	Mint(ctx context.Context, addr ident.Identity, amount uint64) error
}

// Load reads and validates the genesis file at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genesis: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a genesis document and validates every holder.
func Parse(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("genesis is empty")
		}
		return nil, fmt.Errorf("parse genesis: %w", err)
	}
	return file.Entries()
}

// Entries validates the holders: addresses and authorities must parse and
// no address may appear twice.
func (f File) Entries() ([]Entry, error) {
	seen := make(map[ident.Identity]string, len(f.Holders))
	entries := make([]Entry, 0, len(f.Holders))

	for i, h := range f.Holders {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("holders[%d]", i)
		}

		addr, err := ident.Parse(h.Address)
		if err != nil {
			return nil, fmt.Errorf("%s: address: %w", label, err)
		}
		auth, err := ident.Parse(h.Authority)
		if err != nil {
			return nil, fmt.Errorf("%s: authority: %w", label, err)
		}
		if prev, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%s: address %s already used by %s", label, addr, prev)
		}
		seen[addr] = label

		entries = append(entries, Entry{Name: h.Name, Address: addr, Authority: auth, Balance: h.Balance})
	}
	return entries, nil
}

// Apply creates every holder and mints its balance, in file order.
// It stops at the first failure; holders created before it remain.
func Apply(ctx context.Context, s Seeder, entries []Entry) error {
	for _, e := range entries {
		if err := s.InitHolder(ctx, e.Address, e.Authority); err != nil {
			return fmt.Errorf("holder %s: %w", e.label(), err)
		}
		if e.Balance == 0 {
			continue
		}
		if err := s.Mint(ctx, e.Address, e.Balance); err != nil {
			return fmt.Errorf("holder %s: %w", e.label(), err)
		}
	}
	return nil
}

func (e Entry) label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Address.String()
}
