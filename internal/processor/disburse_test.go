package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/cell"
	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/token"
	"github.com/roach88/fundledger/internal/treasury"
)

var treasurer = ident.Identity{0x7e}

func TestDisburse_FromAllowedSource(t *testing.T) {
	for _, tier := range treasury.Tiers {
		t.Run(string(tier), func(t *testing.T) {
			f := newFixture(t)
			source := f.holderAt(t, ident.MustParse(treasury.DefaultSource), treasurer, 500)
			dest := f.holder(t, other, 0)

			name, err := f.proc.Process(context.Background(),
				[]*cell.Cell{f.service, source, dest, signer(treasurer)},
				Disburse{Amount: 120, Tier: string(tier)}.Encode())
			require.NoError(t, err)
			assert.Equal(t, CommandDisburse, name)

			assert.Equal(t, uint64(380), balance(t, source))
			assert.Equal(t, uint64(120), balance(t, dest))
		})
	}
}

func TestDisburse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		tier   string
		source func(f *fixture, t *testing.T) *cell.Cell
		svc    ident.Identity
		signed bool
		code   fault.Code
	}{
		{
			name: "unknown tier",
			tier: "staging",
			source: func(f *fixture, t *testing.T) *cell.Cell {
				return f.holderAt(t, ident.MustParse(treasury.DefaultSource), treasurer, 500)
			},
			svc:    serviceID,
			signed: true,
			code:   fault.InvalidArgument,
		},
		{
			name: "source not on the allow-list",
			tier: "prod",
			source: func(f *fixture, t *testing.T) *cell.Cell {
				return f.holder(t, treasurer, 500)
			},
			svc:    serviceID,
			signed: true,
			code:   fault.AuthorizationMismatch,
		},
		{
			name: "wrong transfer service",
			tier: "prod",
			source: func(f *fixture, t *testing.T) *cell.Cell {
				return f.holderAt(t, ident.MustParse(treasury.DefaultSource), treasurer, 500)
			},
			svc:    other,
			signed: true,
			code:   fault.ExternalServiceIdentityMismatch,
		},
		{
			name: "authority did not sign",
			tier: "prod",
			source: func(f *fixture, t *testing.T) *cell.Cell {
				return f.holderAt(t, ident.MustParse(treasury.DefaultSource), treasurer, 500)
			},
			svc:  serviceID,
			code: fault.MissingAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			source := tt.source(f, t)
			dest := f.holder(t, other, 0)
			authority := cell.New(treasurer, ident.Zero, 0)
			authority.Signer = tt.signed

			_, err := f.proc.Process(context.Background(),
				[]*cell.Cell{cell.New(tt.svc, ident.Zero, 0), source, dest, authority},
				Disburse{Amount: 120, Tier: tt.tier}.Encode())
			assert.Equal(t, tt.code, CodeOf(err), "got %v", err)

			assert.Equal(t, uint64(500), balance(t, source))
			assert.Equal(t, uint64(0), balance(t, dest))
		})
	}
}

func TestDisburse_ConfiguredTiers(t *testing.T) {
	prodSource := ident.Identity{0x50}
	allow, err := treasury.NewAllowList(map[treasury.Tier]ident.Identity{treasury.Prod: prodSource})
	require.NoError(t, err)

	tok := token.New(serviceID)
	proc, err := New(Config{ID: programID, TokenService: serviceID, Transfers: tok, Treasury: allow})
	require.NoError(t, err)
	f := &fixture{proc: proc, tok: tok, service: cell.New(serviceID, ident.Zero, 0)}

	source := f.holderAt(t, prodSource, treasurer, 10)
	dest := f.holder(t, other, 0)
	accounts := []*cell.Cell{f.service, source, dest, signer(treasurer)}

	_, err = proc.Process(context.Background(), accounts, Disburse{Amount: 4, Tier: "prod"}.Encode())
	require.NoError(t, err)

	_, err = proc.Process(context.Background(), accounts, Disburse{Amount: 4, Tier: "dev"}.Encode())
	assert.True(t, IsCode(err, fault.InvalidArgument), "dev is not configured: %v", err)
	assert.Equal(t, uint64(6), balance(t, source))
}

func TestDisburse_UnsignedAuthorityRejectedBeforeTransfer(t *testing.T) {
	rec := &recordingTransferrer{}
	proc, err := New(Config{ID: programID, TokenService: serviceID, Transfers: rec})
	require.NoError(t, err)

	source := cell.New(ident.MustParse(treasury.DefaultSource), serviceID, token.HolderSize)
	dest := cell.New(ident.Identity{0xde}, serviceID, token.HolderSize)

	_, err = proc.Process(context.Background(),
		[]*cell.Cell{cell.New(serviceID, ident.Zero, 0), source, dest, cell.New(treasurer, ident.Zero, 0)},
		Disburse{Amount: 5, Tier: "prod"}.Encode())
	assert.Equal(t, fault.MissingAuthentication, CodeOf(err), "got %v", err)
	assert.Zero(t, rec.calls)
}
