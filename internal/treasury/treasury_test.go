package treasury

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

func TestDefault_AllTiersShareSource(t *testing.T) {
	a := Default()
	src := ident.MustParse(DefaultSource)

	for _, tier := range Tiers {
		got, err := a.Source(string(tier))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}
	assert.True(t, a.Collapsed())
}

func TestCheck(t *testing.T) {
	prod := ident.Identity{0x01}
	a, err := NewAllowList(map[Tier]ident.Identity{Prod: prod, Dev: {0x02}})
	require.NoError(t, err)

	assert.NoError(t, a.Check("prod", prod))
	assert.True(t, fault.Is(a.Check("prod", ident.Identity{0x02}), fault.AuthorizationMismatch))
	assert.True(t, fault.Is(a.Check("staging", prod), fault.InvalidArgument))
	assert.True(t, fault.Is(a.Check("local", prod), fault.InvalidArgument), "configured list lacks local")
	assert.False(t, a.Collapsed())
}

func TestNewAllowList_Rejects(t *testing.T) {
	_, err := NewAllowList(map[Tier]ident.Identity{"staging": {0x01}})
	assert.Error(t, err)

	_, err = NewAllowList(map[Tier]ident.Identity{Prod: ident.Zero})
	assert.Error(t, err)
}

func TestRules_Ordered(t *testing.T) {
	a, err := NewAllowList(map[Tier]ident.Identity{Prod: {3}, Local: {1}, Dev: {2}})
	require.NoError(t, err)

	rules := a.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, []Tier{Local, Dev, Prod}, []Tier{rules[0].Tier, rules[1].Tier, rules[2].Tier})
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("dev")
	require.NoError(t, err)
	assert.Equal(t, Dev, tier)

	_, err = ParseTier("Prod")
	assert.True(t, fault.Is(err, fault.InvalidArgument))
}

func TestParse_CUE(t *testing.T) {
	prod := ident.Identity{0x07, 0x07}
	src := []byte(`
treasury: {
	local: "` + DefaultSource + `"
	prod:  "` + prod.String() + `"
}
`)
	a, err := Parse(src, "treasury.cue")
	require.NoError(t, err)

	got, err := a.Source("prod")
	require.NoError(t, err)
	assert.Equal(t, prod, got)

	_, err = a.Source("dev")
	assert.True(t, fault.Is(err, fault.InvalidArgument))
	assert.False(t, a.Collapsed())
}

func TestParse_CUERejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown tier", `treasury: { staging: "` + DefaultSource + `" }`},
		{"malformed identity", `treasury: { prod: "not-base58-0OIl" }`},
		{"missing section", `other: { prod: "` + DefaultSource + `" }`},
		{"syntax error", `treasury: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasury.cue")
	require.NoError(t, os.WriteFile(path, []byte(`treasury: { dev: "`+DefaultSource+`" }`), 0o644))

	a, err := Load(path)
	require.NoError(t, err)
	rules := a.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, Dev, rules[0].Tier)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
