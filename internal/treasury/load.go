package treasury

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/fundledger/internal/ident"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a CUE allow-list file. The file must define a top-level
// `treasury` struct mapping tier names to base58 identities:
//
//	treasury: {
//		local: "3GC36PPDbSd2BMDbXWrcMiZgu2uZTLXCrQ5hRwSNMWhG"
//		prod:  "3GC36PPDbSd2BMDbXWrcMiZgu2uZTLXCrQ5hRwSNMWhG"
//	}
//
// Unknown tiers and malformed identities are rejected by the embedded schema.
func Load(path string) (*AllowList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read treasury config: %w", err)
	}
	return Parse(data, path)
}

// Parse is Load for in-memory CUE source. filename is used in error positions.
func Parse(data []byte, filename string) (*AllowList, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("treasury_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile treasury schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile treasury config: %w", err)
	}

	section := value.LookupPath(cue.ParsePath("treasury"))
	if !section.Exists() {
		return nil, fmt.Errorf("treasury config %s: missing top-level treasury field", filename)
	}

	unified := schema.LookupPath(cue.ParsePath("#Treasury")).Unify(section)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate treasury config: %w", err)
	}

	var raw map[string]string
	if err := unified.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode treasury config: %w", err)
	}

	sources := make(map[Tier]ident.Identity, len(raw))
	for tier, text := range raw {
		id, err := ident.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("treasury config tier %s: %w", tier, err)
		}
		sources[Tier(tier)] = id
	}
	return NewAllowList(sources)
}
