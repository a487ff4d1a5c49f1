package codec

import (
	"errors"
	"fmt"

	"github.com/roach88/fundledger/internal/fault"
)

// ParseFunc structurally parses one schema's fields from r.
// The discriminant, when the schema has one, is consumed before ParseFunc runs.
type ParseFunc func(r *Reader) (any, error)

// Schema is one candidate record layout.
type Schema struct {
	Name   string
	HasTag bool
	Tag    byte
	Parse  ParseFunc
}

// Tagged returns a schema whose layout starts with a discriminant byte.
func Tagged(name string, tag byte, parse ParseFunc) Schema {
	return Schema{Name: name, HasTag: true, Tag: tag, Parse: parse}
}

// Untagged returns a schema with no discriminant. It matches on structure alone.
func Untagged(name string, parse ParseFunc) Schema {
	return Schema{Name: name, Parse: parse}
}

// Mode controls how bytes left after a successful parse are treated.
type Mode int

const (
	// Strict requires the payload to be consumed exactly.
	Strict Mode = iota

	// AllowPadding accepts trailing bytes only if they are all zero.
	// Fixed-capacity cells are zero-filled past the record.
	AllowPadding
)

// Match is the outcome of a successful Decode.
type Match struct {
	Schema string
	Value  any
}

// Decoder probes a payload against an ordered schema list.
//
// INVARIANTS:
//   - schema order never changes after construction; the first match wins
//   - Decode is pure: no storage access, no shared state
type Decoder struct {
	schemas []Schema
	mode    Mode
}

// NewDecoder creates a Decoder over schemas in priority order.
// The slice is copied so callers cannot reorder it later.
func NewDecoder(mode Mode, schemas ...Schema) *Decoder {
	cp := make([]Schema, len(schemas))
	copy(cp, schemas)
	return &Decoder{schemas: cp, mode: mode}
}

// Schemas returns the schema names in priority order.
func (d *Decoder) Schemas() []string {
	names := make([]string, len(d.schemas))
	for i, s := range d.schemas {
		names[i] = s.Name
	}
	return names
}

// Decode selects the first schema that parses without structural error and,
// when it defines a discriminant, whose tag matches. The tag is compared only
// after the structural parse succeeds, because a layout that is a compatible
// prefix of another can parse cleanly under the wrong schema.
//
// Returns a DecodeFailure when no schema matches.
func (d *Decoder) Decode(payload []byte) (Match, error) {
	var attempts []error

	for _, s := range d.schemas {
		value, err := d.try(s, payload)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		return Match{Schema: s.Name, Value: value}, nil
	}

	return Match{}, fault.Wrap(fault.DecodeFailure, errors.Join(attempts...),
		"%d-byte payload matches none of %d schemas", len(payload), len(d.schemas))
}

func (d *Decoder) try(s Schema, payload []byte) (any, error) {
	r := NewReader(payload)

	var tag byte
	if s.HasTag {
		tag = r.ReadUint8()
	}

	value, err := s.Parse(r)
	if err == nil {
		err = r.Err()
	}
	if err != nil {
		return nil, err
	}

	if err := d.checkTrailing(r.Remaining()); err != nil {
		return nil, err
	}

	if s.HasTag && tag != s.Tag {
		return nil, fmt.Errorf("tag 0x%02x, want 0x%02x", tag, s.Tag)
	}

	return value, nil
}

func (d *Decoder) checkTrailing(rest []byte) error {
	if len(rest) == 0 {
		return nil
	}
	if d.mode == Strict {
		return fmt.Errorf("%d trailing bytes", len(rest))
	}
	for i, b := range rest {
		if b != 0 {
			return fmt.Errorf("non-zero padding byte at trailing offset %d", i)
		}
	}
	return nil
}
