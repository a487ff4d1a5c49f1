// Package ledger defines the persisted organization and investment records
// and their canonical byte layout.
//
// Both record kinds live in fixed-capacity cells. The first byte of a cell is
// its record kind; a zero byte means the cell was never written. Layouts:
//
//	organization: [0x01][owner str][name str][grouping_id str][quorum u8][total_investment u64]
//	investment:   [0x02][investor str][amount u64][grouping_id str][organization_name str]
//
// Strings are u32 little-endian length-prefixed UTF-8; integers little-endian.
// Any reader of these cells outside this module must use the same layout.
package ledger

import (
	"fmt"

	"github.com/roach88/fundledger/internal/codec"
	"github.com/roach88/fundledger/internal/fault"
)

// Record kinds (first byte of a cell).
const (
	KindUninitialized byte = 0x00
	KindOrganization  byte = 0x01
	KindInvestment    byte = 0x02
)

// Field limits. They keep every valid record within DefaultCapacity.
const (
	MaxNameLen       = 32 // the name is also the derivation seed
	MaxIdentityText  = 44 // longest base58 text of a 32-byte identity
	MaxGroupingIDLen = 64

	// DefaultCapacity is the cell size the host allocates for ledger records.
	DefaultCapacity = 256
)

// Organization is a funding target's persisted state.
//
// TotalInvestment is monotonically non-decreasing and equals the sum of the
// investment amounts applied to it.
type Organization struct {
	Owner           string `json:"owner"`
	Name            string `json:"name"`
	GroupingID      string `json:"grouping_id"`
	Quorum          uint8  `json:"quorum"`
	TotalInvestment uint64 `json:"total_investment"`
}

// Encode returns the canonical layout of o.
func (o Organization) Encode() []byte {
	w := codec.NewWriter(o.EncodedLen())
	w.PutUint8(KindOrganization)
	w.PutString(o.Owner)
	w.PutString(o.Name)
	w.PutString(o.GroupingID)
	w.PutUint8(o.Quorum)
	w.PutUint64(o.TotalInvestment)
	return w.Bytes()
}

// EncodedLen returns len(o.Encode()) without encoding.
func (o Organization) EncodedLen() int {
	return 1 + 4 + len(o.Owner) + 4 + len(o.Name) + 4 + len(o.GroupingID) + 1 + 8
}

// Investment is one investor's cumulative contribution to one organization.
// Only the latest cumulative amount is kept; there is no per-transfer history.
type Investment struct {
	Investor         string `json:"investor"`
	Amount           uint64 `json:"amount"`
	GroupingID       string `json:"grouping_id"`
	OrganizationName string `json:"organization_name"`
}

// Encode returns the canonical layout of i.
func (i Investment) Encode() []byte {
	w := codec.NewWriter(i.EncodedLen())
	w.PutUint8(KindInvestment)
	w.PutString(i.Investor)
	w.PutUint64(i.Amount)
	w.PutString(i.GroupingID)
	w.PutString(i.OrganizationName)
	return w.Bytes()
}

// EncodedLen returns len(i.Encode()) without encoding.
func (i Investment) EncodedLen() int {
	return 1 + 4 + len(i.Investor) + 8 + 4 + len(i.GroupingID) + 4 + len(i.OrganizationName)
}

func parseOrganization(r *codec.Reader) (any, error) {
	return Organization{
		Owner:           r.ReadString(),
		Name:            r.ReadString(),
		GroupingID:      r.ReadString(),
		Quorum:          r.ReadUint8(),
		TotalInvestment: r.ReadUint64(),
	}, nil
}

func parseInvestment(r *codec.Reader) (any, error) {
	return Investment{
		Investor:         r.ReadString(),
		Amount:           r.ReadUint64(),
		GroupingID:       r.ReadString(),
		OrganizationName: r.ReadString(),
	}, nil
}

// Schemas returns the record schemas in decode priority order.
func Schemas() []codec.Schema {
	return []codec.Schema{
		codec.Tagged("organization", KindOrganization, parseOrganization),
		codec.Tagged("investment", KindInvestment, parseInvestment),
	}
}

// records decodes cell contents. Cells are zero-padded past the record.
var records = codec.NewDecoder(codec.AllowPadding, Schemas()...)

// DecodeRecord decodes cell contents as whichever ledger record matches.
func DecodeRecord(data []byte) (codec.Match, error) {
	return records.Decode(data)
}

// DecodeOrganization decodes cell contents as an Organization.
func DecodeOrganization(data []byte) (Organization, error) {
	m, err := records.Decode(data)
	if err != nil {
		return Organization{}, err
	}
	org, ok := m.Value.(Organization)
	if !ok {
		return Organization{}, fault.New(fault.DecodeFailure, "cell holds %s, not organization", m.Schema)
	}
	return org, nil
}

// DecodeInvestment decodes cell contents as an Investment.
func DecodeInvestment(data []byte) (Investment, error) {
	m, err := records.Decode(data)
	if err != nil {
		return Investment{}, err
	}
	inv, ok := m.Value.(Investment)
	if !ok {
		return Investment{}, fault.New(fault.DecodeFailure, "cell holds %s, not investment", m.Schema)
	}
	return inv, nil
}

// ValidateNames checks the user-supplied string fields shared by both records.
func ValidateNames(name, groupingID string) error {
	if name == "" {
		return fault.New(fault.InvalidArgument, "organization name is empty")
	}
	if len(name) > MaxNameLen {
		return fault.New(fault.InvalidArgument, "organization name is %d bytes, max %d", len(name), MaxNameLen)
	}
	if len(groupingID) > MaxGroupingIDLen {
		return fault.New(fault.InvalidArgument, "grouping id is %d bytes, max %d", len(groupingID), MaxGroupingIDLen)
	}
	return nil
}

// String implements fmt.Stringer for log output.
func (o Organization) String() string {
	return fmt.Sprintf("organization %q (group %q, owner %s, quorum %d, total %d)",
		o.Name, o.GroupingID, o.Owner, o.Quorum, o.TotalInvestment)
}

// String implements fmt.Stringer for log output.
func (i Investment) String() string {
	return fmt.Sprintf("investment by %s in %q (group %q): %d",
		i.Investor, i.OrganizationName, i.GroupingID, i.Amount)
}
