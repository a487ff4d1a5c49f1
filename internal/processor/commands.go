package processor

import "github.com/roach88/fundledger/internal/codec"

// Command envelope tags. The first payload byte selects the command.
const (
	TagCreateOrganization byte = 0x01
	TagInvest             byte = 0x02
	TagDisburse           byte = 0x03
)

// Command names, as reported by Process and recorded in the execution log.
const (
	CommandCreateOrganization = "create_organization"
	CommandInvest             = "invest"
	CommandDisburse           = "disburse"
)

// CreateOrganization registers a funding target.
// Accounts: [owner(signer), organization cell].
type CreateOrganization struct {
	Name       string
	GroupingID string
	Quorum     uint8
	Owner      string
}

// Invest records an investment in an organization.
// Accounts: [caller(signer), organization cell, investor cell,
// source holder, destination holder, transfer-service cell].
type Invest struct {
	OrganizationName string
	GroupingID       string
	Amount           uint64
}

// Disburse moves value out of a tier's treasury.
// Accounts: [transfer-service cell, source holder, destination holder, authority(signer)].
type Disburse struct {
	Amount uint64
	Tier   string
}

// Encode returns the command payload.
func (c CreateOrganization) Encode() []byte {
	w := codec.NewWriter(1 + 4 + len(c.Name) + 4 + len(c.GroupingID) + 1 + 4 + len(c.Owner))
	w.PutUint8(TagCreateOrganization)
	w.PutString(c.Name)
	w.PutString(c.GroupingID)
	w.PutUint8(c.Quorum)
	w.PutString(c.Owner)
	return w.Bytes()
}

// Encode returns the command payload.
func (c Invest) Encode() []byte {
	w := codec.NewWriter(1 + 4 + len(c.OrganizationName) + 4 + len(c.GroupingID) + 8)
	w.PutUint8(TagInvest)
	w.PutString(c.OrganizationName)
	w.PutString(c.GroupingID)
	w.PutUint64(c.Amount)
	return w.Bytes()
}

// Encode returns the command payload.
func (c Disburse) Encode() []byte {
	w := codec.NewWriter(1 + 8 + 4 + len(c.Tier))
	w.PutUint8(TagDisburse)
	w.PutUint64(c.Amount)
	w.PutString(c.Tier)
	return w.Bytes()
}

func parseCreateOrganization(r *codec.Reader) (any, error) {
	return CreateOrganization{
		Name:       r.ReadString(),
		GroupingID: r.ReadString(),
		Quorum:     r.ReadUint8(),
		Owner:      r.ReadString(),
	}, nil
}

func parseInvest(r *codec.Reader) (any, error) {
	return Invest{
		OrganizationName: r.ReadString(),
		GroupingID:       r.ReadString(),
		Amount:           r.ReadUint64(),
	}, nil
}

func parseDisburse(r *codec.Reader) (any, error) {
	return Disburse{
		Amount: r.ReadUint64(),
		Tier:   r.ReadString(),
	}, nil
}

// commands decodes instruction payloads. Commands carry no padding.
var commands = codec.NewDecoder(codec.Strict,
	codec.Tagged(CommandCreateOrganization, TagCreateOrganization, parseCreateOrganization),
	codec.Tagged(CommandInvest, TagInvest, parseInvest),
	codec.Tagged(CommandDisburse, TagDisburse, parseDisburse),
)

// DecodeCommand decodes a payload into one of CreateOrganization, Invest or
// Disburse. It returns the command name alongside the value.
func DecodeCommand(payload []byte) (codec.Match, error) {
	return commands.Decode(payload)
}
