// Package receipt builds the tamper-evident record returned for every
// submitted command.
//
// A receipt hash is SHA-256 over a domain prefix, a zero byte and the
// receipt's canonical JSON. The zero byte keeps domain and data from running
// into each other; the version suffix on the domain allows a later algorithm
// change.
package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
const (
	DomainReceipt = "fundledger/receipt/v1"
	DomainPayload = "fundledger/payload/v1"
)

// Receipt describes one execution.
type Receipt struct {
	ExecutionID string   `json:"execution_id"`
	Seq         int64    `json:"seq"`
	Program     string   `json:"program"`
	Command     string   `json:"command"`
	Accounts    []string `json:"accounts"`
	PayloadHash string   `json:"payload_hash"`
	Outcome     string   `json:"outcome"`
	Code        string   `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`

	// Written lists the cells persisted by this execution, in account order.
	Written []string `json:"written"`

	Hash string `json:"hash"`
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PayloadHash hashes a raw command payload.
func PayloadHash(payload []byte) string {
	return hashWithDomain(DomainPayload, payload)
}

// object is the hashed form of r. Hash itself is excluded.
func (r Receipt) object() map[string]any {
	accounts := r.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	written := r.Written
	if written == nil {
		written = []string{}
	}
	return map[string]any{
		"execution_id": r.ExecutionID,
		"seq":          r.Seq,
		"program":      r.Program,
		"command":      r.Command,
		"accounts":     accounts,
		"payload_hash": r.PayloadHash,
		"outcome":      r.Outcome,
		"code":         r.Code,
		"message":      r.Message,
		"written":      written,
	}
}

// ComputeHash returns the content hash of r.
func (r Receipt) ComputeHash() (string, error) {
	canonical, err := MarshalCanonical(r.object())
	if err != nil {
		return "", fmt.Errorf("receipt hash: %w", err)
	}
	return hashWithDomain(DomainReceipt, canonical), nil
}

// Seal sets r.Hash.
func (r *Receipt) Seal() error {
	h, err := r.ComputeHash()
	if err != nil {
		return err
	}
	r.Hash = h
	return nil
}

// Verify recomputes the hash and compares it with r.Hash.
func (r Receipt) Verify() error {
	h, err := r.ComputeHash()
	if err != nil {
		return err
	}
	if h != r.Hash {
		return fmt.Errorf("receipt %s: hash mismatch", r.ExecutionID)
	}
	return nil
}
