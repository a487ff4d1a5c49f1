// Package ident provides the fixed-size identity type and the address
// derivation scheme used as the processor's capability check.
//
// An Identity names an authority, a storage cell, a program or a treasury
// source. Identities carry no trust on their own. Trust is established only
// by recomputing a derived address (see Derive) or by the host marking a
// cell as an authenticated signer.
//
// Text form is base58, matching the public keys the ledger's clients use.
package ident
