// Package processor is the fund-ledger program: it decodes one command,
// validates the accounts it was handed, and mutates the ledger cells it owns.
//
// Three commands exist:
//
//   - create_organization writes an organization record into a cell whose
//     address derives from the signer and the organization name.
//   - invest moves value through the value-transfer service and then records
//     it against both the organization total and the investor's cumulative
//     investment cell.
//   - disburse moves value out of a tier's treasury source after checking the
//     static allow-list.
//
// Process is synchronous and holds no state between calls. It never undoes a
// partial effect: when a ledger write fails after a transfer succeeded, the
// transfer stays applied on the in-memory cells. The host runtime persists
// cells only when Process returns nil, which makes each command all-or-nothing
// at the storage level.
package processor
