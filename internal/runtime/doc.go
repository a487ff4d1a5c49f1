// Package runtime is the host that runs ledger commands against durable
// state.
//
// A Host accepts signed transactions, verifies their signatures, loads the
// referenced cells from the store, dispatches to the fund-ledger processor or
// the value-transfer service, and persists the cells a successful command
// modified. Each submission runs inside one store transaction: a command that
// fails part-way leaves no trace in the cell table, which closes the gap the
// processor itself leaves between its transfer and its ledger writes.
//
// Every submission, accepted or rejected, is appended to the execution log
// with a logical seq and a sealed receipt hash.
//
// Host serializes submissions with a mutex; SQLite allows one writer.
package runtime
