// Package harness runs ledger conformance scenarios.
//
// A scenario seeds token holders, submits a flow of signed commands against
// a fresh in-memory ledger and checks the resulting trace and cell state.
//
// # Scenario Format
//
//	name: acme_investment
//	description: "Two investments accumulate on one organization"
//	holders:
//	  - name: alice
//	    authority: alice
//	    balance: 1000
//	  - name: fund
//	    authority: acme
//	flow:
//	  - command: create_organization
//	    signer: acme
//	    name: acme
//	    grouping_id: seed
//	  - command: invest
//	    signer: alice
//	    organization: acme/acme
//	    amount: 100
//	    source: alice
//	    destination: fund
//	assertions:
//	  - type: trace_order
//	    commands: [create_organization, invest]
//	  - type: final_state
//	    target: organization/acme/acme
//	    expect: { kind: organization, total_investment: 100, owner: "@acme" }
//
// Signers and authorities are key names. Each name maps to a deterministic
// ed25519 key, and a holder's address is derived from its name, so runs are
// reproducible and traces can be compared against golden files. A string
// "@name" in a final_state expectation stands for that key's identity.
//
// # Assertion Types
//
//   - trace_order: commands appear in the given order
//   - trace_count: a command (optionally with one outcome) appears exactly N times
//   - final_state: a decoded cell contains the expected fields
//
// Targets for final_state are holder/<name>, organization/<owner>/<name>
// and investment/<investor>/<owner>/<name>.
package harness
