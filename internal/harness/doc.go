// Package harness runs chain scenarios end to end against a seeded SQLite
// database.
//
// A scenario names a CUE catalog, seeds the tables it declares, records a
// chain against one resource and asserts on the outcome. Every chain that
// records successfully is also serialized to the map, JSON and YAML forms
// and replayed from each; a replay that differs from the original fails
// the scenario.
//
// # Scenario Format
//
//	name: paid_orders_top
//	description: "Highest paid order"
//	catalog: ../catalog          # relative to the scenario file
//	seed:
//	  orders:
//	    - {id: 1, status: paid, total_cents: 300, paid: true}
//	resource: Order
//	steps:
//	  - where: ["status", "paid"]
//	  - order: ["total_cents", "desc"]
//	  - limit: 1
//	assertions:
//	  - type: describe
//	    value: 'Order.where("status", "paid").order("total_cents", "desc").limit(1)'
//	  - type: terminal
//	    call: pluck
//	    args: ["id"]
//	    result: [1]
//
// Assertion types:
//
//   - describe: the chain's Describe output equals value
//   - hash: the chain hash equals value
//   - steps: the chain records exactly count steps
//   - terminal: calling call(args...) returns result
//   - chain_error: recording fails at step, with an error whose code
//     equals code or whose message contains contains
//
// # Golden Files
//
// RunWithGolden compares a canonical JSON snapshot of the run (describe,
// hash, JSON encoding and trace) against testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
