// Package catalog compiles CUE resource declarations into ir.ResourceSpec
// values used to build SQL-backed query providers.
//
// A catalog directory holds any number of .cue files, unified into one
// value. Each resource is declared under the top-level "resource" struct:
//
//	resource: Order: {
//		table: "orders"
//		fields: {
//			id:          int
//			status:      string
//			total_cents: int
//			paid:        bool
//		}
//		chainable: ["where", "order", "limit"] // optional
//		terminal:  ["count", "all"]            // optional
//	}
//
// Field types are string, int or bool. Floats are rejected so that every
// value a chain can filter on has an exact wire encoding.
package catalog
