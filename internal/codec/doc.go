// Package codec converts chains between their in-memory form (ir.Document)
// and the three external representations: a structured Go mapping, JSON
// text, and YAML text.
//
// Every representation carries the same logical shape:
//
//	{"class": "Order", "chain_methods": [{"where": ["status", "paid"]}, {"limit": [10]}]}
//
// Decoding walks the source in document order, so step order survives
// every format. Keys are normalized (trimmed, leading ":" symbol sigil
// removed) before they are matched, and the legacy mapping form of
// chain_methods ({"where": [...], "limit": [...]}) is accepted on input.
// Encoding always emits the list form.
//
// Decode errors are *ir.Error values with code MALFORMED_ENCODING or
// MISSING_FIELD.
package codec
