// Package ir provides the canonical intermediate representation for
// querychain.
//
// This package contains the value and chain types shared by every other
// package. All other internal packages import ir; ir imports nothing
// internal. This keeps IR the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Argument values are the sealed IRValue set; NO float types anywhere
//   - Chains are values: Append copies, never mutates the receiver
//   - All hashing goes through RFC 8785 canonical JSON (MarshalCanonical)
//   - Error kinds are shared: the codec and the recorder raise *Error
package ir
