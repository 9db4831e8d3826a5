// Package query records deferred query chains and replays them.
//
// A Recorder pairs a live provider.Resource with the ordered list of
// chainable calls made on it. Every Chain call returns a new Recorder; the
// receiver is never modified. The recorded chain can be serialized with
// the codec package and later rebuilt by Deserialize, which resolves the
// resource by name and replays each step through Resource.Apply in order.
//
// # Dispatch
//
// Dynamic callers (the CLI, the REPL, the scenario harness) reach the
// resource through Dispatch, which consults the resource's declared
// capability sets:
//
//	chainable name  -> recorded, new Recorder returned
//	terminal name   -> executed immediately, result returned, nothing recorded
//	anything else   -> UNSUPPORTED_OPERATION
//
// # Failure
//
// All failures are *ir.Error values. A failed Chain, Dispatch or
// Deserialize never yields a partially built Recorder.
package query
