// Package provider defines the contract between the query-chain recorder
// and the systems that actually know how to build and run queries.
//
// A Resource owns three things the recorder never decides on its own:
// the initial query state, which method names are chainable or terminal,
// and how a single method transforms a state. The recorder only records
// names and arguments and replays them through Apply.
//
// Resolution from a serialized class name to a live Resource goes through
// a Resolver. Registry is the map-backed implementation used by the CLI
// and the SQL provider.
package provider
