// Package fednpb models the RPC surface the task engine consumes:
// Connector, Combiner and ModelService, plus the messages they exchange.
//
// The wire schema of these messages is generated from an IDL in the real
// system and is out of scope here (see spec.md §1); this package supplies
// the Go-level shapes a generated client would expose — message structs
// and thin client stubs built on grpc.ClientConn — so the rest of the
// module can be written, and would compile, against a stable API.
package fednpb
