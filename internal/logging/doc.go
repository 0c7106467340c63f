// Package logging assembles the structured slog loggers used across the
// gateway and owns the in-memory log store behind the /logs endpoint.
//
// New wires a console or JSON output handler and, when a Store is supplied,
// tees every enabled record into it so each emitted line becomes queryable.
// The store is constructed once by the caller and shared by reference with
// the query handler; this package never keeps a global instance.
//
// Prefer these constructors over hand-rolled slog setup so that request ids,
// component names and call-site provenance land in the store with the same
// shape everywhere.
package logging
