// Package api defines the wire-format types shared by the HTTP server and
// the CLI client. It translates log store records and transcription results
// into transport DTOs so neither side depends on the other's internals.
//
// JSON tags use snake_case to stay compatible with existing gateway clients.
// Optional record fields are pointers so they serialize as null rather than
// being omitted.
package api
