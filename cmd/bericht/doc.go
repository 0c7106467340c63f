// Command bericht runs the report gateway and talks to it.
//
// "bericht serve" starts the HTTP server. The remaining commands either call
// a running server ("logs") or reach the upstream services directly with
// the same configuration ("title", "transcribe", "check").
package main
