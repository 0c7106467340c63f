// Package preflight provides readiness checks for the filesystem and the
// upstream services the gateway depends on.
//
// The CLI "bericht check" command runs every check and prints the results;
// the server logs the same results once at startup without refusing to
// start, since each endpoint degrades on its own when its upstream is down.
package preflight
