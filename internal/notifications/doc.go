// Package notifications publishes operator alerts to ntfy.
//
// The gateway raises alerts when the SMTP relay rejects a message and when a
// startup check fails, plus an informational note once the server listens.
// Without a configured topic NewService returns a no-op implementation, so
// callers never need to check whether alerts are enabled.
package notifications
