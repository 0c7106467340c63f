// Package services defines shared utilities consumed by the HTTP handlers and
// the upstream integrations (transcription, language model, mail relay).
//
// Key responsibilities:
//   - Context helpers that carry the per-request correlation identifier so
//     every log line emitted while serving a request shares it.
//   - Structured error markers plus the Wrap helper that let the HTTP layer
//     translate failures into consistent status codes.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across endpoints.
package services
