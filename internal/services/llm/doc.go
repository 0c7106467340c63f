// Package llm provides an OpenAI-compatible chat completion client.
//
// The gateway uses it for title generation; the client itself is prompt
// agnostic and returns the assistant's plain-text reply.
//
// # Configuration
//
// Requires base_url and model; api_key is optional for self-hosted
// endpoints (vLLM, llama.cpp) that accept anonymous requests. A base URL
// without a /chat/completions suffix has it appended.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the reply text.
// Client.Ping: list models to verify the endpoint answers.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies and network
// timeouts with exponential backoff (base 1s, max 10s, up to 3 attempts by
// default). A Retry-After header overrides the computed delay. Context
// cancellation aborts retries immediately.
package llm
