// Package timeouts defines shared timeout constants used across the server.
// Centralizing these values prevents drift between handlers and makes the
// durations discoverable.
package timeouts

import "time"

// Request caps the time allowed for a single API operation, including its
// storage calls. Callers fall back to an error response instead of retrying.
const Request = 10 * time.Second

// Upload caps the time allowed for a media upload to object storage.
const Upload = 30 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// EmailSend caps a best-effort notification email delivery.
const EmailSend = 10 * time.Second
