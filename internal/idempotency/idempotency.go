// Package idempotency remembers which message a client-supplied key produced,
// so a retried send returns the original message instead of a duplicate.
// A key moves from absent to pending (Reserve) to committed (Commit), or back
// to absent (Release) when the send failed.
package idempotency

const pendingValue = "pending"

const keyPrefix = "idem:"
