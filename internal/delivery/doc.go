// Package delivery is the outbound reliability layer: it wraps the one-shot
// messaging transport with a global send spacing, a bounded linear-backoff
// retry, and failure accounting.
//
// Every user-visible message — replies, denials, errors, alerts — goes
// through the same Sender and the same policy. A failed delivery is counted
// and surfaced through Stats, never escalated to a crash.
//
// The Clock abstraction exists so tests can drive spacing and backoff
// without wall-clock waits.
package delivery
