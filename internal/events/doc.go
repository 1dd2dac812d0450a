// Package events defines the lifecycle event envelope, its typed payloads,
// and the publisher that routes envelopes to broker topics.
//
// Every task mutation produces one immutable envelope, published best-effort
// after the mutation commits. The broker delivers envelopes at least once;
// deduplication happens on the consumer side, keyed by the envelope's
// event ID. Payload shapes form a small tagged union keyed by event type, so
// the publisher and consumers agree on field names by construction instead
// of by convention.
package events
