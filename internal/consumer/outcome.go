// Package consumer implements the idempotent handlers for broker-delivered
// lifecycle events.
//
// The broker delivers at least once: the same envelope can arrive any
// number of times, concurrently, to any number of consumer instances. Every
// handler is therefore a pure function of (event, current store state) that
// is safe to invoke arbitrarily often, and reports what to do with the
// delivery through an Outcome code rather than an error.
package consumer

// Outcome tells the broker what to do with a delivery.
type Outcome string

// Delivery outcomes. SUCCESS, DUPLICATE and DROP all acknowledge the
// delivery; only RETRY asks the broker to redeliver.
const (
	// OutcomeSuccess means the event was processed and its effects applied.
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomeDuplicate means this event was already processed; the delivery
	// is acknowledged with no further effect.
	OutcomeDuplicate Outcome = "DUPLICATE"

	// OutcomeDrop means the event is permanently unprocessable (referenced
	// task gone, state already terminal). Acknowledging instead of retrying
	// avoids infinite redelivery loops on unrecoverable state.
	OutcomeDrop Outcome = "DROP"

	// OutcomeRetry means a transient fault prevented processing; the broker
	// should redeliver under its backoff policy.
	OutcomeRetry Outcome = "RETRY"
)

// Acknowledged reports whether the outcome ends the delivery (everything
// but RETRY).
func (o Outcome) Acknowledged() bool {
	return o != OutcomeRetry
}
