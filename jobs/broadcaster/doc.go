// Package broadcaster publishes queued order events to Kafka.
//
// Events are written to the outbox in the same request that appends the
// order; the broadcaster delivers them afterwards with at-least-once
// semantics. An event is removed only after the broker acknowledged it.
package broadcaster
