// Package notification tracks the delivery lifecycle of change notifications.
//
// Each observable resource owns one Tracker. The tracker is a passive state
// machine: the resource calls ValueChanged on every SetValue, and the
// Registration Service reports Status signals (Sent, Delivered, SendFailed,
// ...) which are posted through the event bridge and applied in order.
//
//	IDLE ──set──▶ QUEUED ──Sent──▶ SENT ──Delivered──▶ DELIVERED
//	                 │                │
//	                 └────failure─────┴──────────────▶ FAILED(reason)
//
// DELIVERED and FAILED go straight back to QUEUED on the next value change.
// Delivery is at-most-once per update: there is no retry.
package notification
