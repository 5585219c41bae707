// Package billing provides domain models for payments and refunds.
//
// A Payment tracks the money side of an acquisition record. Its subject
// is the booking, reservation or purchase being paid for, and its state
// machine (PENDING, PAID, REFUND_REQUESTED, REFUNDED, CANCELLED) is
// driven by the shared workflow tables.
//
// Key Aggregates:
//   - Payment: One payment order per acquisition record, identified
//     upstream by a unique gateway order number
//
// Ports:
//   - Gateway: External payment provider (create order, verify and
//     answer callbacks, issue refunds)
//   - PaymentRepository: Persistence, including lookup by subject
//
// Gateway callbacks are the only path from PENDING to PAID. They are
// verified by signature and are idempotent per transaction ID.
package billing
