package workflow

// States and events for every record kind. The graphs are static: they
// are defined here, once, and never mutated at runtime.

// Booking states.
const (
	BookingPending   State = "PENDING"
	BookingConfirmed State = "CONFIRMED"
	BookingCompleted State = "COMPLETED"
	BookingCancelled State = "CANCELLED"
)

// Reservation states.
const (
	ReservationCreated        State = "CREATED"
	ReservationPaymentPending State = "PAYMENT_PENDING"
	ReservationReserved       State = "RESERVED"
	ReservationAcquired       State = "ACQUIRED"
	ReservationCancelled      State = "CANCELLED"
)

// Purchase states.
const (
	PurchaseCreated        State = "CREATED"
	PurchasePaymentPending State = "PAYMENT_PENDING"
	PurchaseCompleted      State = "COMPLETED"
	PurchaseCancelled      State = "CANCELLED"
)

// Loan requirement states.
const (
	LoanUnderReview State = "UNDER_REVIEW"
	LoanApproved    State = "APPROVED"
	LoanRejected    State = "REJECTED"
)

// Payment states.
const (
	PaymentPending         State = "PENDING"
	PaymentPaid            State = "PAID"
	PaymentRefundRequested State = "REFUND_REQUESTED"
	PaymentRefunded        State = "REFUNDED"
	PaymentCancelled       State = "CANCELLED"
)

// Events.
const (
	EventConfirm          Event = "confirm"
	EventComplete         Event = "complete"
	EventCancel           Event = "cancel"
	EventPay              Event = "pay"
	EventPaymentConfirmed Event = "payment_confirmed"
	EventAcquire          Event = "acquire"
	EventLoanRejected     Event = "loan_rejected"
	EventApprove          Event = "approve"
	EventReject           Event = "reject"
	EventMarkPaid         Event = "mark_paid"
	EventRequestRefund    Event = "request_refund"
	EventApproveRefund    Event = "approve_refund"
	EventDenyRefund       Event = "deny_refund"
)

// BookingTable governs test-drive bookings. Bookings never claim the
// car, so no edge carries availability intents. Cancellation is an
// admin action; customers ask the dealership to cancel for them.
var BookingTable = NewTable(KindBooking, []Edge{
	{From: BookingPending, Event: EventConfirm, To: BookingConfirmed,
		Roles: []Role{RoleStaff, RoleAdmin}},
	{From: BookingPending, Event: EventCancel, To: BookingCancelled,
		Roles: []Role{RoleAdmin}, RequireReason: true},
	{From: BookingConfirmed, Event: EventComplete, To: BookingCompleted,
		Roles: []Role{RoleStaff, RoleAdmin}},
	{From: BookingConfirmed, Event: EventCancel, To: BookingCancelled,
		Roles: []Role{RoleAdmin}, RequireReason: true},
})

// ReservationTable governs reservations. The car is claimed on the
// first entry into PAYMENT_PENDING and released on any cancellation
// past that point. Loan-subtype review opening is subtype-dependent and
// added by the aggregate, not the table.
var ReservationTable = NewTable(KindReservation, []Edge{
	{From: ReservationCreated, Event: EventPay, To: ReservationPaymentPending,
		Roles:   []Role{RoleOwner, RoleAdmin},
		Intents: []Intent{IntentClaimCar, IntentOpenPayment}},
	{From: ReservationCreated, Event: EventCancel, To: ReservationCancelled,
		Roles: []Role{RoleOwner, RoleAdmin, RoleSystem}, RequireReason: true},
	{From: ReservationPaymentPending, Event: EventPaymentConfirmed, To: ReservationReserved,
		Roles: []Role{RoleSystem}},
	{From: ReservationPaymentPending, Event: EventCancel, To: ReservationCancelled,
		Roles:         []Role{RoleOwner, RoleAdmin, RoleSystem},
		RequireReason: true,
		Intents:       []Intent{IntentReleaseCar, IntentCancelPayment}},
	{From: ReservationReserved, Event: EventAcquire, To: ReservationAcquired,
		Roles:   []Role{RoleStaff, RoleAdmin},
		Intents: []Intent{IntentMarkCarSold, IntentCloseLoanReview}},
	{From: ReservationReserved, Event: EventCancel, To: ReservationCancelled,
		Roles:         []Role{RoleOwner, RoleAdmin, RoleSystem},
		RequireReason: true,
		Intents:       []Intent{IntentReleaseCar, IntentCloseLoanReview}},
	{From: ReservationReserved, Event: EventLoanRejected, To: ReservationCancelled,
		Roles:   []Role{RoleSystem},
		Intents: []Intent{IntentRequestRefund, IntentReleaseCar, IntentCloseLoanReview}},
})

// PurchaseTable governs outright purchases.
var PurchaseTable = NewTable(KindPurchase, []Edge{
	{From: PurchaseCreated, Event: EventPay, To: PurchasePaymentPending,
		Roles:   []Role{RoleOwner, RoleAdmin},
		Intents: []Intent{IntentClaimCar, IntentOpenPayment}},
	{From: PurchaseCreated, Event: EventCancel, To: PurchaseCancelled,
		Roles: []Role{RoleOwner, RoleAdmin, RoleSystem}, RequireReason: true},
	{From: PurchasePaymentPending, Event: EventPaymentConfirmed, To: PurchaseCompleted,
		Roles:   []Role{RoleSystem},
		Intents: []Intent{IntentMarkCarSold}},
	{From: PurchasePaymentPending, Event: EventCancel, To: PurchaseCancelled,
		Roles:         []Role{RoleOwner, RoleAdmin, RoleSystem},
		RequireReason: true,
		Intents:       []Intent{IntentReleaseCar, IntentCancelPayment}},
})

// LoanTable governs the loan review sub-workflow. Each verdict emits
// exactly one intent back to the owning reservation.
var LoanTable = NewTable(KindLoanRequirement, []Edge{
	{From: LoanUnderReview, Event: EventApprove, To: LoanApproved,
		Roles:   []Role{RoleStaff, RoleAdmin},
		Intents: []Intent{IntentNotifyLoanApproved}},
	{From: LoanUnderReview, Event: EventReject, To: LoanRejected,
		Roles:         []Role{RoleStaff, RoleAdmin},
		RequireReason: true,
		Intents:       []Intent{IntentNotifyLoanRejected}},
})

// PaymentTable governs the payment/refund sub-workflow. An approved
// refund cascades cancellation of the owning record; a denied refund
// reverts to PAID rather than dead-ending.
var PaymentTable = NewTable(KindPayment, []Edge{
	{From: PaymentPending, Event: EventMarkPaid, To: PaymentPaid,
		Roles:   []Role{RoleSystem},
		Intents: []Intent{IntentConfirmSubject}},
	{From: PaymentPending, Event: EventCancel, To: PaymentCancelled,
		Roles: []Role{RoleOwner, RoleAdmin, RoleSystem}, RequireReason: true},
	{From: PaymentPaid, Event: EventRequestRefund, To: PaymentRefundRequested,
		Roles: []Role{RoleOwner, RoleAdmin, RoleSystem}, RequireReason: true},
	{From: PaymentRefundRequested, Event: EventApproveRefund, To: PaymentRefunded,
		Roles:   []Role{RoleAdmin},
		Intents: []Intent{IntentCancelSubject}},
	{From: PaymentRefundRequested, Event: EventDenyRefund, To: PaymentPaid,
		Roles: []Role{RoleAdmin}},
})

// TableFor returns the transition table for a record kind.
func TableFor(kind Kind) (*Table, bool) {
	switch kind {
	case KindBooking:
		return BookingTable, true
	case KindReservation:
		return ReservationTable, true
	case KindPurchase:
		return PurchaseTable, true
	case KindLoanRequirement:
		return LoanTable, true
	case KindPayment:
		return PaymentTable, true
	default:
		return nil, false
	}
}
