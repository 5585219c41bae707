package acquisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/financing"
)

// CreateBookingRequest schedules a test drive.
type CreateBookingRequest struct {
	CarID       uuid.UUID `json:"car_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// AssignStaffRequest assigns a staff member to a booking.
type AssignStaffRequest struct {
	StaffID uuid.UUID `json:"staff_id" binding:"required"`
}

// CancelRequest carries the mandatory cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CreateReservationRequest opens a reservation. Years is required for
// the LOAN subtype and rejected otherwise.
type CreateReservationRequest struct {
	CarID   uuid.UUID `json:"car_id" binding:"required"`
	Subtype string    `json:"subtype" binding:"required,oneof=FULL LOAN"`
	Years   *int      `json:"years" binding:"omitempty,min=1,max=5"`
}

// CreatePurchaseRequest opens an outright purchase.
type CreatePurchaseRequest struct {
	CarID uuid.UUID `json:"car_id" binding:"required"`
}

// SubmitDocumentsRequest appends document references to a loan review.
type SubmitDocumentsRequest struct {
	Documents []DocumentRef `json:"documents" binding:"required,min=1,dive"`
}

// DocumentRef is one uploaded document reference.
type DocumentRef struct {
	Category   string `json:"category" binding:"required"`
	FileName   string `json:"file_name" binding:"required,max=255"`
	StorageKey string `json:"storage_key" binding:"required,max=512"`
}

// DocumentUploadURLRequest asks for a presigned upload URL.
type DocumentUploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// DocumentUploadURLResponse carries the presigned upload target.
type DocumentUploadURLResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RejectLoanRequest carries the mandatory rejection reason.
type RejectLoanRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RefundRequestPayload carries the refund request reason.
type RefundRequestPayload struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListQuery filters record listings.
type ListQuery struct {
	State      string `form:"state"`
	CustomerID string `form:"customer_id"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CarID              uuid.UUID  `json:"car_id"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	AssignedStaffID    *uuid.UUID `json:"assigned_staff_id,omitempty"`
	State              string     `json:"state"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToBookingResponse converts a domain booking.
func ToBookingResponse(b *acquisition.Booking) *BookingResponse {
	return &BookingResponse{
		ID:                 b.ID,
		CarID:              b.CarID,
		CustomerID:         b.CustomerID,
		ScheduledAt:        b.ScheduledAt,
		AssignedStaffID:    b.AssignedStaffID,
		State:              string(b.State),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// ReservationResponse is the API representation of a reservation.
type ReservationResponse struct {
	ID                 uuid.UUID       `json:"id"`
	CarID              uuid.UUID       `json:"car_id"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	Subtype            string          `json:"subtype"`
	Amount             decimal.Decimal `json:"amount"`
	LoanYears          *int            `json:"loan_years,omitempty"`
	State              string          `json:"state"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	PaymentURL         string          `json:"payment_url,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToReservationResponse converts a domain reservation.
func ToReservationResponse(r *acquisition.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:                 r.ID,
		CarID:              r.CarID,
		CustomerID:         r.CustomerID,
		Subtype:            string(r.Subtype),
		Amount:             r.Amount.Round(2),
		LoanYears:          r.LoanYears,
		State:              string(r.State),
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// PurchaseResponse is the API representation of a purchase.
type PurchaseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	CarID              uuid.UUID       `json:"car_id"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	Amount             decimal.Decimal `json:"amount"`
	State              string          `json:"state"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	PaymentURL         string          `json:"payment_url,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToPurchaseResponse converts a domain purchase.
func ToPurchaseResponse(p *acquisition.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:                 p.ID,
		CarID:              p.CarID,
		CustomerID:         p.CustomerID,
		Amount:             p.Amount.Round(2),
		State:              string(p.State),
		CancellationReason: p.CancellationReason,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// LoanDocumentResponse is one submitted document reference.
type LoanDocumentResponse struct {
	ID         uuid.UUID `json:"id"`
	Category   string    `json:"category"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"storage_key"`
	Position   int       `json:"position"`
}

// LoanResponse is the API representation of a loan review.
type LoanResponse struct {
	ID            uuid.UUID              `json:"id"`
	ReservationID uuid.UUID              `json:"reservation_id"`
	State         string                 `json:"state"`
	Documents     []LoanDocumentResponse `json:"documents"`
	ReviewNote    *string                `json:"review_note,omitempty"`
	ArchivedAt    *time.Time             `json:"archived_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ToLoanResponse converts a domain loan review.
func ToLoanResponse(l *acquisition.LoanRequirement) *LoanResponse {
	docs := make([]LoanDocumentResponse, 0, len(l.Documents))
	for _, d := range l.Documents {
		docs = append(docs, LoanDocumentResponse{
			ID:         d.ID,
			Category:   string(d.Category),
			FileName:   d.FileName,
			StorageKey: d.StorageKey,
			Position:   d.Position,
		})
	}
	return &LoanResponse{
		ID:            l.ID,
		ReservationID: l.ReservationID,
		State:         string(l.State),
		Documents:     docs,
		ReviewNote:    l.ReviewNote,
		ArchivedAt:    l.ArchivedAt,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	SubjectKind    string          `json:"subject_kind"`
	SubjectID      uuid.UUID       `json:"subject_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	State          string          `json:"state"`
	GatewayOrderID string          `json:"gateway_order_id"`
	RefundReason   *string         `json:"refund_reason,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	RefundedAt     *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToPaymentResponse converts a domain payment.
func ToPaymentResponse(p *billing.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:             p.ID,
		SubjectKind:    string(p.SubjectKind),
		SubjectID:      p.SubjectID,
		CustomerID:     p.CustomerID,
		Amount:         p.Amount.Round(2),
		State:          string(p.State),
		GatewayOrderID: p.GatewayOrderID,
		RefundReason:   p.RefundReason,
		PaidAt:         p.PaidAt,
		RefundedAt:     p.RefundedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// TransitionRecordResponse is one audit trail row.
type TransitionRecordResponse struct {
	ID         uuid.UUID `json:"id"`
	RecordKind string    `json:"record_kind"`
	RecordID   uuid.UUID `json:"record_id"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	Event      string    `json:"event"`
	ActorID    uuid.UUID `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     *string   `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToTransitionRecordResponse converts an audit row.
func ToTransitionRecordResponse(r *acquisition.TransitionRecord) *TransitionRecordResponse {
	return &TransitionRecordResponse{
		ID:         r.ID,
		RecordKind: string(r.RecordKind),
		RecordID:   r.RecordID,
		FromState:  string(r.FromState),
		ToState:    string(r.ToState),
		Event:      string(r.Event),
		ActorID:    r.ActorID,
		ActorRole:  string(r.ActorRole),
		Reason:     r.Reason,
		OccurredAt: r.OccurredAt,
	}
}

// QuoteResponse is the API representation of a financing quote, rounded
// to two decimals for display.
type QuoteResponse struct {
	Price            decimal.Decimal `json:"price"`
	Years            int             `json:"years"`
	MonthlyRate      decimal.Decimal `json:"monthly_rate"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	LoanAmount       decimal.Decimal `json:"loan_amount"`
	MonthlyPrincipal decimal.Decimal `json:"monthly_principal"`
	MonthlyInterest  decimal.Decimal `json:"monthly_interest"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	TotalInterest    decimal.Decimal `json:"total_interest"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
}

// ToQuoteResponse rounds a quote for display.
func ToQuoteResponse(q *financing.Quote) *QuoteResponse {
	return &QuoteResponse{
		Price:            q.Price.Round(2),
		Years:            q.Years,
		MonthlyRate:      q.MonthlyRate,
		DownPayment:      q.DownPayment.Round(2),
		LoanAmount:       q.LoanAmount.Round(2),
		MonthlyPrincipal: q.MonthlyPrincipal.Round(2),
		MonthlyInterest:  q.MonthlyInterest.Round(2),
		MonthlyPayment:   q.MonthlyPayment.Round(2),
		TotalInterest:    q.TotalInterest.Round(2),
		TotalPayment:     q.TotalPayment.Round(2),
	}
}
