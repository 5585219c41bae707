package acquisition

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// memDB is an in-memory stand-in for the database. Entities are stored
// by value so reads hand out copies, like rows scanned from a real db.
type memDB struct {
	mu           sync.Mutex
	cars         map[uuid.UUID]fleet.Car
	bookings     map[uuid.UUID]acquisition.Booking
	reservations map[uuid.UUID]acquisition.Reservation
	purchases    map[uuid.UUID]acquisition.Purchase
	loans        map[uuid.UUID]acquisition.LoanRequirement
	payments     map[uuid.UUID]billing.Payment
	transitions  []acquisition.TransitionRecord
}

func newMemDB() *memDB {
	return &memDB{
		cars:         make(map[uuid.UUID]fleet.Car),
		bookings:     make(map[uuid.UUID]acquisition.Booking),
		reservations: make(map[uuid.UUID]acquisition.Reservation),
		purchases:    make(map[uuid.UUID]acquisition.Purchase),
		loans:        make(map[uuid.UUID]acquisition.LoanRequirement),
		payments:     make(map[uuid.UUID]billing.Payment),
	}
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := newMemDB()
	for k, v := range db.cars {
		s.cars[k] = v
	}
	for k, v := range db.bookings {
		s.bookings[k] = v
	}
	for k, v := range db.reservations {
		s.reservations[k] = v
	}
	for k, v := range db.purchases {
		s.purchases[k] = v
	}
	for k, v := range db.loans {
		s.loans[k] = v
	}
	for k, v := range db.payments {
		s.payments[k] = v
	}
	s.transitions = append(s.transitions, db.transitions...)
	return s
}

func (db *memDB) restore(s *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cars = s.cars
	db.bookings = s.bookings
	db.reservations = s.reservations
	db.purchases = s.purchases
	db.loans = s.loans
	db.payments = s.payments
	db.transitions = s.transitions
}

// memScope rolls the whole store back when fn fails, mirroring the
// transactional all-or-nothing contract.
type memScope struct {
	db *memDB
}

func (s *memScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	before := s.db.snapshot()
	if err := fn(&memRepos{db: s.db}); err != nil {
		s.db.restore(before)
		return err
	}
	return nil
}

type memRepos struct {
	db *memDB
}

func (r *memRepos) Bookings() acquisition.BookingRepository          { return &memBookingRepo{r.db} }
func (r *memRepos) Reservations() acquisition.ReservationRepository  { return &memReservationRepo{r.db} }
func (r *memRepos) Purchases() acquisition.PurchaseRepository        { return &memPurchaseRepo{r.db} }
func (r *memRepos) Loans() acquisition.LoanRequirementRepository     { return &memLoanRepo{r.db} }
func (r *memRepos) Payments() billing.PaymentRepository              { return &memPaymentRepo{r.db} }
func (r *memRepos) Cars() fleet.CarRepository                        { return &memCarRepo{r.db} }
func (r *memRepos) Transitions() acquisition.TransitionRecordRepository {
	return &memTransitionRepo{r.db}
}

func matchesFilter(filter shared.Filter, state string, customerID uuid.UUID) bool {
	if want, ok := filter.Filters["state"]; ok && want != state {
		return false
	}
	if want, ok := filter.Filters["customer_id"]; ok {
		id, _ := want.(uuid.UUID)
		if id != customerID {
			return false
		}
	}
	return true
}

type memCarRepo struct{ db *memDB }

func (r *memCarRepo) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	car, ok := r.db.cars[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &car, nil
}

func (r *memCarRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	return r.FindByID(ctx, id)
}

func (r *memCarRepo) FindAll(ctx context.Context, filter shared.Filter) ([]fleet.Car, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []fleet.Car
	for _, car := range r.db.cars {
		if matchesFilter(filter, string(car.Availability), uuid.Nil) {
			out = append(out, car)
		}
	}
	return out, nil
}

func (r *memCarRepo) Save(ctx context.Context, car *fleet.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.cars[car.ID] = *car
	return nil
}

func (r *memCarRepo) SaveWithLock(ctx context.Context, car *fleet.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.cars[car.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != car.Version {
		return shared.ErrConcurrencyConflict
	}
	car.Version++
	r.db.cars[car.ID] = *car
	return nil
}

func (r *memCarRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	cars, _ := r.FindAll(ctx, filter)
	return int64(len(cars)), nil
}

type memBookingRepo struct{ db *memDB }

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []acquisition.Booking
	for _, b := range r.db.bookings {
		if matchesFilter(filter, string(b.State), b.CustomerID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Save(ctx context.Context, b *acquisition.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) SaveWithLock(ctx context.Context, b *acquisition.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.bookings[b.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != b.Version {
		return shared.ErrConcurrencyConflict
	}
	b.Version++
	r.db.bookings[b.ID] = *b
	return nil
}

func (r *memBookingRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

type memReservationRepo struct{ db *memDB }

func (r *memReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &res, nil
}

func (r *memReservationRepo) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []acquisition.Reservation
	for _, res := range r.db.reservations {
		if matchesFilter(filter, string(res.State), res.CustomerID) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memReservationRepo) Save(ctx context.Context, res *acquisition.Reservation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.reservations[res.ID] = *res
	return nil
}

func (r *memReservationRepo) SaveWithLock(ctx context.Context, res *acquisition.Reservation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.reservations[res.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != res.Version {
		return shared.ErrConcurrencyConflict
	}
	res.Version++
	r.db.reservations[res.ID] = *res
	return nil
}

func (r *memReservationRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

type memPurchaseRepo struct{ db *memDB }

func (r *memPurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Purchase, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.purchases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memPurchaseRepo) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Purchase, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []acquisition.Purchase
	for _, p := range r.db.purchases {
		if matchesFilter(filter, string(p.State), p.CustomerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPurchaseRepo) Save(ctx context.Context, p *acquisition.Purchase) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.purchases[p.ID] = *p
	return nil
}

func (r *memPurchaseRepo) SaveWithLock(ctx context.Context, p *acquisition.Purchase) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.purchases[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != p.Version {
		return shared.ErrConcurrencyConflict
	}
	p.Version++
	r.db.purchases[p.ID] = *p
	return nil
}

func (r *memPurchaseRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

type memLoanRepo struct{ db *memDB }

func (r *memLoanRepo) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.LoanRequirement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.loans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r *memLoanRepo) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*acquisition.LoanRequirement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.loans {
		if l.ReservationID == reservationID {
			loan := l
			return &loan, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLoanRepo) Save(ctx context.Context, l *acquisition.LoanRequirement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.loans[l.ID] = *l
	return nil
}

func (r *memLoanRepo) SaveWithLock(ctx context.Context, l *acquisition.LoanRequirement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.loans[l.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != l.Version {
		return shared.ErrConcurrencyConflict
	}
	l.Version++
	r.db.loans[l.ID] = *l
	return nil
}

type memPaymentRepo struct{ db *memDB }

func (r *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memPaymentRepo) FindByGatewayOrderID(ctx context.Context, orderID string) (*billing.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.payments {
		if p.GatewayOrderID == orderID {
			payment := p
			return &payment, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindBySubject(ctx context.Context, kind workflow.Kind, subjectID uuid.UUID) (*billing.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var latest *billing.Payment
	for _, p := range r.db.payments {
		if p.SubjectKind != kind || p.SubjectID != subjectID {
			continue
		}
		payment := p
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = &payment
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (r *memPaymentRepo) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []billing.Payment
	for _, p := range r.db.payments {
		if matchesFilter(filter, string(p.State), p.CustomerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) Save(ctx context.Context, p *billing.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.payments[p.ID] = *p
	return nil
}

func (r *memPaymentRepo) SaveWithLock(ctx context.Context, p *billing.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.payments[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if existing.Version != p.Version {
		return shared.ErrConcurrencyConflict
	}
	p.Version++
	r.db.payments[p.ID] = *p
	return nil
}

func (r *memPaymentRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

type memTransitionRepo struct{ db *memDB }

func (r *memTransitionRepo) Append(ctx context.Context, record *acquisition.TransitionRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.transitions = append(r.db.transitions, *record)
	return nil
}

func (r *memTransitionRepo) FindByRecord(ctx context.Context, kind workflow.Kind, recordID uuid.UUID) ([]acquisition.TransitionRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []acquisition.TransitionRecord
	for _, rec := range r.db.transitions {
		if rec.RecordKind == kind && rec.RecordID == recordID {
			out = append(out, rec)
		}
	}
	return out, nil
}

const testSignature = "test-signature"

type callbackPayload struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}

// stubGateway fakes the payment provider. Failures are switchable per
// test to exercise rollback on upstream errors.
type stubGateway struct {
	failCreate  bool
	failRefund  bool
	createCalls int
	refundCalls int
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreatePayment(ctx context.Context, req *billing.CreatePaymentRequest) (*billing.CreatePaymentResponse, error) {
	g.createCalls++
	if g.failCreate {
		return nil, billing.ErrGatewayUnavailable
	}
	return &billing.CreatePaymentResponse{
		GatewayOrderID: "GW-" + req.OrderNumber,
		PaymentURL:     "https://pay.example.com/" + req.OrderNumber,
		ExpireTime:     time.Now().Add(30 * time.Minute),
	}, nil
}

func (g *stubGateway) CreateRefund(ctx context.Context, req *billing.RefundRequest) (*billing.RefundResponse, error) {
	g.refundCalls++
	if g.failRefund {
		return nil, billing.ErrGatewayUnavailable
	}
	now := time.Now()
	return &billing.RefundResponse{GatewayRefundID: "RF-" + req.OrderNumber, RefundedAt: &now}, nil
}

func (g *stubGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*billing.PaymentCallback, error) {
	if signature != testSignature {
		return nil, billing.ErrGatewayInvalidCallback
	}
	var p callbackPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, billing.ErrGatewayInvalidCallback
	}
	amount, _ := decimal.NewFromString(p.Amount)
	now := time.Now()
	return &billing.PaymentCallback{
		OrderNumber:          p.OrderNumber,
		GatewayTransactionID: p.TransactionID,
		Status:               billing.CallbackStatus(p.Status),
		Amount:               amount,
		PaidAt:               &now,
	}, nil
}

func (g *stubGateway) CallbackResponse(success bool, message string) []byte {
	if success {
		return []byte("success")
	}
	return []byte("failure")
}

// stubStorage fakes the object store. Keys in missing are reported as
// not uploaded.
type stubStorage struct {
	missing map[string]bool
}

func (s *stubStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://store.example.com/upload/" + storageKey, time.Now().Add(expiresIn), nil
}

func (s *stubStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://store.example.com/" + storageKey, time.Now().Add(expiresIn), nil
}

func (s *stubStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	return !s.missing[storageKey], nil
}

func (s *stubStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return nil
}

type memIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{seen: make(map[string]bool)}
}

func (s *memIdempotency) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *memIdempotency) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *memIdempotency) Close() error { return nil }

type capturingBus struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (b *capturingBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}
