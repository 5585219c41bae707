package acquisition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appfleet "github.com/dealership/backend/internal/application/fleet"
	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

var (
	bookingAuthorizer     = workflow.NewAuthorizer(workflow.BookingTable)
	reservationAuthorizer = workflow.NewAuthorizer(workflow.ReservationTable)
	purchaseAuthorizer    = workflow.NewAuthorizer(workflow.PurchaseTable)
	loanAuthorizer        = workflow.NewAuthorizer(workflow.LoanTable)
	paymentAuthorizer     = workflow.NewAuthorizer(workflow.PaymentTable)
)

// Engine applies authorized transitions and executes their side-effect
// intents inside the enclosing transaction. All record services funnel
// their state changes through it.
type Engine struct {
	coordinator *appfleet.AvailabilityCoordinator
	gateway     billing.PaymentGateway
	logger      *zap.Logger
}

// NewEngine creates a new Engine
func NewEngine(coordinator *appfleet.AvailabilityCoordinator, gateway billing.PaymentGateway, logger *zap.Logger) *Engine {
	return &Engine{
		coordinator: coordinator,
		gateway:     gateway,
		logger:      logger.Named("engine"),
	}
}

// eventSink accumulates domain events raised inside a transaction.
// Events are published only after the transaction commits.
type eventSink struct {
	events []shared.DomainEvent
}

func (s *eventSink) collect(agg shared.AggregateRoot) {
	s.events = append(s.events, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// intentContext carries the record data intents act on.
type intentContext struct {
	kind       workflow.Kind
	recordID   uuid.UUID
	carID      uuid.UUID
	customerID uuid.UUID
	amount     decimal.Decimal
	reason     string

	// reservationID targets loan verdict notifications.
	reservationID uuid.UUID
	// subjectKind and subjectID target payment cascades.
	subjectKind workflow.Kind
	subjectID   uuid.UUID
}

// intentResult reports side effects the caller surfaces to the client.
type intentResult struct {
	payment    *billing.Payment
	paymentURL string
}

func (e *Engine) transitionBooking(ctx context.Context, repos TransactionalRepositories, b *acquisition.Booking, event workflow.Event, actor workflow.Actor, isOwner bool, reason string, sink *eventSink) (*workflow.Decision, error) {
	d, err := bookingAuthorizer.Authorize(workflow.Request{
		Current: b.State, Event: event, Actor: actor, IsOwner: isOwner, Reason: reason,
	})
	if err != nil {
		return nil, err
	}
	if !d.Applied {
		return d, nil
	}

	intents, err := b.Apply(d, actor, reason)
	if err != nil {
		return nil, err
	}
	if err := repos.Bookings().SaveWithLock(ctx, b); err != nil {
		return nil, err
	}
	if err := repos.Transitions().Append(ctx, acquisition.NewTransitionRecord(d, b.ID, actor, reason)); err != nil {
		return nil, err
	}
	sink.collect(b)

	_, err = e.executeIntents(ctx, repos, intents, intentContext{
		kind:       workflow.KindBooking,
		recordID:   b.ID,
		carID:      b.CarID,
		customerID: b.CustomerID,
		reason:     reason,
	}, sink)
	return d, err
}

func (e *Engine) transitionReservation(ctx context.Context, repos TransactionalRepositories, r *acquisition.Reservation, event workflow.Event, actor workflow.Actor, isOwner bool, reason string, sink *eventSink) (*workflow.Decision, *intentResult, error) {
	d, err := reservationAuthorizer.Authorize(workflow.Request{
		Current: r.State, Event: event, Actor: actor, IsOwner: isOwner, Reason: reason,
	})
	if err != nil {
		return nil, nil, err
	}
	if !d.Applied {
		return d, &intentResult{}, nil
	}

	intents, err := r.Apply(d, actor, reason)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Reservations().SaveWithLock(ctx, r); err != nil {
		return nil, nil, err
	}
	if err := repos.Transitions().Append(ctx, acquisition.NewTransitionRecord(d, r.ID, actor, reason)); err != nil {
		return nil, nil, err
	}
	sink.collect(r)

	res, err := e.executeIntents(ctx, repos, intents, intentContext{
		kind:       workflow.KindReservation,
		recordID:   r.ID,
		carID:      r.CarID,
		customerID: r.CustomerID,
		amount:     r.Amount,
		reason:     reason,
	}, sink)
	return d, res, err
}

func (e *Engine) transitionPurchase(ctx context.Context, repos TransactionalRepositories, p *acquisition.Purchase, event workflow.Event, actor workflow.Actor, isOwner bool, reason string, sink *eventSink) (*workflow.Decision, *intentResult, error) {
	d, err := purchaseAuthorizer.Authorize(workflow.Request{
		Current: p.State, Event: event, Actor: actor, IsOwner: isOwner, Reason: reason,
	})
	if err != nil {
		return nil, nil, err
	}
	if !d.Applied {
		return d, &intentResult{}, nil
	}

	intents, err := p.Apply(d, actor, reason)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Purchases().SaveWithLock(ctx, p); err != nil {
		return nil, nil, err
	}
	if err := repos.Transitions().Append(ctx, acquisition.NewTransitionRecord(d, p.ID, actor, reason)); err != nil {
		return nil, nil, err
	}
	sink.collect(p)

	res, err := e.executeIntents(ctx, repos, intents, intentContext{
		kind:       workflow.KindPurchase,
		recordID:   p.ID,
		carID:      p.CarID,
		customerID: p.CustomerID,
		amount:     p.Amount,
		reason:     reason,
	}, sink)
	return d, res, err
}

func (e *Engine) transitionLoan(ctx context.Context, repos TransactionalRepositories, l *acquisition.LoanRequirement, event workflow.Event, actor workflow.Actor, reason string, sink *eventSink) (*workflow.Decision, error) {
	d, err := loanAuthorizer.Authorize(workflow.Request{
		Current: l.State, Event: event, Actor: actor, Reason: reason,
	})
	if err != nil {
		return nil, err
	}
	if !d.Applied {
		return d, nil
	}

	intents, err := l.Apply(d, actor, reason)
	if err != nil {
		return nil, err
	}
	if err := repos.Loans().SaveWithLock(ctx, l); err != nil {
		return nil, err
	}
	if err := repos.Transitions().Append(ctx, acquisition.NewTransitionRecord(d, l.ID, actor, reason)); err != nil {
		return nil, err
	}
	sink.collect(l)

	_, err = e.executeIntents(ctx, repos, intents, intentContext{
		kind:          workflow.KindLoanRequirement,
		recordID:      l.ID,
		reservationID: l.ReservationID,
		reason:        reason,
	}, sink)
	return d, err
}

func (e *Engine) transitionPayment(ctx context.Context, repos TransactionalRepositories, p *billing.Payment, event workflow.Event, actor workflow.Actor, isOwner bool, reason string, sink *eventSink) (*workflow.Decision, error) {
	d, err := paymentAuthorizer.Authorize(workflow.Request{
		Current: p.State, Event: event, Actor: actor, IsOwner: isOwner, Reason: reason,
	})
	if err != nil {
		return nil, err
	}
	if !d.Applied {
		return d, nil
	}

	intents, err := p.Apply(d, actor, reason)
	if err != nil {
		return nil, err
	}
	if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	if err := repos.Transitions().Append(ctx, acquisition.NewTransitionRecord(d, p.ID, actor, reason)); err != nil {
		return nil, err
	}
	sink.collect(p)

	_, err = e.executeIntents(ctx, repos, intents, intentContext{
		kind:        workflow.KindPayment,
		recordID:    p.ID,
		customerID:  p.CustomerID,
		amount:      p.Amount,
		reason:      reason,
		subjectKind: p.SubjectKind,
		subjectID:   p.SubjectID,
	}, sink)
	return d, err
}

// executeIntents runs each intent inside the current transaction. Any
// failure aborts the whole transition.
func (e *Engine) executeIntents(ctx context.Context, repos TransactionalRepositories, intents []workflow.Intent, ic intentContext, sink *eventSink) (*intentResult, error) {
	res := &intentResult{}

	for _, intent := range intents {
		var err error
		switch intent {
		case workflow.IntentClaimCar:
			err = e.claimCar(ctx, repos, ic, sink)
		case workflow.IntentReleaseCar:
			err = e.releaseCar(ctx, repos, ic, sink)
		case workflow.IntentMarkCarSold:
			err = e.markCarSold(ctx, repos, ic, sink)
		case workflow.IntentOpenPayment:
			err = e.openPayment(ctx, repos, ic, sink, res)
		case workflow.IntentCancelPayment:
			err = e.cancelPayment(ctx, repos, ic, sink)
		case workflow.IntentOpenLoanReview:
			err = e.openLoanReview(ctx, repos, ic, sink)
		case workflow.IntentCloseLoanReview:
			err = e.closeLoanReview(ctx, repos, ic)
		case workflow.IntentRequestRefund:
			err = e.requestRefund(ctx, repos, ic, sink)
		case workflow.IntentNotifyLoanApproved:
			// The reservation stays RESERVED; acquisition is a separate
			// staff action guarded on the approved loan.
			e.logger.Debug("loan approved",
				zap.String("reservation_id", ic.reservationID.String()))
		case workflow.IntentNotifyLoanRejected:
			err = e.cascadeLoanRejected(ctx, repos, ic, sink)
		case workflow.IntentConfirmSubject:
			err = e.confirmSubject(ctx, repos, ic, sink)
		case workflow.IntentCancelSubject:
			err = e.cancelSubject(ctx, repos, ic, sink)
		default:
			err = fmt.Errorf("unknown intent %q", intent)
		}
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (e *Engine) claimCar(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	car, err := e.coordinator.Claim(ctx, repos.Cars(), ic.kind, ic.recordID, ic.carID)
	if err != nil {
		return err
	}
	sink.collect(car)
	return nil
}

func (e *Engine) releaseCar(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	car, err := e.coordinator.Release(ctx, repos.Cars(), ic.kind, ic.recordID, ic.carID)
	if err != nil {
		return err
	}
	sink.collect(car)
	return nil
}

func (e *Engine) markCarSold(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	car, err := e.coordinator.MarkSold(ctx, repos.Cars(), ic.kind, ic.recordID, ic.carID)
	if err != nil {
		return err
	}
	sink.collect(car)
	return nil
}

func (e *Engine) openPayment(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink, res *intentResult) error {
	payment, err := billing.NewPayment(ic.kind, ic.recordID, ic.customerID, ic.amount)
	if err != nil {
		return err
	}

	resp, err := e.gateway.CreatePayment(ctx, &billing.CreatePaymentRequest{
		OrderNumber: payment.GatewayOrderID,
		Amount:      payment.Amount,
		Subject:     fmt.Sprintf("%s %s", ic.kind, ic.recordID),
	})
	if err != nil {
		e.logger.Error("payment gateway create failed",
			zap.String("order_number", payment.GatewayOrderID),
			zap.Error(err),
		)
		return shared.NewUpstreamFailureError("payment gateway is unavailable")
	}

	if err := repos.Payments().Save(ctx, payment); err != nil {
		return err
	}
	sink.collect(payment)

	res.payment = payment
	res.paymentURL = resp.PaymentURL
	return nil
}

func (e *Engine) cancelPayment(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	payment, err := repos.Payments().FindBySubject(ctx, ic.kind, ic.recordID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if payment.State != workflow.PaymentPending {
		return nil
	}

	reason := ic.reason
	if reason == "" {
		reason = "record cancelled"
	}
	_, err = e.transitionPayment(ctx, repos, payment, workflow.EventCancel, workflow.SystemActor(), false, reason, sink)
	return err
}

func (e *Engine) requestRefund(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	payment, err := repos.Payments().FindBySubject(ctx, workflow.KindReservation, ic.recordID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if payment.State != workflow.PaymentPaid {
		return nil
	}

	reason := ic.reason
	if reason == "" {
		reason = "loan rejected"
	}
	_, err = e.transitionPayment(ctx, repos, payment, workflow.EventRequestRefund, workflow.SystemActor(), false, reason, sink)
	return err
}

func (e *Engine) openLoanReview(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	loan, err := acquisition.NewLoanRequirement(ic.recordID)
	if err != nil {
		return err
	}
	if err := repos.Loans().Save(ctx, loan); err != nil {
		return err
	}
	sink.collect(loan)
	return nil
}

func (e *Engine) closeLoanReview(ctx context.Context, repos TransactionalRepositories, ic intentContext) error {
	loan, err := repos.Loans().FindByReservationID(ctx, ic.recordID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if loan.ArchivedAt != nil {
		return nil
	}

	loan.Archive()
	return repos.Loans().SaveWithLock(ctx, loan)
}

func (e *Engine) cascadeLoanRejected(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	reservation, err := repos.Reservations().FindByID(ctx, ic.reservationID)
	if err != nil {
		return err
	}

	reason := ic.reason
	if reason == "" {
		reason = "loan rejected"
	}
	_, _, err = e.transitionReservation(ctx, repos, reservation, workflow.EventLoanRejected, workflow.SystemActor(), false, reason, sink)
	return err
}

func (e *Engine) confirmSubject(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	switch ic.subjectKind {
	case workflow.KindReservation:
		reservation, err := repos.Reservations().FindByID(ctx, ic.subjectID)
		if err != nil {
			return err
		}
		_, _, err = e.transitionReservation(ctx, repos, reservation, workflow.EventPaymentConfirmed, workflow.SystemActor(), false, "", sink)
		return err
	case workflow.KindPurchase:
		purchase, err := repos.Purchases().FindByID(ctx, ic.subjectID)
		if err != nil {
			return err
		}
		_, _, err = e.transitionPurchase(ctx, repos, purchase, workflow.EventPaymentConfirmed, workflow.SystemActor(), false, "", sink)
		return err
	default:
		return fmt.Errorf("payment subject kind %q cannot be confirmed", ic.subjectKind)
	}
}

func (e *Engine) cancelSubject(ctx context.Context, repos TransactionalRepositories, ic intentContext, sink *eventSink) error {
	const reason = "payment refunded"

	switch ic.subjectKind {
	case workflow.KindReservation:
		reservation, err := repos.Reservations().FindByID(ctx, ic.subjectID)
		if err != nil {
			return err
		}
		_, _, err = e.transitionReservation(ctx, repos, reservation, workflow.EventCancel, workflow.SystemActor(), false, reason, sink)
		return err
	case workflow.KindPurchase:
		purchase, err := repos.Purchases().FindByID(ctx, ic.subjectID)
		if err != nil {
			return err
		}
		_, _, err = e.transitionPurchase(ctx, repos, purchase, workflow.EventCancel, workflow.SystemActor(), false, reason, sink)
		return err
	default:
		return fmt.Errorf("payment subject kind %q cannot be cancelled", ic.subjectKind)
	}
}
