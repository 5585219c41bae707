package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

const uploadURLExpiry = 15 * time.Minute

// LoanService manages loan reviews: document intake via the object
// store and the staff approve/reject verdicts.
type LoanService struct {
	scope        TransactionScope
	engine       *Engine
	loans        acquisition.LoanRequirementRepository
	reservations acquisition.ReservationRepository
	storage      ObjectStorageService
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewLoanService creates a new LoanService
func NewLoanService(scope TransactionScope, engine *Engine, loans acquisition.LoanRequirementRepository, reservations acquisition.ReservationRepository, storage ObjectStorageService, eventBus shared.EventPublisher, logger *zap.Logger) *LoanService {
	return &LoanService{
		scope:        scope,
		engine:       engine,
		loans:        loans,
		reservations: reservations,
		storage:      storage,
		eventBus:     eventBus,
		logger:       logger.Named("loan_service"),
	}
}

// loadWithOwner fetches a loan review and the customer who owns it via
// the backing reservation.
func (s *LoanService) loadWithOwner(ctx context.Context, id uuid.UUID) (*acquisition.LoanRequirement, uuid.UUID, error) {
	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, uuid.Nil, err
	}
	reservation, err := s.reservations.FindByID(ctx, loan.ReservationID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return loan, reservation.CustomerID, nil
}

// GetLoan fetches one loan review. The reservation owner, staff and
// admins may read it.
func (s *LoanService) GetLoan(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*LoanResponse, error) {
	loan, ownerID, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, ownerID) {
		return nil, shared.ErrForbidden
	}
	return ToLoanResponse(loan), nil
}

// GetLoanByReservation fetches the loan review attached to a reservation.
func (s *LoanService) GetLoanByReservation(ctx context.Context, actor workflow.Actor, reservationID uuid.UUID) (*LoanResponse, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, reservation.CustomerID) {
		return nil, shared.ErrForbidden
	}
	loan, err := s.loans.FindByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return ToLoanResponse(loan), nil
}

// GenerateUploadURL hands the reservation owner a presigned URL to
// upload one document file. The returned storage key is what the owner
// submits back in SubmitDocuments.
func (s *LoanService) GenerateUploadURL(ctx context.Context, actor workflow.Actor, id uuid.UUID, req *DocumentUploadURLRequest) (*DocumentUploadURLResponse, error) {
	loan, ownerID, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != ownerID && actor.Role != workflow.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	if loan.State != workflow.LoanUnderReview {
		return nil, shared.NewIllegalTransitionError("documents can only be uploaded while the loan is under review")
	}

	storageKey := fmt.Sprintf("loans/%s/%s_%s", loan.ID, uuid.New().String()[:8], req.FileName)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, uploadURLExpiry)
	if err != nil {
		s.logger.Error("failed to generate upload url",
			zap.String("loan_id", loan.ID.String()),
			zap.Error(err),
		)
		return nil, shared.NewUpstreamFailureError("document storage is unavailable")
	}

	return &DocumentUploadURLResponse{
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// SubmitDocuments appends uploaded document references to an open
// review. Every referenced object must already exist in storage.
func (s *LoanService) SubmitDocuments(ctx context.Context, actor workflow.Actor, id uuid.UUID, req *SubmitDocumentsRequest) (*LoanResponse, error) {
	_, ownerID, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != ownerID && actor.Role != workflow.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	submissions := make([]acquisition.DocumentSubmission, 0, len(req.Documents))
	for _, ref := range req.Documents {
		exists, err := s.storage.ObjectExists(ctx, ref.StorageKey)
		if err != nil {
			return nil, shared.NewUpstreamFailureError("document storage is unavailable")
		}
		if !exists {
			return nil, shared.NewValidationError(fmt.Sprintf("document %q was not uploaded", ref.FileName))
		}
		submissions = append(submissions, acquisition.DocumentSubmission{
			Category:   acquisition.DocumentCategory(ref.Category),
			FileName:   ref.FileName,
			StorageKey: ref.StorageKey,
		})
	}

	var resp *LoanResponse
	sink := &eventSink{}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		loan, err := repos.Loans().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := loan.AddDocuments(submissions); err != nil {
			return err
		}
		if err := repos.Loans().SaveWithLock(ctx, loan); err != nil {
			return err
		}
		sink.collect(loan)
		resp = ToLoanResponse(loan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	s.logger.Info("loan documents submitted",
		zap.String("loan_id", id.String()),
		zap.Int("count", len(submissions)),
	)
	return resp, nil
}

// GenerateDocumentDownloadURL hands a reviewer or the owner a presigned
// URL to read one submitted document.
func (s *LoanService) GenerateDocumentDownloadURL(ctx context.Context, actor workflow.Actor, id, documentID uuid.UUID) (string, error) {
	loan, ownerID, err := s.loadWithOwner(ctx, id)
	if err != nil {
		return "", err
	}
	if !canViewRecord(actor, ownerID) {
		return "", shared.ErrForbidden
	}

	for _, doc := range loan.Documents {
		if doc.ID == documentID {
			url, _, err := s.storage.GenerateDownloadURL(ctx, doc.StorageKey, uploadURLExpiry)
			if err != nil {
				return "", shared.NewUpstreamFailureError("document storage is unavailable")
			}
			return url, nil
		}
	}
	return "", shared.NewNotFoundError("document not found")
}

// ApproveLoan approves an open review. Every required document category
// must be present.
func (s *LoanService) ApproveLoan(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*LoanResponse, error) {
	return s.applyVerdict(ctx, actor, id, workflow.EventApprove, "")
}

// RejectLoan rejects an open review with a mandatory reason. The owning
// reservation is cancelled and its payment refunded in the same
// transaction.
func (s *LoanService) RejectLoan(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*LoanResponse, error) {
	return s.applyVerdict(ctx, actor, id, workflow.EventReject, reason)
}

func (s *LoanService) applyVerdict(ctx context.Context, actor workflow.Actor, id uuid.UUID, event workflow.Event, reason string) (*LoanResponse, error) {
	var resp *LoanResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		loan, err := repos.Loans().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = s.engine.transitionLoan(ctx, repos, loan, event, actor, reason, sink)
		if err != nil {
			return err
		}

		resp = ToLoanResponse(loan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}
