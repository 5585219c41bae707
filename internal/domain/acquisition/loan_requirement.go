package acquisition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// DocumentCategory classifies a submitted loan document.
type DocumentCategory string

const (
	DocIdentity      DocumentCategory = "IDENTITY"
	DocIncomeProof   DocumentCategory = "INCOME_PROOF"
	DocBankStatement DocumentCategory = "BANK_STATEMENT"
	DocOther         DocumentCategory = "OTHER"
)

// RequiredDocumentCategories must all be present before a loan can be
// approved.
var RequiredDocumentCategories = []DocumentCategory{DocIdentity, DocIncomeProof}

// IsValid checks if the document category is valid
func (c DocumentCategory) IsValid() bool {
	switch c {
	case DocIdentity, DocIncomeProof, DocBankStatement, DocOther:
		return true
	}
	return false
}

// LoanDocument is one submitted document reference. The file bytes live
// in the document store; only the key is recorded here.
type LoanDocument struct {
	shared.BaseEntity
	LoanRequirementID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Category          DocumentCategory `gorm:"size:20;not null"`
	FileName          string           `gorm:"size:255;not null"`
	StorageKey        string           `gorm:"size:512;not null"`
	Position          int              `gorm:"not null"`
}

// TableName returns the database table name
func (LoanDocument) TableName() string {
	return "loan_documents"
}

// LoanRequirement is the loan review attached 1:1 to a LOAN reservation.
// Documents are append-only while the review is open; the review is
// archived when the owning reservation reaches a terminal state.
type LoanRequirement struct {
	shared.BaseAggregateRoot
	ReservationID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	State         workflow.State `gorm:"size:20;not null;default:'UNDER_REVIEW';index"`
	Documents     []LoanDocument `gorm:"foreignKey:LoanRequirementID;constraint:OnDelete:CASCADE"`
	ReviewNote    *string        `gorm:"size:500"`
	ReviewedBy    *uuid.UUID     `gorm:"type:uuid"`
	ReviewedAt    *time.Time
	ArchivedAt    *time.Time
}

// TableName returns the database table name
func (LoanRequirement) TableName() string {
	return "loan_requirements"
}

// NewLoanRequirement opens a review for the given reservation.
func NewLoanRequirement(reservationID uuid.UUID) (*LoanRequirement, error) {
	if reservationID == uuid.Nil {
		return nil, shared.NewValidationError("reservation is required")
	}

	l := &LoanRequirement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReservationID:     reservationID,
		State:             workflow.LoanUnderReview,
		Documents:         make([]LoanDocument, 0),
	}

	l.AddDomainEvent(NewLoanReviewOpenedEvent(l))
	return l, nil
}

// DocumentSubmission is one document reference handed in by the buyer.
type DocumentSubmission struct {
	Category   DocumentCategory
	FileName   string
	StorageKey string
}

// AddDocuments appends document references in submission order. Only an
// open review accepts documents; existing entries are never replaced.
func (l *LoanRequirement) AddDocuments(submissions []DocumentSubmission) error {
	if l.State != workflow.LoanUnderReview {
		return shared.NewIllegalTransitionError("documents can only be submitted while the loan is under review")
	}
	if len(submissions) == 0 {
		return shared.NewValidationError("at least one document is required")
	}

	for _, s := range submissions {
		if !s.Category.IsValid() {
			return shared.NewValidationError(fmt.Sprintf("unknown document category %q", s.Category))
		}
		if strings.TrimSpace(s.FileName) == "" {
			return shared.NewValidationError("document file name is required")
		}
		if strings.TrimSpace(s.StorageKey) == "" {
			return shared.NewValidationError("document storage key is required")
		}
	}

	position := len(l.Documents)
	for _, s := range submissions {
		l.Documents = append(l.Documents, LoanDocument{
			BaseEntity:        shared.NewBaseEntity(),
			LoanRequirementID: l.ID,
			Category:          s.Category,
			FileName:          strings.TrimSpace(s.FileName),
			StorageKey:        s.StorageKey,
			Position:          position,
		})
		position++
	}

	l.AddDomainEvent(NewLoanDocumentsSubmittedEvent(l, len(submissions)))
	return nil
}

// HasRequiredDocuments reports whether every required category has at
// least one document.
func (l *LoanRequirement) HasRequiredDocuments() bool {
	present := make(map[DocumentCategory]bool, len(l.Documents))
	for _, d := range l.Documents {
		present[d.Category] = true
	}
	for _, required := range RequiredDocumentCategories {
		if !present[required] {
			return false
		}
	}
	return true
}

// MissingDocumentCategories lists required categories with no document.
func (l *LoanRequirement) MissingDocumentCategories() []DocumentCategory {
	present := make(map[DocumentCategory]bool, len(l.Documents))
	for _, d := range l.Documents {
		present[d.Category] = true
	}
	var missing []DocumentCategory
	for _, required := range RequiredDocumentCategories {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

// Apply mutates the review according to an accepted decision and
// returns the intents to execute alongside it. Approval requires every
// required document category to be present.
func (l *LoanRequirement) Apply(d *workflow.Decision, actor workflow.Actor, reason string) ([]workflow.Intent, error) {
	if !d.Applied {
		return nil, nil
	}

	if d.Event == workflow.EventApprove && !l.HasRequiredDocuments() {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"cannot approve: missing document categories %v", l.MissingDocumentCategories(),
		))
	}

	now := time.Now()
	l.State = d.To
	l.ReviewedBy = &actor.ID
	l.ReviewedAt = &now
	if reason != "" {
		l.ReviewNote = &reason
	}

	l.AddDomainEvent(NewTransitionAppliedEvent(d, l.ID, actor, reason))
	return d.Intents, nil
}

// Archive closes the review record once the owning reservation reached
// a terminal state. Archiving twice is a no-op.
func (l *LoanRequirement) Archive() {
	if l.ArchivedAt != nil {
		return
	}
	now := time.Now()
	l.ArchivedAt = &now
}
