package fleet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
	csvimport "github.com/dealership/backend/internal/infrastructure/import"
)

// CarImportResult summarizes a bulk catalog import.
type CarImportResult struct {
	SessionID    uuid.UUID            `json:"session_id"`
	State        string               `json:"state"`
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// CarImportService handles bulk CSV import of catalog listings. The
// whole file is validated first; rows are only written when the file
// has no validation errors.
type CarImportService struct {
	cars      fleet.CarRepository
	eventBus  shared.EventPublisher
	sessions  csvimport.SessionStore
	processor *csvimport.ImportProcessor
	logger    *zap.Logger
}

// NewCarImportService creates a new CarImportService
func NewCarImportService(cars fleet.CarRepository, eventBus shared.EventPublisher, sessions csvimport.SessionStore, logger *zap.Logger) *CarImportService {
	return &CarImportService{
		cars:     cars,
		eventBus: eventBus,
		sessions: sessions,
		processor: csvimport.NewImportProcessor(
			csvimport.WithMaxFileSize(5*1024*1024),
			csvimport.WithMaxRows(10000),
		),
		logger: logger.Named("car_import_service"),
	}
}

// GetValidationRules returns the validation rules for the car catalog CSV
func (s *CarImportService) GetValidationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field("brand").Required().String().MinLength(1).MaxLength(100).Build(),
		csvimport.Field("model").Required().String().MinLength(1).MaxLength(100).Build(),
		csvimport.Field("year").Required().Int().Custom(validateModelYear).Build(),
		csvimport.Field("price").Required().Decimal().MinValue(zero).Build(),
		csvimport.Field("color").String().MaxLength(50).Build(),
		csvimport.Field("mileage").Int().MinValue(zero).Build(),
		csvimport.Field("description").String().MaxLength(1000).Build(),
	}
}

func validateModelYear(value string) error {
	year, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("year must be a number")
	}
	if year < 1900 || year > time.Now().Year()+1 {
		return fmt.Errorf("year must be between 1900 and next model year")
	}
	return nil
}

// ImportCars validates and imports a CSV of catalog listings. A file
// with any invalid row imports nothing; the returned result carries
// the per-row errors so the caller can fix the file and retry.
func (s *CarImportService) ImportCars(ctx context.Context, userID uuid.UUID, fileName string, data []byte) (*CarImportResult, error) {
	session := csvimport.NewImportSession(userID, csvimport.EntityCars, fileName, int64(len(data)))
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}

	validation, err := s.processor.Validate(ctx, session, bytes.NewReader(data), s.GetValidationRules())
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	result := &CarImportResult{
		SessionID:   session.ID,
		TotalRows:   validation.TotalRows,
		ErrorRows:   validation.ErrorRows,
		Errors:      validation.Errors,
		IsTruncated: validation.IsTruncated,
		TotalErrors: validation.TotalErrors,
	}

	if !validation.IsValid() {
		result.State = string(session.State)
		_ = s.sessions.Save(session)
		return result, nil
	}

	session.UpdateState(csvimport.StateImporting)
	imported, err := s.importRows(ctx, data)
	if err != nil {
		session.UpdateState(csvimport.StateFailed)
		_ = s.sessions.Save(session)
		return nil, err
	}

	session.UpdateState(csvimport.StateCompleted)
	_ = s.sessions.Save(session)

	result.ImportedRows = imported
	result.State = string(session.State)

	s.logger.Info("car catalog imported",
		zap.String("session_id", session.ID.String()),
		zap.String("file", fileName),
		zap.Int("rows", imported),
	)
	return result, nil
}

// importRows re-reads the already validated file and persists each row.
func (s *CarImportService) importRows(ctx context.Context, data []byte) (int, error) {
	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return 0, err
	}
	if err := parser.ParseHeader(); err != nil {
		return 0, err
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return imported, ctx.Err()
		default:
		}

		price, err := decimal.NewFromString(row.Get("price"))
		if err != nil {
			return imported, shared.NewValidationError(fmt.Sprintf("row %d: invalid price", row.LineNumber))
		}
		year, err := strconv.Atoi(row.Get("year"))
		if err != nil {
			return imported, shared.NewValidationError(fmt.Sprintf("row %d: invalid year", row.LineNumber))
		}
		mileage, err := strconv.Atoi(row.GetOrDefault("mileage", "0"))
		if err != nil {
			return imported, shared.NewValidationError(fmt.Sprintf("row %d: invalid mileage", row.LineNumber))
		}

		car, err := fleet.NewCar(row.Get("brand"), row.Get("model"), year, row.Get("color"), price, mileage, row.Get("description"))
		if err != nil {
			return imported, err
		}
		if err := s.cars.Save(ctx, car); err != nil {
			return imported, err
		}

		events := car.GetDomainEvents()
		if len(events) > 0 {
			if err := s.eventBus.Publish(ctx, events...); err != nil {
				s.logger.Warn("failed to publish car events", zap.Error(err))
			}
			car.ClearDomainEvents()
		}
		imported++
	}
	return imported, nil
}

// GetImportSession returns a previous import session by ID.
func (s *CarImportService) GetImportSession(ctx context.Context, id uuid.UUID) (*csvimport.ImportSession, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewNotFoundError("import session")
	}
	return session, nil
}
