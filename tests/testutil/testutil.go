// Package testutil holds helpers shared by handler and repository
// tests: a sqlmock-backed GORM handle, a gin request harness and
// ready-made workflow actors.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM handle backed by sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens a GORM connection over sqlmock with the postgres
// dialector the repositories run against. The caller closes it.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the underlying sqlmock connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet fails the test when SQL expectations are left over.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "unmet database expectations")
}

// NewTestUUID derives a reproducible UUID from a seed string.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// Buyer returns a fresh customer actor.
func Buyer() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleBuyer}
}

// Staff returns a fresh staff actor.
func Staff() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleStaff}
}

// Admin returns a fresh admin actor.
func Admin() workflow.Actor {
	return workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}
}
