package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedModel{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPluginDisabledIsNoop(t *testing.T) {
	db := setupTracedDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	require.NoError(t, plugin.Register(db))

	// No otelgorm callbacks registered, queries still work.
	require.NoError(t, db.Create(&tracedModel{Name: "corolla"}).Error)
}

func TestDBTracingPluginRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	db := setupTracedDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.Register(db))

	tracer := tp.Tracer("test")
	ctx, parent := tracer.Start(context.Background(), "reservation.create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedModel{Name: "corolla"}).Error)
	parent.End()

	var tableAttrSeen bool
	for _, span := range sr.Ended() {
		for _, attr := range span.Attributes() {
			if attr.Key == "db.sql.table" && attr.Value.AsString() == "traced_models" {
				tableAttrSeen = true
			}
		}
	}
	assert.True(t, tableAttrSeen, "expected db.sql.table attribute on a span")
}

func TestDBTracingPluginFlagsSlowQueries(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	db := setupTracedDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	// Zero threshold marks every query as slow.
	cfg.SlowQueryThresh = 0
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.Register(db))

	tracer := tp.Tracer("test")
	ctx, parent := tracer.Start(context.Background(), "fleet.list")
	var out []tracedModel
	require.NoError(t, db.WithContext(ctx).Find(&out).Error)
	parent.End()

	var slowSeen bool
	for _, span := range sr.Ended() {
		for _, attr := range span.Attributes() {
			if attr.Key == "db.slow_query" && attr.Value.AsBool() {
				slowSeen = true
			}
		}
	}
	assert.True(t, slowSeen, "expected db.slow_query attribute on a span")
}
