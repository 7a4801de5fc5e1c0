package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBName)
}

func TestDBTracingPlugin_Name(t *testing.T) {
	assert.Equal(t, "card_ledger:db_tracing", NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()).Name())
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := DefaultDBTracingConfig()
	cfg.SlowQueryThresh = -1
	require.NoError(t, db.Use(NewDBTracingPlugin(cfg, zap.New(core))))

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Zero(t, logs.Len(), "disabled plugin registers no callbacks")
}

func TestDBTracingPlugin_LogsSlowQueries(t *testing.T) {
	db := setupTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = -1 // every statement counts as slow
	require.NoError(t, db.Use(NewDBTracingPlugin(cfg, zap.New(core))))

	require.NoError(t, db.Create(&tracedRow{Name: "slow"}).Error)

	var rows []tracedRow
	require.NoError(t, db.Find(&rows).Error)

	slow := logs.FilterMessage("Slow query").All()
	require.Len(t, slow, 2)
	assert.Equal(t, "traced_rows", slow[0].ContextMap()["table"])
}

func TestDBTracingPlugin_FastQueriesAreQuiet(t *testing.T) {
	db := setupTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Hour
	require.NoError(t, db.Use(NewDBTracingPlugin(cfg, zap.New(core))))

	require.NoError(t, db.Create(&tracedRow{Name: "fast"}).Error)
	assert.Zero(t, logs.Len())
}
