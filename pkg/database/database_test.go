package database

import (
	"testing"

	"lms_backend/internal/config"
	"lms_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBSqliteMigrates(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:?cache=shared"}, "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&model.Enrollment{}, "idx_enrollment_user_course"))
	assert.True(t, db.Migrator().HasIndex(&model.QuizAttempt{}, "idx_attempt_number"))
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}, "test")
	assert.Error(t, err)
}
