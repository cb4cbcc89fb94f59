package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcloud/internal/domain"
)

func setupMockSettingsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresSettingsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresSettingsRepository(db)
	return db, mock, repo
}

func TestSettingsGet_Success(t *testing.T) {
	db, mock, repo := setupMockSettingsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT key_value FROM system_setting`).
		WithArgs("schedule", "schedule_frequency").
		WillReturnRows(sqlmock.NewRows([]string{"key_value"}).AddRow("daily"))

	value, err := repo.Get(context.Background(), "schedule", "schedule_frequency")

	require.NoError(t, err)
	assert.Equal(t, "daily", value)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsGet_NotFound(t *testing.T) {
	db, mock, repo := setupMockSettingsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT key_value FROM system_setting`).
		WithArgs("schedule", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "schedule", "missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsGetCategory(t *testing.T) {
	db, mock, repo := setupMockSettingsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"key_name", "key_value"}).
		AddRow("schedule_frequency", "weekly").
		AddRow("schedule_day", "friday").
		AddRow("next_run_time", nil)

	mock.ExpectQuery(`SELECT key_name, key_value FROM system_setting`).
		WithArgs("schedule").
		WillReturnRows(rows)

	values, err := repo.GetCategory(context.Background(), "schedule")

	require.NoError(t, err)
	assert.Equal(t, "weekly", values["schedule_frequency"])
	assert.Equal(t, "friday", values["schedule_day"])
	// NULL值读作空串
	assert.Equal(t, "", values["next_run_time"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsUpsert(t *testing.T) {
	db, mock, repo := setupMockSettingsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO system_setting`).
		WithArgs("ai", "prompt_template", "List tags.", domain.SettingTypeString, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), "ai", "prompt_template", "List tags.", domain.SettingTypeString)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsUpsert_DefaultsKeyType(t *testing.T) {
	db, mock, repo := setupMockSettingsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO system_setting`).
		WithArgs("site", "title", "My Blog", domain.SettingTypeString, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), "site", "title", "My Blog", "")
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsUpsert_RequiresCategoryAndKey(t *testing.T) {
	db, _, repo := setupMockSettingsDB(t)
	defer db.Close()

	assert.Error(t, repo.Upsert(context.Background(), "", "k", "v", ""))
	assert.Error(t, repo.Upsert(context.Background(), "c", "", "v", ""))
}
