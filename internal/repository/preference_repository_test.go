package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biehatieha/timetable-api/internal/models"
)

func TestPreferenceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_preferences")).
		WithArgs(sqlmock.AnyArg(), "user-1", types.JSONText(`{"mode":1}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pref := &models.TimetablePreference{
		UserID:      "user-1",
		Preferences: types.JSONText(`{"mode":1}`),
	}
	require.NoError(t, repo.Upsert(context.Background(), pref))
	assert.NotEmpty(t, pref.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepositoryFindByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "preferences", "created_at", "updated_at"}).
		AddRow("pref-1", "user-1", types.JSONText(`{"mode":2}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, preferences, created_at, updated_at FROM timetable_preferences WHERE user_id = $1 LIMIT 1")).
		WithArgs("user-1").
		WillReturnRows(rows)

	pref, err := repo.FindByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.JSONEq(t, `{"mode":2}`, string(pref.Preferences))
	assert.NoError(t, mock.ExpectationsWereMet())
}
