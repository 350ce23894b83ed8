package counter_test

import (
	"context"
	"errors"
	"testing"

	"go-empconnect/internal/shared/counter"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupCounterRepo(t *testing.T) (counter.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)

	return counter.NewRepository(gormDB), mock
}

func TestCounterRepository_GetNextValue(t *testing.T) {
	ctx := context.Background()

	t.Run("returns upserted value", func(t *testing.T) {
		repo, mock := setupCounterRepo(t)
		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WithArgs(counter.LeaveControlNumber).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

		got, err := repo.GetNextValue(ctx, counter.LeaveControlNumber)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates db error", func(t *testing.T) {
		repo, mock := setupCounterRepo(t)
		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WillReturnError(errors.New("db down"))

		_, err := repo.GetNextValue(ctx, counter.LeaveControlNumber)

		assert.Error(t, err)
	})
}
