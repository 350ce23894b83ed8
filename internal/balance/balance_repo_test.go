package balance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-empconnect/internal/balance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var balanceColumns = []string{"id", "employee_id", "leave_type_id", "entitled", "used", "remaining", "valid_from", "valid_to", "created_at", "updated_at"}

func setupBalanceRepo(t *testing.T) (balance.Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return balance.NewRepository(gormDB), mock, db
}

func balanceRows(id, empID, typeID uuid.UUID, used string) *sqlmock.Rows {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(balanceColumns).
		AddRow(id.String(), empID.String(), typeID.String(), "10.00", used, "0", from, to, from, from)
}

func TestBalanceRepository_BoundReadsLockRows(t *testing.T) {
	ctx := context.Background()
	repo, mock, db := setupBalanceRepo(t)
	empID, typeID, id := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leave_balances" WHERE employee_id = \$1 AND leave_type_id = \$2 ORDER BY valid_from ASC FOR UPDATE`).
		WithArgs(empID, typeID).
		WillReturnRows(balanceRows(id, empID, typeID, "3.00"))
	mock.ExpectQuery(`SELECT \* FROM "leave_balances" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(balanceRows(id, empID, typeID, "3.00"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	bound := repo.WithTx(tx)

	rows, err := bound.ListByEmployeeAndType(ctx, empID, typeID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Used.Equal(decimal.NewFromInt(3)))

	b, err := bound.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepository_UpdateLocked(t *testing.T) {
	ctx := context.Background()
	empID, typeID, id := uuid.New(), uuid.New(), uuid.New()

	t.Run("locks, mutates and saves in one transaction", func(t *testing.T) {
		repo, mock, _ := setupBalanceRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "leave_balances" WHERE id = \$1 .*FOR UPDATE`).
			WillReturnRows(balanceRows(id, empID, typeID, "3.00"))
		mock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := repo.UpdateLocked(ctx, id, func(b *balance.LeaveBalance) error {
			b.Used = b.Used.Add(decimal.NewFromInt(2))
			return nil
		})
		require.NoError(t, err)
		assert.True(t, b.Used.Equal(decimal.NewFromInt(5)))
		assert.True(t, b.Remaining.Equal(decimal.NewFromInt(5)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row rolls back", func(t *testing.T) {
		repo, mock, _ := setupBalanceRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "leave_balances" WHERE id = \$1 .*FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows(balanceColumns))
		mock.ExpectRollback()

		_, err := repo.UpdateLocked(ctx, id, func(b *balance.LeaveBalance) error { return nil })
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
