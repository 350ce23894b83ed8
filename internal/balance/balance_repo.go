package balance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the part of the repository the ledger needs. Bind it to the
// transition's transaction before handing it over; bound reads lock the
// balance rows until commit.
type Store interface {
	ListByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID uuid.UUID) ([]LeaveBalance, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LeaveBalance, error)
	Save(ctx context.Context, b *LeaveBalance) error
	AppendAllocation(ctx context.Context, a *Allocation) error
	ListAllocations(ctx context.Context, leaveRequestID uuid.UUID) ([]Allocation, error)
}

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	Store
	WithTx(tx *sql.Tx) Repository
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveBalance, error)
	Create(ctx context.Context, b *LeaveBalance) error
	// UpdateLocked loads the balance FOR UPDATE, applies mutate and saves
	// it in one transaction.
	UpdateLocked(ctx context.Context, id uuid.UUID, mutate func(*LeaveBalance) error) (*LeaveBalance, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn runs statements on the bound *sql.Tx when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

// locked adds FOR UPDATE when the repository is bound to a transaction.
func (r *repository) locked(ctx context.Context) *gorm.DB {
	db := r.conn(ctx)
	if r.tx != nil {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *repository) ListByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID uuid.UUID) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.locked(ctx).
		Where("employee_id = ? AND leave_type_id = ?", employeeID, leaveTypeID).
		Order("valid_from ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("leave_type_id ASC, valid_from ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LeaveBalance, error) {
	var b LeaveBalance
	if err := r.locked(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) Save(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) UpdateLocked(ctx context.Context, id uuid.UUID, mutate func(*LeaveBalance) error) (*LeaveBalance, error) {
	var b LeaveBalance
	run := func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if err := mutate(&b); err != nil {
			return err
		}
		b.Recompute()
		return tx.Save(&b).Error
	}

	var err error
	if r.tx != nil {
		err = run(r.conn(ctx))
	} else {
		err = r.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) AppendAllocation(ctx context.Context, a *Allocation) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) ListAllocations(ctx context.Context, leaveRequestID uuid.UUID) ([]Allocation, error) {
	var rows []Allocation
	err := r.conn(ctx).
		Where("leave_request_id = ?", leaveRequestID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
