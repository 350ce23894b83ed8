package calendar

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=calendar_repo.go -destination=mock/calendar_repo_mock.go -package=mock
type Repository interface {
	ListHolidays(ctx context.Context, from, to time.Time) ([]Holiday, error)
	CreateHoliday(ctx context.Context, h *Holiday) error
	FindHolidayByID(ctx context.Context, id string) (*Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListSundayExceptions(ctx context.Context, from, to time.Time) ([]SundayException, error)
	CreateSundayException(ctx context.Context, e *SundayException) error
	FindSundayExceptionByID(ctx context.Context, id string) (*SundayException, error)
	DeleteSundayException(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListHolidays(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	var holidays []Holiday
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *repository) CreateHoliday(ctx context.Context, h *Holiday) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *repository) FindHolidayByID(ctx context.Context, id string) (*Holiday, error) {
	var h Holiday
	err := r.db.WithContext(ctx).First(&h, "id = ?", id).Error
	return &h, err
}

func (r *repository) DeleteHoliday(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Holiday{}, "id = ?", id).Error
}

func (r *repository) ListSundayExceptions(ctx context.Context, from, to time.Time) ([]SundayException, error) {
	var exceptions []SundayException
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC").
		Find(&exceptions).Error
	return exceptions, err
}

func (r *repository) CreateSundayException(ctx context.Context, e *SundayException) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindSundayExceptionByID(ctx context.Context, id string) (*SundayException, error) {
	var e SundayException
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) DeleteSundayException(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&SundayException{}, "id = ?", id).Error
}
