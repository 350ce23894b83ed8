package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	calendarerrors "go-empconnect/internal/calendar/errors"
	"go-empconnect/internal/shared/contextutil"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	YearKeyPrefix   = "calendar:year:"
	DefaultCacheTTL = 30 * time.Minute
)

func YearKey(year int) string {
	return fmt.Sprintf("%s%d", YearKeyPrefix, year)
}

// Source supplies the calendar used by working-day counts.
//
//go:generate mockgen -source=calendar_service.go -destination=mock/calendar_service_mock.go -package=mock
type Source interface {
	Snapshot(ctx context.Context, start, end time.Time) (Snapshot, error)
}

type Service interface {
	Source
	ListHolidays(ctx context.Context, year int) ([]HolidayResponse, error)
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string) error
	ListSundayExceptions(ctx context.Context, year int) ([]SundayExceptionResponse, error)
	CreateSundayException(ctx context.Context, req CreateSundayExceptionRequest) (SundayExceptionResponse, error)
	DeleteSundayException(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	ttl    time.Duration
	sf     *singleflight.Group
	logger *zap.Logger

	// generation is bumped per year on every calendar write; a load that
	// saw an older generation is not cached.
	mu         sync.Mutex
	generation map[int]uint64
}

func NewService(repo Repository, rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("calendar.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("calendar.service")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &service{
		repo:       repo,
		rdb:        rdb,
		ttl:        ttl,
		sf:         &singleflight.Group{},
		logger:     l,
		generation: map[int]uint64{},
	}
}

func (s *service) generationOf(year int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation[year]
}

func (s *service) Snapshot(ctx context.Context, start, end time.Time) (Snapshot, error) {
	if end.Before(start) {
		return NewSnapshot(nil, nil), nil
	}

	var holidays, exceptions []time.Time
	for y := start.Year(); y <= end.Year(); y++ {
		yc, err := s.loadYear(ctx, y)
		if err != nil {
			return Snapshot{}, err
		}
		for _, v := range yc.Holidays {
			if d, err := dateutil.Parse(v); err == nil {
				holidays = append(holidays, d)
			}
		}
		for _, v := range yc.SundayExceptions {
			if d, err := dateutil.Parse(v); err == nil {
				exceptions = append(exceptions, d)
			}
		}
	}
	return NewSnapshot(holidays, exceptions), nil
}

func (s *service) loadYear(ctx context.Context, year int) (YearCalendar, error) {
	key := YearKey(year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var yc YearCalendar
			if json.Unmarshal([]byte(cached), &yc) == nil {
				return yc, nil
			}
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		gen := s.generationOf(year)
		from, to := yearBounds(year)
		holidays, err := s.repo.ListHolidays(ctx, from, to)
		if err != nil {
			return nil, err
		}
		exceptions, err := s.repo.ListSundayExceptions(ctx, from, to)
		if err != nil {
			return nil, err
		}

		yc := YearCalendar{
			Year:             year,
			Holidays:         make([]string, 0, len(holidays)),
			SundayExceptions: make([]string, 0, len(exceptions)),
		}
		for _, h := range holidays {
			yc.Holidays = append(yc.Holidays, dateutil.Format(h.Date))
		}
		for _, e := range exceptions {
			yc.SundayExceptions = append(yc.SundayExceptions, dateutil.Format(e.Date))
		}

		if s.rdb != nil {
			if s.generationOf(year) != gen {
				s.logger.Debug("calendar year changed during load, not cached", zap.Int("year", year))
				return yc, nil
			}
			if data, err := json.Marshal(yc); err == nil {
				if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
					s.logger.Warn("cache calendar year failed", zap.Int("year", year), zap.Error(err))
				}
			}
		}
		return yc, nil
	})
	if err != nil {
		s.logger.Error("load calendar year failed", zap.Int("year", year), zap.Error(err))
		return YearCalendar{}, err
	}
	return v.(YearCalendar), nil
}

func (s *service) invalidate(ctx context.Context, year int) {
	key := YearKey(year)
	s.mu.Lock()
	s.generation[year]++
	s.mu.Unlock()
	s.sf.Forget(key)

	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("invalidate calendar cache failed", zap.Int("year", year), zap.Error(err))
	}
}

func (s *service) ListHolidays(ctx context.Context, year int) ([]HolidayResponse, error) {
	if year < 1 {
		return nil, calendarerrors.ErrInvalidYear
	}
	from, to := yearBounds(year)
	holidays, err := s.repo.ListHolidays(ctx, from, to)
	if err != nil {
		s.logger.Error("list holidays failed", zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	resp := make([]HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		resp = append(resp, mapHoliday(h))
	}
	return resp, nil
}

func (s *service) CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create holiday requested",
		zap.String("request_id", rid),
		zap.String("date", req.Date),
		zap.String("type", req.Type),
	)

	date, err := dateutil.Parse(req.Date)
	if err != nil {
		s.logger.Warn("create holiday invalid date", zap.String("date", req.Date))
		return HolidayResponse{}, calendarerrors.ErrInvalidDateFormat
	}
	hType := HolidayType(req.Type)
	if !hType.Valid() {
		return HolidayResponse{}, calendarerrors.ErrInvalidHolidayType
	}

	h := &Holiday{ID: uuid.New(), Date: date, Name: req.Name, Type: hType}
	if err := s.repo.CreateHoliday(ctx, h); err != nil {
		s.logger.Error("create holiday persist failed", zap.String("request_id", rid), zap.Error(err))
		return HolidayResponse{}, err
	}
	s.invalidate(ctx, date.Year())

	s.logger.Info("holiday created",
		zap.String("request_id", rid),
		zap.String("holiday_id", h.ID.String()),
		zap.String("date", req.Date),
	)
	return mapHoliday(*h), nil
}

func (s *service) DeleteHoliday(ctx context.Context, id string) error {
	h, err := s.repo.FindHolidayByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return calendarerrors.ErrHolidayNotFound
		}
		return err
	}
	if err := s.repo.DeleteHoliday(ctx, id); err != nil {
		s.logger.Error("delete holiday failed", zap.String("holiday_id", id), zap.Error(err))
		return err
	}
	s.invalidate(ctx, h.Date.Year())
	s.logger.Info("holiday deleted", zap.String("holiday_id", id))
	return nil
}

func (s *service) ListSundayExceptions(ctx context.Context, year int) ([]SundayExceptionResponse, error) {
	if year < 1 {
		return nil, calendarerrors.ErrInvalidYear
	}
	from, to := yearBounds(year)
	exceptions, err := s.repo.ListSundayExceptions(ctx, from, to)
	if err != nil {
		s.logger.Error("list sunday exceptions failed", zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	resp := make([]SundayExceptionResponse, 0, len(exceptions))
	for _, e := range exceptions {
		resp = append(resp, mapSundayException(e))
	}
	return resp, nil
}

func (s *service) CreateSundayException(ctx context.Context, req CreateSundayExceptionRequest) (SundayExceptionResponse, error) {
	date, err := dateutil.Parse(req.Date)
	if err != nil {
		return SundayExceptionResponse{}, calendarerrors.ErrInvalidDateFormat
	}
	if date.Weekday() != time.Sunday {
		s.logger.Warn("create sunday exception rejected", zap.String("date", req.Date))
		return SundayExceptionResponse{}, calendarerrors.ErrNotSunday
	}

	e := &SundayException{ID: uuid.New(), Date: date, Note: req.Note}
	if err := s.repo.CreateSundayException(ctx, e); err != nil {
		if isUniqueViolation(err) {
			return SundayExceptionResponse{}, calendarerrors.ErrSundayExceptionExists
		}
		s.logger.Error("create sunday exception persist failed", zap.Error(err))
		return SundayExceptionResponse{}, err
	}
	s.invalidate(ctx, date.Year())

	s.logger.Info("sunday exception created",
		zap.String("exception_id", e.ID.String()),
		zap.String("date", req.Date),
	)
	return mapSundayException(*e), nil
}

func (s *service) DeleteSundayException(ctx context.Context, id string) error {
	e, err := s.repo.FindSundayExceptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return calendarerrors.ErrSundayExceptionNotFound
		}
		return err
	}
	if err := s.repo.DeleteSundayException(ctx, id); err != nil {
		s.logger.Error("delete sunday exception failed", zap.String("exception_id", id), zap.Error(err))
		return err
	}
	s.invalidate(ctx, e.Date.Year())
	return nil
}

func yearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapHoliday(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:   h.ID.String(),
		Date: dateutil.Format(h.Date),
		Name: h.Name,
		Type: string(h.Type),
	}
}

func mapSundayException(e SundayException) SundayExceptionResponse {
	return SundayExceptionResponse{
		ID:   e.ID.String(),
		Date: dateutil.Format(e.Date),
		Note: e.Note,
	}
}
