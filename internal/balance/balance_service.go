package balance

import (
	"context"
	"errors"
	"time"

	balanceerrors "go-empconnect/internal/balance/errors"
	"go-empconnect/internal/shared/contextutil"
	"go-empconnect/internal/shared/dateutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]BalanceResponse, error)
	Create(ctx context.Context, req CreateBalanceRequest) (BalanceResponse, error)
	Adjust(ctx context.Context, id string, req AdjustBalanceRequest) (BalanceResponse, error)
}

type service struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{repo: repo, now: time.Now, logger: l}
}

func (s *service) ListForEmployee(ctx context.Context, employeeID string) ([]BalanceResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidEmployeeID
	}
	balances, err := s.repo.ListByEmployee(ctx, empID)
	if err != nil {
		s.logger.Error("list balances failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	resp := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		resp = append(resp, mapToResponse(b, now))
	}
	return resp, nil
}

func (s *service) Create(ctx context.Context, req CreateBalanceRequest) (BalanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create balance requested",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
	)

	empID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	typeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidLeaveTypeID
	}
	from, errFrom := dateutil.Parse(req.ValidFrom)
	to, errTo := dateutil.Parse(req.ValidTo)
	if errFrom != nil || errTo != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidWindow
	}
	if to.Before(from) {
		s.logger.Warn("create balance inverted window",
			zap.String("valid_from", req.ValidFrom),
			zap.String("valid_to", req.ValidTo),
		)
		return BalanceResponse{}, balanceerrors.ErrInvalidWindow
	}
	if req.Entitled.IsNegative() || req.Used.IsNegative() {
		return BalanceResponse{}, balanceerrors.ErrNegativeAmount
	}

	b := &LeaveBalance{
		ID:          uuid.New(),
		EmployeeID:  empID,
		LeaveTypeID: typeID,
		Entitled:    req.Entitled,
		Used:        req.Used,
		ValidFrom:   from,
		ValidTo:     to,
	}
	b.Recompute()

	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("create balance persist failed", zap.String("request_id", rid), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.logger.Info("balance created",
		zap.String("request_id", rid),
		zap.String("balance_id", b.ID.String()),
		zap.String("entitled", b.Entitled.String()),
	)
	return mapToResponse(*b, s.now()), nil
}

// Adjust is the manual correction path. Used may later be lower than what a
// cancelled request gives back; Restore floors it at zero. The row is locked
// for the read-modify-write so a concurrent deduction is not overwritten.
func (s *service) Adjust(ctx context.Context, id string, req AdjustBalanceRequest) (BalanceResponse, error) {
	balanceID, err := uuid.Parse(id)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidBalanceID
	}
	if (req.Entitled != nil && req.Entitled.IsNegative()) || (req.Used != nil && req.Used.IsNegative()) {
		return BalanceResponse{}, balanceerrors.ErrNegativeAmount
	}

	b, err := s.repo.UpdateLocked(ctx, balanceID, func(b *LeaveBalance) error {
		if req.Entitled != nil {
			b.Entitled = *req.Entitled
		}
		if req.Used != nil {
			b.Used = *req.Used
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		s.logger.Error("adjust balance failed", zap.String("balance_id", id), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.logger.Info("balance adjusted",
		zap.String("balance_id", id),
		zap.String("entitled", b.Entitled.String()),
		zap.String("used", b.Used.String()),
	)
	return mapToResponse(*b, s.now()), nil
}

func mapToResponse(b LeaveBalance, now time.Time) BalanceResponse {
	return BalanceResponse{
		ID:             b.ID.String(),
		EmployeeID:     b.EmployeeID.String(),
		LeaveTypeID:    b.LeaveTypeID.String(),
		Entitled:       b.Entitled,
		Used:           b.Used,
		Remaining:      b.Remaining,
		ValidFrom:      dateutil.Format(b.ValidFrom),
		ValidTo:        dateutil.Format(b.ValidTo),
		ValidityStatus: b.ValidityStatus(now),
	}
}
