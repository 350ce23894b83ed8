package leavetype

import (
	"context"
	"errors"
	"strings"

	leavetypeerrors "go-empconnect/internal/leavetype/errors"
	"go-empconnect/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver is what the leave workflow needs from the catalog.
type Resolver interface {
	Resolve(ctx context.Context, leaveTypeID uuid.UUID, reasonID *uuid.UUID) (*LeaveType, error)
	// Lookup ignores the active flag; requests filed before a type was
	// retired still need its settings.
	Lookup(ctx context.Context, leaveTypeID uuid.UUID) (*LeaveType, error)
}

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	Resolver
	GetAll(ctx context.Context, activeOnly bool) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id string) (LeaveTypeResponse, error)
	Create(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error)
	Update(ctx context.Context, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error)
	Deactivate(ctx context.Context, id string) error
	CreateReason(ctx context.Context, leaveTypeID string, req CreateLeaveReasonRequest) (LeaveReasonResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, logger: l}
}

// Resolve loads an active leave type and, when given, checks that the reason
// is active and filed under that type.
func (s *service) Resolve(ctx context.Context, leaveTypeID uuid.UUID, reasonID *uuid.UUID) (*LeaveType, error) {
	lt, err := s.repo.FindByID(ctx, leaveTypeID)
	if err != nil {
		return nil, mapRepositoryError(err, leavetypeerrors.ErrLeaveTypeNotFound)
	}
	if !lt.IsActive {
		return nil, leavetypeerrors.ErrLeaveTypeInactive
	}
	if reasonID == nil {
		return lt, nil
	}

	reason, err := s.repo.FindReasonByID(ctx, *reasonID)
	if err != nil {
		return nil, mapRepositoryError(err, leavetypeerrors.ErrLeaveReasonNotFound)
	}
	if !reason.BelongsTo(lt.ID) {
		s.logger.Warn("leave reason type mismatch",
			zap.String("leave_type_id", lt.ID.String()),
			zap.String("leave_reason_id", reason.ID.String()),
		)
		return nil, leavetypeerrors.ErrReasonTypeMismatch
	}
	return lt, nil
}

func (s *service) Lookup(ctx context.Context, leaveTypeID uuid.UUID) (*LeaveType, error) {
	lt, err := s.repo.FindByID(ctx, leaveTypeID)
	if err != nil {
		return nil, mapRepositoryError(err, leavetypeerrors.ErrLeaveTypeNotFound)
	}
	return lt, nil
}

func (s *service) GetAll(ctx context.Context, activeOnly bool) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.Error("list leave types failed", zap.Error(err))
		return nil, err
	}
	resp := make([]LeaveTypeResponse, 0, len(types))
	for _, lt := range types {
		resp = append(resp, mapToResponse(lt))
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveTypeResponse, error) {
	lt, err := s.find(ctx, id)
	if err != nil {
		return LeaveTypeResponse{}, err
	}
	return mapToResponse(*lt), nil
}

func (s *service) Create(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave type requested",
		zap.String("request_id", rid),
		zap.String("code", req.Code),
	)

	lt := &LeaveType{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(req.Name),
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		IsDeducted: req.IsDeducted,
		GoToClinic: req.GoToClinic,
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, lt); err != nil {
		if isUniqueViolation(err) {
			return LeaveTypeResponse{}, leavetypeerrors.ErrLeaveTypeCodeExists
		}
		s.logger.Error("create leave type persist failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveTypeResponse{}, err
	}

	s.logger.Info("leave type created",
		zap.String("request_id", rid),
		zap.String("leave_type_id", lt.ID.String()),
		zap.String("code", lt.Code),
	)
	return mapToResponse(*lt), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error) {
	lt, err := s.find(ctx, id)
	if err != nil {
		return LeaveTypeResponse{}, err
	}

	lt.Name = strings.TrimSpace(req.Name)
	lt.IsDeducted = req.IsDeducted
	lt.GoToClinic = req.GoToClinic
	if req.IsActive != nil {
		lt.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, lt); err != nil {
		s.logger.Error("update leave type failed", zap.String("leave_type_id", id), zap.Error(err))
		return LeaveTypeResponse{}, err
	}

	s.logger.Info("leave type updated", zap.String("leave_type_id", id))
	return mapToResponse(*lt), nil
}

// Deactivate hides the type from new requests. Existing requests and balances
// keep pointing at it.
func (s *service) Deactivate(ctx context.Context, id string) error {
	lt, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !lt.IsActive {
		return nil
	}
	lt.IsActive = false
	if err := s.repo.Update(ctx, lt); err != nil {
		s.logger.Error("deactivate leave type failed", zap.String("leave_type_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("leave type deactivated", zap.String("leave_type_id", id))
	return nil
}

func (s *service) CreateReason(ctx context.Context, leaveTypeID string, req CreateLeaveReasonRequest) (LeaveReasonResponse, error) {
	lt, err := s.find(ctx, leaveTypeID)
	if err != nil {
		return LeaveReasonResponse{}, err
	}

	reason := &LeaveReason{
		ID:          uuid.New(),
		LeaveTypeID: lt.ID,
		Name:        strings.TrimSpace(req.Name),
		IsActive:    true,
	}
	if err := s.repo.CreateReason(ctx, reason); err != nil {
		s.logger.Error("create leave reason failed", zap.String("leave_type_id", leaveTypeID), zap.Error(err))
		return LeaveReasonResponse{}, err
	}
	return mapReason(*reason), nil
}

func (s *service) find(ctx context.Context, id string) (*LeaveType, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, leavetypeerrors.ErrInvalidLeaveTypeID
	}
	lt, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, mapRepositoryError(err, leavetypeerrors.ErrLeaveTypeNotFound)
	}
	return lt, nil
}

func mapRepositoryError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapReason(r LeaveReason) LeaveReasonResponse {
	return LeaveReasonResponse{
		ID:          r.ID.String(),
		LeaveTypeID: r.LeaveTypeID.String(),
		Name:        r.Name,
		IsActive:    r.IsActive,
	}
}

func mapToResponse(lt LeaveType) LeaveTypeResponse {
	resp := LeaveTypeResponse{
		ID:         lt.ID.String(),
		Name:       lt.Name,
		Code:       lt.Code,
		IsDeducted: lt.IsDeducted,
		GoToClinic: lt.GoToClinic,
		IsActive:   lt.IsActive,
	}
	for _, r := range lt.Reasons {
		resp.Reasons = append(resp.Reasons, mapReason(r))
	}
	return resp
}
