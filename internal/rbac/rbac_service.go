package rbac

import (
	"context"

	"go-empconnect/internal/employee"

	"github.com/casbin/casbin/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(ctx context.Context, req EnforceRequest) (bool, error)
	Permissions(ctx context.Context, employeeID string) ([]PermissionResponse, error)
}

type service struct {
	directory employee.Directory
	enforcer  *casbin.SyncedEnforcer
	logger    *zap.Logger
}

func NewService(directory employee.Directory, enforcer *casbin.SyncedEnforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{directory: directory, enforcer: enforcer, logger: l}
}

// subjects lists the implicit employee role followed by every directory role.
func (s *service) subjects(ctx context.Context, employeeID string) ([]string, error) {
	id, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, err
	}
	ref, err := s.directory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return append([]string{SubjectEmployee}, ref.Roles.Strings()...), nil
}

func (s *service) Enforce(ctx context.Context, req EnforceRequest) (bool, error) {
	subjects, err := s.subjects(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Warn("rbac resolve subjects failed",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
		return false, err
	}

	for _, sub := range subjects {
		ok, err := s.enforcer.Enforce(sub, req.Resource, req.Action)
		if err != nil {
			s.logger.Error("rbac enforce failed", zap.String("subject", sub), zap.Error(err))
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	s.logger.Debug("rbac denied",
		zap.String("employee_id", req.EmployeeID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Strings("roles", subjects),
	)
	return false, nil
}

func (s *service) Permissions(ctx context.Context, employeeID string) ([]PermissionResponse, error) {
	subjects, err := s.subjects(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var perms []PermissionResponse
	for _, sub := range subjects {
		rules, err := s.enforcer.GetFilteredPolicy(0, sub)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			if len(rule) < 3 {
				continue
			}
			perms = append(perms, PermissionResponse{Role: rule[0], Resource: rule[1], Action: rule[2]})
		}
	}
	return perms, nil
}
