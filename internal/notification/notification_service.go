package notification

import (
	"context"
	"errors"
	"time"

	"go-empconnect/internal/events"
	notificationerrors "go-empconnect/internal/notification/errors"
	"go-empconnect/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Service interface {
	// Ingest stores a delivered event. Redelivery of the same event id is a no-op.
	Ingest(ctx context.Context, event events.LeaveNotificationEvent) (bool, error)
	ListMine(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID, id string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Ingest(ctx context.Context, event events.LeaveNotificationEvent) (bool, error) {
	id, err := uuid.Parse(event.EventID)
	if err != nil {
		return false, notificationerrors.ErrInvalidNotificationID
	}
	recipient, err := uuid.Parse(event.RecipientID)
	if err != nil {
		return false, notificationerrors.ErrInvalidRecipient
	}

	n := &Notification{
		ID:          id,
		RecipientID: recipient,
		Title:       event.Title,
		Message:     event.Message,
		Kind:        event.Kind,
		CreatedAt:   event.OccurredAt,
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if ref, err := uuid.Parse(event.LeaveRequestID); err == nil {
		n.ReferenceID = &ref
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) ListMine(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]NotificationResponse, error) {
	rows, err := s.repo.ListForRecipient(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		out = append(out, mapNotification(n))
	}
	return out, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID uuid.UUID, id string) error {
	nid, err := uuid.Parse(id)
	if err != nil {
		return notificationerrors.ErrInvalidNotificationID
	}
	ok, err := s.repo.MarkRead(ctx, nid, recipientID)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("mark notification read failed",
			zap.String("notification_id", id),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		return notificationerrors.ErrNotificationNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
