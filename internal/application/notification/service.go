package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/pkg/id"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// CreateInput describes a notification to persist and deliver.
type CreateInput struct {
	TenantID          string
	UserID            string
	Title             string
	Message           string
	Type              string
	Link              *string
	RelatedEntityType *string
	RelatedEntityID   *string
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*domain.Notification, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (domain.NotificationCount, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error

	Subscribe(userID string) *Subscription
	Unsubscribe(sub *Subscription)
	Publish(userID string, n domain.Notification) bool
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Count(ctx context.Context, userID string) (domain.NotificationCount, error)
	MarkRead(ctx context.Context, notificationID string, readAt time.Time) error
	Delete(ctx context.Context, notificationID string) error
}

type service struct {
	repo     notificationStore
	registry *Registry
	now      func() time.Time
}

type ServiceDeps struct {
	Repo     notificationStore
	Registry *Registry
	Now      func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.Repo, registry: deps.Registry, now: deps.Now}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create persists the notification and then offers it to the user's live
// channel. A store failure skips delivery.
func (s *service) Create(ctx context.Context, in CreateInput) (*domain.Notification, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("notification recipient is required: %w", domain.ErrBadRequest)
	}
	typ := in.Type
	if typ == "" {
		typ = domain.NotificationInfo
	}
	n := &domain.Notification{
		NotificationID:    id.New(),
		TenantID:          in.TenantID,
		UserID:            in.UserID,
		Title:             in.Title,
		Message:           in.Message,
		Type:              typ,
		Link:              in.Link,
		RelatedEntityType: in.RelatedEntityType,
		RelatedEntityID:   in.RelatedEntityID,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	if s.registry.Publish(n.UserID, *n) {
		slog.Debug("notification delivered live", "user_id", n.UserID, "notification_id", n.NotificationID)
	}
	return n, nil
}

func (s *service) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.repo.ListRecent(ctx, userID, clampLimit(limit))
}

func (s *service) CountUnread(ctx context.Context, userID string) (domain.NotificationCount, error) {
	return s.repo.Count(ctx, userID)
}

// MarkRead is a no-op for missing, foreign or already-read notifications.
func (s *service) MarkRead(ctx context.Context, notificationID, userID string) error {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil || n == nil || n.IsRead {
		return err
	}
	return s.repo.MarkRead(ctx, notificationID, s.now().UTC())
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return err
	}
	readAt := s.now().UTC()
	for _, n := range unread {
		if err := s.repo.MarkRead(ctx, n.NotificationID, readAt); err != nil {
			return fmt.Errorf("mark %s read: %w", n.NotificationID, err)
		}
	}
	return nil
}

// Delete is a no-op for missing or foreign notifications.
func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	n, err := s.owned(ctx, notificationID, userID)
	if err != nil || n == nil {
		return err
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *service) Subscribe(userID string) *Subscription { return s.registry.Subscribe(userID) }

func (s *service) Unsubscribe(sub *Subscription) { s.registry.Unsubscribe(sub) }

func (s *service) Publish(userID string, n domain.Notification) bool {
	return s.registry.Publish(userID, n)
}

// owned returns the notification if it exists and belongs to userID, and
// nil otherwise. Only store failures are errors.
func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, nil
	}
	return n, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
