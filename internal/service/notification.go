package service

import (
	"context"

	"github.com/iliyamo/lms-backend/internal/model"
)

// NotificationService serves the admin notification feed.
type NotificationService struct {
	Notifications NotificationStore
}

// List returns every notification, newest first.
func (s *NotificationService) List(ctx context.Context) ([]model.Notification, error) {
	return s.Notifications.List(ctx)
}

// MarkRead sets the notification's status to read and returns the
// refreshed feed. Marking an already read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id string) ([]model.Notification, error) {
	if _, err := s.Notifications.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.Notifications.SetStatus(ctx, id, model.NotificationRead); err != nil {
		return nil, err
	}
	return s.Notifications.List(ctx)
}
