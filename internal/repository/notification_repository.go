package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/model"
)

// NotificationRepo stores admin notifications.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = "id, user_id, title, message, status, created_at, updated_at"

// Create inserts n as unread.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Status == "" {
		n.Status = model.NotificationUnread
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications ("+notificationColumns+") VALUES (?,?,?,?,?,?,?)",
		n.ID, n.UserID, n.Title, n.Message, n.Status, n.CreatedAt, n.UpdatedAt)
	return translate("create notification", err)
}

// Get fetches one notification.
func (r *NotificationRepo) Get(ctx context.Context, id string) (model.Notification, error) {
	var n model.Notification
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	return n, translate("get notification", err)
}

// List returns all notifications, newest first.
func (r *NotificationRepo) List(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications ORDER BY created_at DESC")
	if err != nil {
		return nil, translate("list notifications", err)
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, translate("list notifications", err)
		}
		out = append(out, n)
	}
	return out, translate("list notifications", rows.Err())
}

// SetStatus changes the status of one notification.
func (r *NotificationRepo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET status=?, updated_at=? WHERE id=?", status, time.Now().UTC(), id)
	if err != nil {
		return translate("update notification", err)
	}
	return affectedOne("update notification", res)
}

// DeleteReadBefore removes read notifications created before cutoff and
// returns how many went.
func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notifications WHERE status=? AND created_at < ?", model.NotificationRead, cutoff)
	if err != nil {
		return 0, translate("sweep notifications", err)
	}
	n, err := res.RowsAffected()
	return n, translate("sweep notifications", err)
}
