package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/model"
)

// OrderRepo stores course purchases.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create inserts o, assigning id and timestamp.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	var info any
	if len(o.PaymentInfo) > 0 {
		info = []byte(o.PaymentInfo)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO orders (id, course_id, user_id, payment_info, created_at) VALUES (?,?,?,?,?)",
		o.ID, o.CourseID, o.UserID, info, o.CreatedAt)
	return translate("create order", err)
}

// List returns all orders, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, course_id, user_id, payment_info, created_at FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, translate("list orders", err)
	}
	defer rows.Close()
	var out []model.Order
	for rows.Next() {
		var (
			o    model.Order
			info []byte
		)
		if err := rows.Scan(&o.ID, &o.CourseID, &o.UserID, &info, &o.CreatedAt); err != nil {
			return nil, translate("list orders", err)
		}
		if len(info) > 0 {
			o.PaymentInfo = info
		}
		out = append(out, o)
	}
	return out, translate("list orders", rows.Err())
}
