package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/model"
)

// LayoutRepo stores one JSON layout document per type.
type LayoutRepo struct{ DB *sql.DB }

func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{DB: db} }

// Create inserts l. The unique type column turns a second layout of the
// same type into apperr.ErrAlreadyExists.
func (r *LayoutRepo) Create(ctx context.Context, l *model.Layout) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	doc, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO layouts (id, type, doc) VALUES (?,?,?)", l.ID, l.Type, doc)
	return translate("create layout", err)
}

// GetByType fetches the layout of the given type.
func (r *LayoutRepo) GetByType(ctx context.Context, typ string) (model.Layout, error) {
	var doc []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT doc FROM layouts WHERE type=? LIMIT 1", typ).Scan(&doc)
	if err != nil {
		return model.Layout{}, translate("get layout", err)
	}
	var l model.Layout
	if err := json.Unmarshal(doc, &l); err != nil {
		return model.Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// Update replaces the document of the layout with l.Type.
func (r *LayoutRepo) Update(ctx context.Context, l *model.Layout) error {
	doc, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE layouts SET doc=? WHERE type=?", doc, l.Type)
	if err != nil {
		return translate("update layout", err)
	}
	return affectedOne("update layout", res)
}
