package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/model"
)

// CourseRepo stores each course as one JSON document plus a version
// number. Save only succeeds against the version that was read, so two
// writers appending to the same nested array cannot silently drop each
// other's entries.
type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

// Create inserts c with version 1.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Version = 1
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO courses (id, doc, version, created_at, updated_at) VALUES (?,?,?,?,?)",
		c.ID, doc, c.Version, c.CreatedAt, c.UpdatedAt)
	return translate("create course", err)
}

// Get loads the course document and its current version.
func (r *CourseRepo) Get(ctx context.Context, id string) (model.Course, error) {
	var (
		doc     []byte
		version int64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT doc, version FROM courses WHERE id=? LIMIT 1", id).Scan(&doc, &version)
	if err != nil {
		return model.Course{}, translate("get course", err)
	}
	return decodeCourse(doc, version)
}

// List returns every course, newest first.
func (r *CourseRepo) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT doc, version FROM courses ORDER BY created_at DESC")
	if err != nil {
		return nil, translate("list courses", err)
	}
	defer rows.Close()
	var out []model.Course
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, translate("list courses", err)
		}
		c, err := decodeCourse(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, translate("list courses", rows.Err())
}

// Save writes the whole document if nobody saved since c was read. On
// success c.Version is advanced; a lost race is apperr.ErrConflict.
func (r *CourseRepo) Save(ctx context.Context, c *model.Course) error {
	c.UpdatedAt = time.Now().UTC()
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE courses SET doc=?, version=version+1, updated_at=? WHERE id=? AND version=?",
		doc, c.UpdatedAt, c.ID, c.Version)
	if err != nil {
		return translate("save course", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save course %s at version %d: %w", c.ID, c.Version, apperr.ErrConflict)
	}
	c.Version++
	return nil
}

// Delete removes the course; an unknown id is apperr.ErrNotFound.
func (r *CourseRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM courses WHERE id=?", id)
	if err != nil {
		return translate("delete course", err)
	}
	return affectedOne("delete course", res)
}

func decodeCourse(doc []byte, version int64) (model.Course, error) {
	var c model.Course
	if err := json.Unmarshal(doc, &c); err != nil {
		return model.Course{}, fmt.Errorf("decode course: %w", err)
	}
	c.Version = version
	return c, nil
}
