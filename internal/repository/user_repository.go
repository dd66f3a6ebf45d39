package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/model"
)

// UserRepo is the Credential Store: users keyed by id with a unique,
// lower-cased email.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,avatar,role,is_verified,courses,created_at,updated_at"

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u, assigning an id and timestamps when they are empty.
// A taken email yields apperr.ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Email = NormalizeEmail(u.Email)
	courses, err := marshalCourses(u.Courses)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.Role, u.IsVerified, courses, u.CreatedAt, u.UpdatedAt)
	return translate("create user", err)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	u, err := scanUser(row)
	return u, translate("get user by email", err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	return u, translate("get user", err)
}

// EmailExists reports whether an account already uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", NormalizeEmail(email)).Scan(&n)
	if err != nil {
		return false, translate("check email", err)
	}
	return n > 0, nil
}

// Update writes every mutable column of u and refreshes UpdatedAt.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	courses, err := marshalCourses(u.Courses)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?,email=?,password_hash=?,avatar=?,role=?,is_verified=?,courses=?,updated_at=? WHERE id=?",
		u.Name, NormalizeEmail(u.Email), u.PasswordHash, u.Avatar, u.Role, u.IsVerified, courses, u.UpdatedAt, u.ID)
	if err != nil {
		return translate("update user", err)
	}
	return affectedOne("update user", res)
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("list users", err)
		}
		out = append(out, u)
	}
	return out, translate("list users", rows.Err())
}

// Delete removes the user; an unknown id is apperr.ErrNotFound.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return translate("delete user", err)
	}
	return affectedOne("delete user", res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u       model.User
		courses []byte
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.IsVerified,
		&courses, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if len(courses) > 0 {
		if err := json.Unmarshal(courses, &u.Courses); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

func marshalCourses(cs []model.CourseRef) ([]byte, error) {
	if cs == nil {
		cs = []model.CourseRef{}
	}
	return json.Marshal(cs)
}
