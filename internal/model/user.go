package model

import "time"

// Role values. The set is open; only these two are granted anything.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CourseRef is an enrollment entry on a user.
type CourseRef struct {
	CourseID string `json:"courseId"`
}

// User represents an account as stored in the `users` table. The same
// struct, serialized to JSON, is the session snapshot held in Redis;
// PasswordHash is never serialized so the snapshot carries no credential.
//
// Fields:
//
//	ID           – users.id, a UUID string; also the session key.
//	Name         – display name.
//	Email        – unique, normalized to lower case.
//	PasswordHash – bcrypt hash.
//	Avatar       – avatar URL (optional).
//	Role         – "user" or "admin".
//	IsVerified   – set for social sign-ins.
//	Courses      – purchased course references.
type User struct {
	ID           string      `json:"_id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Avatar       string      `json:"avatar,omitempty"`
	Role         string      `json:"role"`
	IsVerified   bool        `json:"isVerified"`
	Courses      []CourseRef `json:"courses"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasCourse reports whether the user is enrolled in the course.
func (u User) HasCourse(courseID string) bool {
	for _, c := range u.Courses {
		if c.CourseID == courseID {
			return true
		}
	}
	return false
}

// Summary is the trimmed author record embedded in questions, answers
// and reviews.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar, Role: u.Role}
}

// UserSummary is the author of a comment or review.
type UserSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role"`
}
