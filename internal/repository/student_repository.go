package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/classroom-booking/internal/utils"
)

// Student mirrors the 'students' table.
type Student struct {
	ID           uint64
	Email        string
	PasswordHash string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StudentRepo owns the students table.
type StudentRepo struct{ db *sql.DB }

// NewStudentRepo returns a StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// Create inserts a student and returns the generated ID.  Duplicate
// emails map to ErrEmailExists.
func (r *StudentRepo) Create(ctx context.Context, email, password, name string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO students (email, password_hash, name) VALUES (?,?,?)",
		email, hash, name)
	if err != nil {
		// MySQL duplicate-key error code
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail returns the student with the given email, or ErrNotFound.
func (r *StudentRepo) GetByEmail(ctx context.Context, email string) (*Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT id, email, password_hash, name, is_active, created_at, updated_at
       FROM students WHERE email = ?`
	var s Student
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&s.ID, &s.Email, &s.PasswordHash, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByID returns the student with the given id, or ErrNotFound.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (*Student, error) {
	const q = `SELECT id, email, password_hash, name, is_active, created_at, updated_at
       FROM students WHERE id = ?`
	var s Student
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Email, &s.PasswordHash, &s.Name, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
