package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const userSelect = `SELECT id, email, password_hash, full_name, role, COALESCE(sede_id, '') AS sede_id,
	created_at, updated_at FROM users`

// CreateUser inserts a user, email is stored lower-cased
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	ts := s.timestamp()
	u.ID, u.CreatedAt, u.UpdatedAt = newID(), ts, ts
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users (id, email, password_hash, full_name, role, sede_id,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, nullable(u.SedeID), u.CreatedAt, u.UpdatedAt)
	return wrapWriteErr(err, "failed to insert user")
}

// UpdateUser changes full_name, role and sede. Password hash is replaced only when set.
func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	u.UpdatedAt = s.timestamp()
	query := "UPDATE users SET full_name = ?, role = ?, sede_id = ?, updated_at = ?"
	args := []any{u.FullName, u.Role, nullable(u.SedeID), u.UpdatedAt}
	if u.PasswordHash != "" {
		query += ", password_hash = ?"
		args = append(args, u.PasswordHash)
	}
	query += " WHERE id = ?"
	args = append(args, u.ID)

	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return wrapWriteErr(err, "failed to update user")
	}
	return checkAffected(res, "user "+u.ID)
}

// GetUser returns a user by id
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail returns a user by email, case-insensitive
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUser(ctx context.Context, col, val string) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.rebind(userSelect+" WHERE "+col+" = ?"), val)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", val, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %s: %w", val, err)
	}
	return u, nil
}

// ListUsers returns all users ordered by email
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	res := []User{}
	if err := s.db.SelectContext(ctx, &res, userSelect+" ORDER BY email"); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return res, nil
}

// CountUsers returns the number of users
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
