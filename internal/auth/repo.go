package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"bookstore/pkg/models"
)

// ErrDuplicate is returned when the email or username is already taken.
var ErrDuplicate = errors.New("user already exists")

// Account is a stored user including password material.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         models.Role
	TokenVersion int
	CreatedAt    time.Time
}

func (a *Account) Public() models.User {
	return models.User{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const accountColumns = `id, username, email, password_hash, role, token_version, created_at`

// CreateUser stores a and assigns the next id: max existing id + 1, or 1
// for an empty table. The id is computed in the same statement as the insert.
func (r *Repo) CreateUser(ctx context.Context, a *Account) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role)
		SELECT COALESCE(MAX(id), 0) + 1, ?, ?, ?, ?
		FROM users
	`, a.Username, a.Email, a.PasswordHash, string(a.Role))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	a.ID = id

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if created != nil {
		a.CreatedAt = created.CreatedAt
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	return r.getOne(ctx, "get by email", `WHERE LOWER(email) = ?`, email)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, "get by username", `WHERE username = ?`, strings.TrimSpace(username))
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Account, error) {
	return r.getOne(ctx, "get by id", `WHERE id = ?`, id)
}

func (r *Repo) getOne(ctx context.Context, op, where string, arg any) (*Account, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users `+where, arg)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (r *Repo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		out = append(out, a.Public())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*Account, error) {
	var (
		a    Account
		role string
	)
	if err := s.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &a.TokenVersion, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = ParseRole(role)
	return &a, nil
}

// AuthState is what the middleware re-reads on every request so a demoted
// or logged-out user loses access before the token expires.
type AuthState struct {
	Role         models.Role
	TokenVersion int
}

func (r *Repo) GetAuthState(ctx context.Context, id int64) (*AuthState, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT role, token_version
		FROM users
		WHERE id = ?
	`, id)

	var (
		st   AuthState
		role string
	)
	if err := row.Scan(&role, &st.TokenVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth state: %w", err)
	}
	st.Role = ParseRole(role)
	return &st, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: user not found")
	}
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump token version rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bump token version: user not found")
	}
	return nil
}

func (r *Repo) SetRole(ctx context.Context, id int64, role models.Role) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
