package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password, inserts the user and returns it.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, categories []string, cost int) (model.User, error) {
	email = NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	cats, err := encodeLabels(categories)
	if err != nil {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, categories) VALUES (?,?,?,?)",
		email, hash, role, cats)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	if categories == nil {
		categories = []string{}
	}
	return model.User{ID: uint64(id), Email: email, PasswordHash: hash, Role: role, Categories: categories}, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.get(ctx, "email", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, "id", id)
}

func (r *UserRepo) get(ctx context.Context, col string, v interface{}) (model.User, error) {
	var (
		u    model.User
		cats []byte
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,categories,created_at FROM users WHERE "+col+"=? LIMIT 1",
		v).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &cats, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	u.Categories = []string{}
	if len(cats) > 0 {
		if err := json.Unmarshal(cats, &u.Categories); err != nil {
			return u, fmt.Errorf("decode categories of user %d: %w", u.ID, err)
		}
	}
	return u, nil
}

// UpdateCategories replaces the user's favourite labels.
func (r *UserRepo) UpdateCategories(ctx context.Context, id uint64, categories []string) error {
	cats, err := encodeLabels(categories)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET categories=? WHERE id=?", cats, id)
	if err != nil {
		return fmt.Errorf("update categories: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
