package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/worksheet-gen/backend/internal/database"
	"github.com/worksheet-gen/backend/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

// UserStore persists accounts. FindByEmail returns the bcrypt hash in
// User.Password.
type UserStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the user under a generated username, retrying on
// username collisions.
func (s *PostgresStore) Create(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	var user models.User
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		username := database.GenerateUsername(name)
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO users (email, name, username, password)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, email, name, username, created_at, updated_at`,
			email, name, username, passwordHash,
		).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.CreatedAt, &user.UpdatedAt)
		if err == nil {
			return &user, nil
		}

		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
			break
		}
		if pqErr.Constraint != "users_username_key" {
			return nil, ErrEmailTaken
		}
	}
	return nil, fmt.Errorf("create user: %w", err)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, COALESCE(username, ''), password, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, COALESCE(username, ''), created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
