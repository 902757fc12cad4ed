package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/WinterTin/user-center/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const userColumns = `id, account_name, username, avatar_url, gender, phone, email,
	status, role, planet_code, password_hash, is_deleted, created_at, updated_at`

// UserRepository is the Postgres-backed account store. It is the source of
// truth; deleted rows stay in the table with is_deleted set.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (account_name, username, avatar_url, gender, phone, email,
			status, role, planet_code, password_hash, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		user.AccountName, user.Username, user.AvatarURL, user.Gender, user.Phone, user.Email,
		user.Status, int(user.Role), user.PlanetCode, user.PasswordHash, user.IsDeleted,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, ErrDuplicateAccount
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return id, nil
}

// FindByID returns the row with the given id, including soft-deleted rows.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByAccountName(ctx context.Context, accountName string, excludeDeleted bool) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE account_name = $1`
	if excludeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	user, err := scanUser(r.db.QueryRowContext(ctx, query, accountName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) ListAll(ctx context.Context, excludeDeleted bool) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if excludeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SoftDelete flags a live row as deleted and reports how many rows changed.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE users SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var role int
	err := row.Scan(
		&user.ID, &user.AccountName, &user.Username, &user.AvatarURL, &user.Gender, &user.Phone, &user.Email,
		&user.Status, &role, &user.PlanetCode, &user.PasswordHash, &user.IsDeleted, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	if !user.Role.Valid() {
		return nil, fmt.Errorf("user %d has unknown role %d", user.ID, role)
	}
	return &user, nil
}
