package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

const userColumns = `id, company_id, name, email, total_stars, redeemed_stars, created_at, updated_at`

// UserRepository implements the user star ledger
type UserRepository struct {
	q         Queryable
	companyID uuid.UUID
}

// NewUserRepositoryScoped creates a user repository with a transaction and
// company scope. Pass the connection pool as tx for standalone reads.
func NewUserRepositoryScoped(tx Queryable, companyID uuid.UUID) *UserRepository {
	return &UserRepository{
		q:         tx,
		companyID: companyID,
	}
}

// GetByID retrieves a user by ID within the company scope
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND company_id = $2`

	user, err := scanUser(r.q.QueryRow(ctx, query, id, r.companyID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}

	return user, nil
}

// Create persists a new user with their starting star balance
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (company_id, name, email, total_stars, redeemed_stars)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, company_id, created_at, updated_at
	`

	companyID := user.CompanyID
	if companyID == uuid.Nil {
		companyID = r.companyID
	}

	err := r.q.QueryRow(ctx, query,
		companyID,
		user.Name,
		user.Email,
		user.TotalStars,
		user.RedeemedStars,
	).Scan(&user.ID, &user.CompanyID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	return nil
}

// DebitStars atomically moves amount from total_stars to redeemed_stars.
// The balance check is part of the UPDATE's WHERE clause, so two concurrent
// purchases can never both pass it against a stale read: the second waits on
// the row lock and re-evaluates the condition.
func (r *UserRepository) DebitStars(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative, got %d", amount)
	}

	query := `
		UPDATE users
		SET total_stars = total_stars - $2,
		    redeemed_stars = redeemed_stars + $2,
		    updated_at = NOW()
		WHERE id = $1 AND company_id = $3 AND total_stars >= $2
		RETURNING total_stars
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, userID, amount, r.companyID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		// Either the user doesn't exist or the balance was too low
		user, lookupErr := r.GetByID(ctx, userID)
		if lookupErr != nil {
			return 0, lookupErr
		}
		if user == nil {
			return 0, entities.ErrUserNotFound
		}
		return 0, fmt.Errorf("have %d stars, need %d: %w", user.TotalStars, amount, entities.ErrInsufficientStars)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit %d stars from user %s: %w", amount, userID, err)
	}

	return newBalance, nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.CompanyID,
		&user.Name,
		&user.Email,
		&user.TotalStars,
		&user.RedeemedStars,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
