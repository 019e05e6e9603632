package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

// DrawRepository defines the interface for draw registry data access
type DrawRepository interface {
	// Create persists a new draw
	Create(ctx context.Context, draw *entities.Draw) error

	// GetByID retrieves a draw by its ID, nil if not found
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Draw, error)

	// GetByIDForUpdate retrieves a draw by ID with a row lock. The lock
	// doubles as the per-draw token counter lock: token allocation and
	// winner application both happen while it is held. Draws outside the
	// repository's company scope are invisible, as with GetByID.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Draw, error)

	// ListByStatus returns the company's draws in the given status along
	// with each draw's ticket sales
	ListByStatus(ctx context.Context, status entities.DrawStatus) ([]*entities.DrawListing, error)

	// FindEndedLive returns all draws, across companies, that are still
	// live but whose end time has passed
	FindEndedLive(ctx context.Context, now time.Time) ([]*entities.Draw, error)

	// MarkLive transitions an upcoming draw to live. Already-live draws are
	// a no-op; past draws are an error (transitions are monotonic).
	MarkLive(ctx context.Context, id uuid.UUID) error

	// MarkPast transitions a live draw to past. Already-past draws are a
	// no-op, never an error.
	MarkPast(ctx context.Context, id uuid.UUID) error
}

// TicketRepository defines the interface for the ticket ledger
type TicketRepository interface {
	// IssueTickets creates quantity tickets with consecutive token numbers
	// continuing the draw's sequence (first ticket ever gets token 100).
	// The caller must hold the draw's row lock for the whole transaction;
	// the max-token read is only safe under that lock.
	IssueTickets(ctx context.Context, drawID, userID uuid.UUID, quantity int) ([]*entities.Ticket, error)

	// GetIssuedRange returns the contiguous token range issued for the
	// draw, or nil if no tickets have been sold
	GetIssuedRange(ctx context.Context, drawID uuid.UUID) (*entities.TokenRange, error)

	// ApplyWinner marks the ticket holding winningToken as the winner and
	// every sibling ticket as not_winner. Returns ErrAlreadyResolved if a
	// winner already exists for the draw.
	ApplyWinner(ctx context.Context, drawID uuid.UUID, winningToken int64) (*entities.Ticket, error)

	// GetWinner returns the draw's winning ticket, nil if none applied yet
	GetWinner(ctx context.Context, drawID uuid.UUID) (*entities.Ticket, error)

	// GetByUserForDraw returns a user's tickets in a draw, token order
	GetByUserForDraw(ctx context.Context, drawID, userID uuid.UUID) ([]*entities.Ticket, error)

	// CountForDraw returns the total number of tickets issued for a draw
	CountForDraw(ctx context.Context, drawID uuid.UUID) (int64, error)
}

// UserRepository defines the interface for the user star ledger
type UserRepository interface {
	// GetByID retrieves a user by ID within the company scope, nil if not
	// found
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// Create persists a new user with their starting star balance
	Create(ctx context.Context, user *entities.User) error

	// DebitStars atomically moves amount from total_stars to
	// redeemed_stars, failing with ErrInsufficientStars if the spendable
	// balance is below amount. The check and the debit are one conditional
	// update. Returns the new spendable balance.
	DebitStars(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
}
