package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

// PurchaseResult is the outcome of a successful ticket purchase
type PurchaseResult struct {
	Tickets    []*entities.Ticket
	TotalCost  int64
	NewBalance int64
}

// DrawResolution is the outcome of resolving one ended draw
type DrawResolution struct {
	Draw          *entities.Draw
	WinningTicket *entities.Ticket // nil when no tickets were sold
	TicketsSold   int64
	AlreadyDone   bool // a concurrent run resolved the draw first
}

// PurchaseService composes the draw registry, user ledger and ticket ledger
// inside one ambient transaction supplied by the caller
type PurchaseService interface {
	// BuyTickets validates the draw is open, debits the user and issues
	// quantity tickets, all against the repositories of a single unit of
	// work
	BuyTickets(ctx context.Context, userID, drawID uuid.UUID, quantity int) (*PurchaseResult, error)
}

// WinnerService resolves ended draws
type WinnerService interface {
	// ResolveDraw closes out one ended draw: locks it, selects a uniform
	// random winning token from the issued range, applies winner/not_winner
	// statuses and marks the draw past. Re-running against an already
	// resolved draw returns AlreadyDone=true without altering anything.
	ResolveDraw(ctx context.Context, drawID uuid.UUID, now time.Time) (*DrawResolution, error)
}
