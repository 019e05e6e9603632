package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/interfaces"
)

// MaxTicketsPerPurchase bounds a single purchase request
const MaxTicketsPerPurchase = 100

// purchaseService implements the ticket purchase flow. It operates on
// repositories that share one transaction; the caller owns begin/commit.
type purchaseService struct {
	drawRepo   interfaces.DrawRepository
	ticketRepo interfaces.TicketRepository
	userRepo   interfaces.UserRepository
	now        func() time.Time
}

// NewPurchaseService creates a purchase service bound to one unit of work
func NewPurchaseService(
	drawRepo interfaces.DrawRepository,
	ticketRepo interfaces.TicketRepository,
	userRepo interfaces.UserRepository,
) interfaces.PurchaseService {
	return &purchaseService{
		drawRepo:   drawRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

// BuyTickets spends stars for quantity tickets in a draw.
// Lock order is fixed across the codebase: draw row first, then the user's
// balance row. The draw lock serializes token allocation, so the tickets
// issued here continue the draw's sequence with no gaps or duplicates.
func (s *purchaseService) BuyTickets(ctx context.Context, userID, drawID uuid.UUID, quantity int) (*interfaces.PurchaseResult, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if quantity > MaxTicketsPerPurchase {
		return nil, fmt.Errorf("quantity must be at most %d, got %d", MaxTicketsPerPurchase, quantity)
	}

	draw, err := s.drawRepo.GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if !draw.CanPurchaseTickets(s.now()) {
		return nil, entities.ErrDrawNotOpen
	}

	totalCost := draw.TotalCost(quantity)
	newBalance, err := s.userRepo.DebitStars(ctx, userID, totalCost)
	if err != nil {
		return nil, fmt.Errorf("failed to debit %d stars: %w", totalCost, err)
	}

	tickets, err := s.ticketRepo.IssueTickets(ctx, drawID, userID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tickets: %w", err)
	}

	return &interfaces.PurchaseResult{
		Tickets:    tickets,
		TotalCost:  totalCost,
		NewBalance: newBalance,
	}, nil
}
