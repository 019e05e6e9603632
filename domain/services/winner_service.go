package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/interfaces"
)

// winnerService implements draw resolution. Like the purchase service it is
// bound to one unit of work; the caller owns begin/commit.
type winnerService struct {
	drawRepo   interfaces.DrawRepository
	ticketRepo interfaces.TicketRepository
}

// NewWinnerService creates a winner service bound to one unit of work
func NewWinnerService(
	drawRepo interfaces.DrawRepository,
	ticketRepo interfaces.TicketRepository,
) interfaces.WinnerService {
	return &winnerService{
		drawRepo:   drawRepo,
		ticketRepo: ticketRepo,
	}
}

// ResolveDraw closes out a single ended draw.
// The draw row lock makes the completed-check plus winner application one
// atomic step, so concurrent runs cannot both pick a winner: the second one
// observes the draw as past (or hits ErrAlreadyResolved) and no-ops.
func (s *winnerService) ResolveDraw(ctx context.Context, drawID uuid.UUID, now time.Time) (*interfaces.DrawResolution, error) {
	draw, err := s.drawRepo.GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if draw.IsResolved() {
		return &interfaces.DrawResolution{Draw: draw, AlreadyDone: true}, nil
	}
	if !draw.HasEnded(now) {
		return nil, fmt.Errorf("draw %s has not ended yet", draw.ID)
	}

	tokenRange, err := s.ticketRepo.GetIssuedRange(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issued token range: %w", err)
	}

	if tokenRange == nil {
		// No tickets sold: close the draw with no winner
		if err := s.drawRepo.MarkPast(ctx, draw.ID); err != nil {
			return nil, fmt.Errorf("failed to mark draw past: %w", err)
		}
		draw.Status = entities.DrawStatusPast
		return &interfaces.DrawResolution{Draw: draw}, nil
	}

	winningToken, err := drawWinningToken(*tokenRange)
	if err != nil {
		return nil, fmt.Errorf("failed to draw winning token: %w", err)
	}

	winner, err := s.ticketRepo.ApplyWinner(ctx, draw.ID, winningToken)
	if errors.Is(err, entities.ErrAlreadyResolved) {
		// Another run got there first; keep its winner, never re-draw
		log.WithFields(log.Fields{
			"draw_id": draw.ID,
		}).Info("Winner already applied by a concurrent run")
		winner, err = s.ticketRepo.GetWinner(ctx, draw.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing winner: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to apply winner: %w", err)
	}

	if err := s.drawRepo.MarkPast(ctx, draw.ID); err != nil {
		return nil, fmt.Errorf("failed to mark draw past: %w", err)
	}
	draw.Status = entities.DrawStatusPast

	return &interfaces.DrawResolution{
		Draw:          draw,
		WinningTicket: winner,
		TicketsSold:   tokenRange.Count(),
	}, nil
}

// drawWinningToken selects a token uniformly at random from the range,
// inclusive on both ends
func drawWinningToken(r entities.TokenRange) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(r.Count()))
	if err != nil {
		return 0, err
	}
	return r.Low + n.Int64(), nil
}
