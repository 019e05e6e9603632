package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schoolsharks/quickk-webn-sub000/database"
	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

const ticketColumns = `id, draw_id, user_id, token_number, ticket_code, status, purchased_at`

// TicketRepository implements the ticket ledger
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a ticket repository over the connection pool
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// NewTicketRepositoryWithTx creates a ticket repository bound to a transaction
func NewTicketRepositoryWithTx(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// IssueTickets creates quantity tickets continuing the draw's token sequence.
// The caller must hold the draw's FOR UPDATE row lock: the MAX read below is
// only gap- and duplicate-free because concurrent purchasers queue on that
// lock. The UNIQUE (draw_id, token_number) index is the backstop if a caller
// ever skips it.
func (r *TicketRepository) IssueTickets(ctx context.Context, drawID, userID uuid.UUID, quantity int) ([]*entities.Ticket, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	var nextToken int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(token_number) + 1, $2) FROM tickets WHERE draw_id = $1`,
		drawID, int64(entities.FirstTokenNumber),
	).Scan(&nextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read last issued token for draw %s: %w", drawID, err)
	}

	query := `
		INSERT INTO tickets (draw_id, user_id, token_number, ticket_code, status)
		VALUES `

	values := make([]interface{}, 0, quantity*5)
	tickets := make([]*entities.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket := &entities.Ticket{
			DrawID:      drawID,
			UserID:      userID,
			TokenNumber: nextToken + int64(i),
			TicketCode:  entities.NewTicketCode(),
			Status:      entities.TicketStatusIssued,
		}
		tickets = append(tickets, ticket)

		if i > 0 {
			query += ", "
		}
		paramOffset := i * 5
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			paramOffset+1, paramOffset+2, paramOffset+3, paramOffset+4, paramOffset+5)
		values = append(values, ticket.DrawID, ticket.UserID, ticket.TokenNumber,
			ticket.TicketCode, ticket.Status)
	}
	query += " RETURNING id, purchased_at"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch create tickets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&tickets[i].ID, &tickets[i].PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket result: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate created tickets: %w", err)
	}

	return tickets, nil
}

// GetIssuedRange returns the contiguous token range issued for a draw, or
// nil if no tickets have been sold
func (r *TicketRepository) GetIssuedRange(ctx context.Context, drawID uuid.UUID) (*entities.TokenRange, error) {
	query := `SELECT MIN(token_number), MAX(token_number) FROM tickets WHERE draw_id = $1`

	var low, high *int64
	if err := r.q.QueryRow(ctx, query, drawID).Scan(&low, &high); err != nil {
		return nil, fmt.Errorf("failed to get issued range for draw %s: %w", drawID, err)
	}
	if low == nil || high == nil {
		return nil, nil
	}

	return &entities.TokenRange{Low: *low, High: *high}, nil
}

// ApplyWinner marks the ticket holding winningToken as the winner and every
// sibling as not_winner. Fails with ErrAlreadyResolved if the draw already
// has a winner; callers treat that as success and must not re-draw.
// The caller must hold the draw's row lock so the existence check and the
// updates are one atomic step.
func (r *TicketRepository) ApplyWinner(ctx context.Context, drawID uuid.UUID, winningToken int64) (*entities.Ticket, error) {
	var resolved bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE draw_id = $1 AND status = $2)`,
		drawID, entities.TicketStatusWinner,
	).Scan(&resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing winner in draw %s: %w", drawID, err)
	}
	if resolved {
		return nil, entities.ErrAlreadyResolved
	}

	winnerQuery := `
		UPDATE tickets
		SET status = $3
		WHERE draw_id = $1 AND token_number = $2
		RETURNING ` + ticketColumns

	winner, err := scanTicket(r.q.QueryRow(ctx, winnerQuery, drawID, winningToken, entities.TicketStatusWinner))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no ticket with token %d exists in draw %s", winningToken, drawID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark winning ticket for draw %s: %w", drawID, err)
	}

	_, err = r.q.Exec(ctx,
		`UPDATE tickets SET status = $3 WHERE draw_id = $1 AND token_number <> $2`,
		drawID, winningToken, entities.TicketStatusNotWinner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark losing tickets for draw %s: %w", drawID, err)
	}

	return winner, nil
}

// GetWinner returns the draw's winning ticket, nil if no winner has been
// applied yet
func (r *TicketRepository) GetWinner(ctx context.Context, drawID uuid.UUID) (*entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE draw_id = $1 AND status = $2`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, drawID, entities.TicketStatusWinner))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winner for draw %s: %w", drawID, err)
	}

	return ticket, nil
}

// GetByUserForDraw returns a user's tickets in a draw, in token order
func (r *TicketRepository) GetByUserForDraw(ctx context.Context, drawID, userID uuid.UUID) ([]*entities.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE draw_id = $1 AND user_id = $2
		ORDER BY token_number ASC
	`

	rows, err := r.q.Query(ctx, query, drawID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for user %s in draw %s: %w", userID, drawID, err)
	}
	defer rows.Close()

	var tickets []*entities.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// CountForDraw returns the total number of tickets issued for a draw
func (r *TicketRepository) CountForDraw(ctx context.Context, drawID uuid.UUID) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE draw_id = $1`, drawID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets for draw %s: %w", drawID, err)
	}

	return count, nil
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var ticket entities.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.DrawID,
		&ticket.UserID,
		&ticket.TokenNumber,
		&ticket.TicketCode,
		&ticket.Status,
		&ticket.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
