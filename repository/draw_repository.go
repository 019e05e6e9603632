package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

const drawColumns = `id, company_id, name, description, image_url, price_per_ticket,
	       estimated_value, start_time, end_time, status, created_at, updated_at`

// DrawRepository implements draw registry data access
type DrawRepository struct {
	q         Queryable
	companyID uuid.UUID
}

// NewDrawRepositoryScoped creates a draw repository with a transaction and
// company scope. Pass the connection pool as tx for standalone reads.
func NewDrawRepositoryScoped(tx Queryable, companyID uuid.UUID) *DrawRepository {
	return &DrawRepository{
		q:         tx,
		companyID: companyID,
	}
}

func scanDraw(row pgx.Row) (*entities.Draw, error) {
	var draw entities.Draw
	err := row.Scan(
		&draw.ID,
		&draw.CompanyID,
		&draw.Name,
		&draw.Description,
		&draw.ImageURL,
		&draw.PricePerTicket,
		&draw.EstimatedValue,
		&draw.StartTime,
		&draw.EndTime,
		&draw.Status,
		&draw.CreatedAt,
		&draw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

// Create persists a new draw in the repository's company scope
func (r *DrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	query := `
		INSERT INTO draws (company_id, name, description, image_url, price_per_ticket,
		                   estimated_value, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, company_id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		r.companyID,
		draw.Name,
		draw.Description,
		draw.ImageURL,
		draw.PricePerTicket,
		draw.EstimatedValue,
		draw.StartTime,
		draw.EndTime,
		draw.Status,
	).Scan(&draw.ID, &draw.CompanyID, &draw.CreatedAt, &draw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draw: %w", err)
	}

	return nil
}

// GetByID retrieves a draw by its ID
func (r *DrawRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw by ID %s: %w", id, err)
	}

	return draw, nil
}

// GetByIDForUpdate retrieves a draw by ID with a row lock. Every writer to a
// draw's tickets or status takes this lock first, which is what makes the
// token sequence and the winner application race-free.
// The lookup honors the repository's company scope, so a caller can never
// lock (or purchase into) another company's draw; a nil scope locks across
// companies for the winner selection job.
func (r *DrawRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1`
	args := []interface{}{id}
	if r.companyID != uuid.Nil {
		query += ` AND company_id = $2`
		args = append(args, r.companyID)
	}
	query += ` FOR UPDATE`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw for update by ID %s: %w", id, err)
	}

	return draw, nil
}

// ListByStatus returns the company's draws in the given status with their
// ticket sales, most recent window first. The count rides along in the list
// query so listings never fan out into per-draw queries.
func (r *DrawRepository) ListByStatus(ctx context.Context, status entities.DrawStatus) ([]*entities.DrawListing, error) {
	query := `
		SELECT d.id, d.company_id, d.name, d.description, d.image_url, d.price_per_ticket,
		       d.estimated_value, d.start_time, d.end_time, d.status, d.created_at, d.updated_at,
		       COUNT(t.id) AS tickets_sold
		FROM draws d
		LEFT JOIN tickets t ON t.draw_id = d.id
		WHERE d.company_id = $1 AND d.status = $2
		GROUP BY d.id
		ORDER BY d.end_time DESC
	`

	rows, err := r.q.Query(ctx, query, r.companyID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws with status %s: %w", status, err)
	}
	defer rows.Close()

	var listings []*entities.DrawListing
	for rows.Next() {
		var draw entities.Draw
		var sold int64
		err := rows.Scan(
			&draw.ID,
			&draw.CompanyID,
			&draw.Name,
			&draw.Description,
			&draw.ImageURL,
			&draw.PricePerTicket,
			&draw.EstimatedValue,
			&draw.StartTime,
			&draw.EndTime,
			&draw.Status,
			&draw.CreatedAt,
			&draw.UpdatedAt,
			&sold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw listing: %w", err)
		}
		listings = append(listings, &entities.DrawListing{Draw: &draw, TicketsSold: sold})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draw listings: %w", err)
	}

	return listings, nil
}

// FindEndedLive returns all draws, across companies, that are still live but
// whose end time has passed. This feeds the winner selection scan.
func (r *DrawRepository) FindEndedLive(ctx context.Context, now time.Time) ([]*entities.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = $1
		  AND end_time <= $2
		ORDER BY end_time ASC
	`

	rows, err := r.q.Query(ctx, query, entities.DrawStatusLive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find ended live draws: %w", err)
	}
	defer rows.Close()

	return collectDraws(rows)
}

func collectDraws(rows pgx.Rows) ([]*entities.Draw, error) {
	var draws []*entities.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}

	return draws, nil
}

// MarkLive transitions an upcoming draw to live. Already-live draws are a
// no-op; past draws (or unknown IDs) are an error.
func (r *DrawRepository) MarkLive(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE draws
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, id, entities.DrawStatusLive, entities.DrawStatusUpcoming)
	if err != nil {
		return fmt.Errorf("failed to mark draw %s live: %w", id, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	return r.checkExpectedStatus(ctx, id, entities.DrawStatusLive)
}

// MarkPast transitions a live draw to past. Marking an already-past draw is
// a no-op, never an error; the winner job relies on that for idempotency.
func (r *DrawRepository) MarkPast(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE draws
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, id, entities.DrawStatusPast, entities.DrawStatusLive)
	if err != nil {
		return fmt.Errorf("failed to mark draw %s past: %w", id, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	return r.checkExpectedStatus(ctx, id, entities.DrawStatusPast)
}

// checkExpectedStatus distinguishes an idempotent no-op (draw already in the
// target status) from an invalid transition
func (r *DrawRepository) checkExpectedStatus(ctx context.Context, id uuid.UUID, expected entities.DrawStatus) error {
	draw, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if draw == nil {
		return entities.ErrDrawNotFound
	}
	if draw.Status == expected {
		return nil
	}
	return fmt.Errorf("draw %s is %s, cannot transition to %s", id, draw.Status, expected)
}
