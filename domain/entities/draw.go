package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DrawStatus is the lifecycle state of a draw.
// Transitions are monotonic: upcoming -> live -> past.
type DrawStatus string

const (
	DrawStatusUpcoming DrawStatus = "upcoming"
	DrawStatusLive     DrawStatus = "live"
	DrawStatusPast     DrawStatus = "past"
)

// Draw represents a single reward draw event
type Draw struct {
	ID             uuid.UUID  `db:"id"`
	CompanyID      uuid.UUID  `db:"company_id"`
	Name           string     `db:"name"`
	Description    string     `db:"description"`
	ImageURL       string     `db:"image_url"`
	PricePerTicket int64      `db:"price_per_ticket"` // Stars per ticket
	EstimatedValue int64      `db:"estimated_value"`  // Display value of the reward
	StartTime      time.Time  `db:"start_time"`
	EndTime        time.Time  `db:"end_time"`
	Status         DrawStatus `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// DrawListing pairs a draw with its ticket sales for listing endpoints
type DrawListing struct {
	Draw        *Draw
	TicketsSold int64
}

// Validate checks the draw's fields at creation time
func (d *Draw) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("draw name is required")
	}
	if d.PricePerTicket <= 0 {
		return fmt.Errorf("price per ticket must be positive, got %d", d.PricePerTicket)
	}
	if !d.StartTime.Before(d.EndTime) {
		return fmt.Errorf("start time must be before end time")
	}
	if d.Status != DrawStatusUpcoming && d.Status != DrawStatusLive {
		return fmt.Errorf("new draws must be upcoming or live, got %s", d.Status)
	}
	return nil
}

// IsResolved returns true once the draw has been closed out
func (d *Draw) IsResolved() bool {
	return d.Status == DrawStatusPast
}

// HasEnded returns true if the draw's purchase window has passed
func (d *Draw) HasEnded(now time.Time) bool {
	return !now.Before(d.EndTime)
}

// CanPurchaseTickets returns true if tickets can still be purchased.
// A live draw whose end time has passed but which has not been resolved yet
// no longer accepts purchases.
func (d *Draw) CanPurchaseTickets(now time.Time) bool {
	return d.Status == DrawStatusLive && now.Before(d.EndTime)
}

// TotalCost returns the star cost of buying quantity tickets
func (d *Draw) TotalCost(quantity int) int64 {
	return d.PricePerTicket * int64(quantity)
}
