package entities

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// FirstTokenNumber is the token assigned to the first ticket of every draw.
// Tokens count up from here with no gaps, so the issued range of a draw is
// always [FirstTokenNumber, FirstTokenNumber+sold-1].
const FirstTokenNumber = 100

// TicketStatus is the resolution state of a ticket
type TicketStatus string

const (
	TicketStatusIssued    TicketStatus = "issued"
	TicketStatusWinner    TicketStatus = "winner"
	TicketStatusNotWinner TicketStatus = "not_winner"
)

// Ticket represents one entry in a draw
type Ticket struct {
	ID          uuid.UUID    `db:"id"`
	DrawID      uuid.UUID    `db:"draw_id"`
	UserID      uuid.UUID    `db:"user_id"`
	TokenNumber int64        `db:"token_number"`
	TicketCode  string       `db:"ticket_code"` // Human-readable reference code
	Status      TicketStatus `db:"status"`
	PurchasedAt time.Time    `db:"purchased_at"`
}

// TokenRange is the inclusive range of tokens issued for a draw
type TokenRange struct {
	Low  int64
	High int64
}

// Count returns the number of tokens in the range
func (r TokenRange) Count() int64 {
	return r.High - r.Low + 1
}

// Contains returns true if token falls inside the range
func (r TokenRange) Contains(token int64) bool {
	return token >= r.Low && token <= r.High
}

// ticketCodeAlphabet is Crockford base32: no I, L, O or U, so codes are
// unambiguous when read aloud or typed
const ticketCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const ticketCodeLength = 10

// NewTicketCode generates a random reference code for a ticket
func NewTicketCode() string {
	buf := make([]byte, ticketCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; a ticket code
		// is display-only, so fall back to the UUID form rather than panic
		return uuid.NewString()
	}
	for i, b := range buf {
		buf[i] = ticketCodeAlphabet[int(b)%len(ticketCodeAlphabet)]
	}
	return string(buf)
}
