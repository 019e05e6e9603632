package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations.
// All repositories returned from one unit of work share a single database
// transaction.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction. Rolling back after a successful
	// commit is a no-op.
	Rollback() error

	// Repository getters
	DrawRepository() interfaces.DrawRepository
	TicketRepository() interfaces.TicketRepository
	UserRepository() interfaces.UserRepository
}

// UnitOfWorkFactory creates UnitOfWork instances scoped to a company.
// Cross-company jobs (the winner selection scan) pass uuid.Nil.
type UnitOfWorkFactory interface {
	CreateForCompany(companyID uuid.UUID) UnitOfWork
}
