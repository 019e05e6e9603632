package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/schoolsharks/quickk-webn-sub000/database"
	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/interfaces"
	"github.com/schoolsharks/quickk-webn-sub000/domain/services"
	"github.com/schoolsharks/quickk-webn-sub000/metrics"
)

const (
	purchaseMaxRetries      = 3
	purchaseInitialInterval = 20 * time.Millisecond
)

// PurchaseOrchestrator runs ticket purchases, each attempt in its own
// transaction. Serialization failures and deadlocks are retried with backoff
// up to purchaseMaxRetries times; business-rule failures are surfaced on the
// first attempt.
type PurchaseOrchestrator struct {
	uowFactory UnitOfWorkFactory
}

// NewPurchaseOrchestrator creates a new purchase orchestrator
func NewPurchaseOrchestrator(uowFactory UnitOfWorkFactory) *PurchaseOrchestrator {
	return &PurchaseOrchestrator{uowFactory: uowFactory}
}

// BuyTickets purchases quantity tickets in a draw on behalf of a user.
// Either the stars are debited and every ticket is issued, or nothing
// happens.
func (o *PurchaseOrchestrator) BuyTickets(ctx context.Context, companyID, userID, drawID uuid.UUID, quantity int) (*interfaces.PurchaseResult, error) {
	started := time.Now()

	var result *interfaces.PurchaseResult
	attempt := func() error {
		res, err := o.buyTicketsOnce(ctx, companyID, userID, drawID, quantity)
		if err != nil {
			if database.IsSerializationFailure(err) {
				log.WithFields(log.Fields{
					"draw_id": drawID,
					"user_id": userID,
				}).WithError(err).Warn("Purchase hit a transaction conflict, retrying")
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newPurchaseBackOff(), purchaseMaxRetries),
		ctx,
	)
	if err := backoff.Retry(attempt, policy); err != nil {
		metrics.RecordPurchase(purchaseStatus(err), time.Since(started).Seconds())
		return nil, err
	}

	metrics.RecordPurchase("success", time.Since(started).Seconds())
	metrics.TicketsIssued.Add(float64(len(result.Tickets)))

	log.WithFields(log.Fields{
		"draw_id":     drawID,
		"user_id":     userID,
		"quantity":    quantity,
		"total_cost":  result.TotalCost,
		"new_balance": result.NewBalance,
		"first_token": result.Tickets[0].TokenNumber,
	}).Info("Tickets purchased")

	return result, nil
}

// buyTicketsOnce runs one purchase attempt in a fresh transaction
func (o *PurchaseOrchestrator) buyTicketsOnce(ctx context.Context, companyID, userID, drawID uuid.UUID, quantity int) (*interfaces.PurchaseResult, error) {
	uow := o.uowFactory.CreateForCompany(companyID)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	svc := services.NewPurchaseService(
		uow.DrawRepository(),
		uow.TicketRepository(),
		uow.UserRepository(),
	)

	result, err := svc.BuyTickets(ctx, userID, drawID, quantity)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}

func newPurchaseBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = purchaseInitialInterval
	return b
}

// purchaseStatus classifies a failed purchase for the duration metric:
// business-rule rejections, conflicts that exhausted their retries, and
// infrastructure errors each get their own label.
func purchaseStatus(err error) string {
	switch {
	case database.IsSerializationFailure(err):
		return "conflict"
	case errors.Is(err, entities.ErrDrawNotFound),
		errors.Is(err, entities.ErrDrawNotOpen),
		errors.Is(err, entities.ErrUserNotFound),
		errors.Is(err, entities.ErrInsufficientStars):
		return "rejected"
	default:
		return "error"
	}
}
