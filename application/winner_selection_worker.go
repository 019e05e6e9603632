package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/services"
	"github.com/schoolsharks/quickk-webn-sub000/metrics"

	"github.com/google/uuid"
)

// WinnerSelectionWorker periodically scans for draws whose window has ended
// and resolves each one in its own transaction. Overlapping or duplicate
// runs are safe: resolution is a row-locked conditional update, so the first
// run to commit wins and later runs observe a no-op.
type WinnerSelectionWorker struct {
	uowFactory UnitOfWorkFactory
	interval   time.Duration
}

// NewWinnerSelectionWorker creates a new winner selection worker
func NewWinnerSelectionWorker(uowFactory UnitOfWorkFactory, interval time.Duration) *WinnerSelectionWorker {
	return &WinnerSelectionWorker{
		uowFactory: uowFactory,
		interval:   interval,
	}
}

// Start begins the scan loop and returns a stop function
func (w *WinnerSelectionWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Winner selection worker started")

		for {
			if err := w.ProcessEndedDraws(ctx, time.Now().UTC()); err != nil {
				log.WithError(err).Error("Error processing ended draws")
			}

			select {
			case <-ctx.Done():
				log.Info("Winner selection worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Winner selection worker shutting down (stop requested)")
				return
			case <-time.After(w.interval):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// ProcessEndedDraws resolves every live draw whose end time has passed.
// A failure on one draw never aborts the others; unresolved draws stay live
// and are retried on the next scan.
func (w *WinnerSelectionWorker) ProcessEndedDraws(ctx context.Context, now time.Time) error {
	uow := w.uowFactory.CreateForCompany(uuid.Nil)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	endedDraws, err := uow.DrawRepository().FindEndedLive(ctx, now)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to find ended draws: %w", err)
	}
	uow.Rollback() // Close the read transaction

	if len(endedDraws) == 0 {
		return nil
	}

	log.WithField("count", len(endedDraws)).Info("Found ended draws to resolve")

	var successCount, failureCount int
	for _, draw := range endedDraws {
		if err := w.resolveDraw(ctx, draw, now); err != nil {
			log.WithFields(log.Fields{
				"draw_id":    draw.ID,
				"company_id": draw.CompanyID,
			}).WithError(err).Error("Error resolving draw")
			failureCount++
		} else {
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"total_draws": len(endedDraws),
		"successful":  successCount,
		"failed":      failureCount,
	}).Info("Completed winner selection scan")

	return nil
}

// resolveDraw closes out a single draw in its own transaction
func (w *WinnerSelectionWorker) resolveDraw(ctx context.Context, draw *entities.Draw, now time.Time) error {
	uow := w.uowFactory.CreateForCompany(draw.CompanyID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	winnerService := services.NewWinnerService(
		uow.DrawRepository(),
		uow.TicketRepository(),
	)

	resolution, err := winnerService.ResolveDraw(ctx, draw.ID, now)
	if err != nil {
		return fmt.Errorf("failed to resolve draw: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fields := log.Fields{
		"draw_id":      draw.ID,
		"company_id":   draw.CompanyID,
		"tickets_sold": resolution.TicketsSold,
	}
	switch {
	case resolution.AlreadyDone:
		metrics.DrawsResolved.WithLabelValues("already_done").Inc()
		log.WithFields(fields).Info("Draw was already resolved")
	case resolution.WinningTicket == nil:
		metrics.DrawsResolved.WithLabelValues("empty").Inc()
		log.WithFields(fields).Info("Draw resolved with no tickets sold")
	default:
		metrics.DrawsResolved.WithLabelValues("winner").Inc()
		fields["winning_token"] = resolution.WinningTicket.TokenNumber
		fields["winner_user_id"] = resolution.WinningTicket.UserID
		log.WithFields(fields).Info("Draw resolved")
	}

	return nil
}
