package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolsharks/quickk-webn-sub000/application"
	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/repository"
	"github.com/schoolsharks/quickk-webn-sub000/repository/testutil"
)

func TestPurchaseOrchestrator_BuyTickets(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	companyID := uuid.New()
	drawRepo := repository.NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	userRepo := repository.NewUserRepositoryScoped(testDB.DB.Pool, companyID)

	draw := testutil.CreateTestDraw(companyID, "Smartwatch giveaway")
	require.NoError(t, drawRepo.Create(ctx, draw))

	user := testutil.CreateTestUserWithStars(companyID, "buyer", 1000)
	require.NoError(t, userRepo.Create(ctx, user))

	orchestrator := application.NewPurchaseOrchestrator(repository.NewUnitOfWorkFactory(testDB.DB))

	t.Run("successful purchase debits and issues atomically", func(t *testing.T) {
		result, err := orchestrator.BuyTickets(ctx, companyID, user.ID, draw.ID, 4)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, int64(200), result.TotalCost)
		assert.Equal(t, int64(800), result.NewBalance)
		require.Len(t, result.Tickets, 4)
		assert.Equal(t, int64(100), result.Tickets[0].TokenNumber)
		assert.Equal(t, int64(103), result.Tickets[3].TokenNumber)

		stored, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(800), stored.TotalStars)
		assert.Equal(t, int64(200), stored.RedeemedStars)
	})

	t.Run("insufficient stars rolls everything back", func(t *testing.T) {
		ticketRepo := repository.NewTicketRepository(testDB.DB)
		countBefore, err := ticketRepo.CountForDraw(ctx, draw.ID)
		require.NoError(t, err)

		// 17 tickets cost 850, buyer has 800 left
		result, err := orchestrator.BuyTickets(ctx, companyID, user.ID, draw.ID, 17)
		assert.ErrorIs(t, err, entities.ErrInsufficientStars)
		assert.Nil(t, result)

		countAfter, err := ticketRepo.CountForDraw(ctx, draw.ID)
		require.NoError(t, err)
		assert.Equal(t, countBefore, countAfter)

		stored, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(800), stored.TotalStars)
	})

	t.Run("purchase on an ended draw is rejected", func(t *testing.T) {
		ended := testutil.CreateEndedTestDraw(companyID, "Ended giveaway")
		require.NoError(t, drawRepo.Create(ctx, ended))

		result, err := orchestrator.BuyTickets(ctx, companyID, user.ID, ended.ID, 1)
		assert.ErrorIs(t, err, entities.ErrDrawNotOpen)
		assert.Nil(t, result)
	})

	t.Run("purchase on an unknown draw is rejected", func(t *testing.T) {
		result, err := orchestrator.BuyTickets(ctx, companyID, user.ID, uuid.New(), 1)
		assert.ErrorIs(t, err, entities.ErrDrawNotFound)
		assert.Nil(t, result)
	})

	t.Run("draw in another company is invisible", func(t *testing.T) {
		otherCompany := uuid.New()
		otherDrawRepo := repository.NewDrawRepositoryScoped(testDB.DB.Pool, otherCompany)
		foreignDraw := testutil.CreateTestDraw(otherCompany, "Foreign giveaway")
		require.NoError(t, otherDrawRepo.Create(ctx, foreignDraw))

		result, err := orchestrator.BuyTickets(ctx, companyID, user.ID, foreignDraw.ID, 1)
		assert.ErrorIs(t, err, entities.ErrDrawNotFound)
		assert.Nil(t, result)

		// Neither the balance nor the foreign draw's ledger may change
		stored, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(800), stored.TotalStars)

		count, err := repository.NewTicketRepository(testDB.DB).CountForDraw(ctx, foreignDraw.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestPurchaseOrchestrator_ConcurrentBuyers(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	companyID := uuid.New()
	drawRepo := repository.NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	userRepo := repository.NewUserRepositoryScoped(testDB.DB.Pool, companyID)

	draw := testutil.CreateTestDraw(companyID, "Contested giveaway")
	require.NoError(t, drawRepo.Create(ctx, draw))

	const buyers = 6
	const perBuyer = 3

	userIDs := make([]uuid.UUID, buyers)
	for i := range userIDs {
		user := testutil.CreateTestUserWithStars(companyID, uuid.NewString()[:8], 10000)
		require.NoError(t, userRepo.Create(ctx, user))
		userIDs[i] = user.ID
	}

	orchestrator := application.NewPurchaseOrchestrator(repository.NewUnitOfWorkFactory(testDB.DB))

	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for _, userID := range userIDs {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			_, err := orchestrator.BuyTickets(ctx, companyID, userID, draw.ID, perBuyer)
			errs <- err
		}(userID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Tokens must form one contiguous run regardless of interleaving
	ticketRepo := repository.NewTicketRepository(testDB.DB)

	count, err := ticketRepo.CountForDraw(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(buyers*perBuyer), count)

	issued, err := ticketRepo.GetIssuedRange(ctx, draw.ID)
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, int64(100), issued.Low)
	assert.Equal(t, int64(buyers*perBuyer), issued.Count())
}
