package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/repository/testutil"
)

func TestDrawRepository_Create(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		draw := testutil.CreateTestDraw(companyID, "Smartwatch giveaway")

		err := repo.Create(ctx, draw)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, draw.ID)
		assert.Equal(t, companyID, draw.CompanyID)
		assert.False(t, draw.CreatedAt.IsZero())
	})

	t.Run("invalid window rejected by the database", func(t *testing.T) {
		draw := testutil.CreateTestDraw(companyID, "Broken draw")
		draw.StartTime = draw.EndTime.Add(time.Hour)

		assert.Error(t, repo.Create(ctx, draw))
	})
}

func TestDrawRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		draw, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, draw)
	})

	t.Run("found", func(t *testing.T) {
		created := testutil.CreateTestDraw(companyID, "Headphones giveaway")
		require.NoError(t, repo.Create(ctx, created))

		draw, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, draw)

		assert.Equal(t, created.ID, draw.ID)
		assert.Equal(t, "Headphones giveaway", draw.Name)
		assert.Equal(t, entities.DrawStatusLive, draw.Status)
		assert.Equal(t, int64(50), draw.PricePerTicket)
	})
}

func TestDrawRepository_GetByIDForUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	draw := testutil.CreateTestDraw(companyID, "Lockable giveaway")
	require.NoError(t, repo.Create(ctx, draw))

	t.Run("locks a draw in the company scope", func(t *testing.T) {
		got, err := repo.GetByIDForUpdate(ctx, draw.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draw.ID, got.ID)
	})

	t.Run("draw in another company is invisible", func(t *testing.T) {
		otherRepo := NewDrawRepositoryScoped(testDB.DB.Pool, uuid.New())

		got, err := otherRepo.GetByIDForUpdate(ctx, draw.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil scope locks across companies", func(t *testing.T) {
		crossRepo := NewDrawRepositoryScoped(testDB.DB.Pool, uuid.Nil)

		got, err := crossRepo.GetByIDForUpdate(ctx, draw.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draw.ID, got.ID)
	})
}

func TestDrawRepository_ListByStatus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	live1 := testutil.CreateTestDraw(companyID, "Live one")
	live2 := testutil.CreateTestDraw(companyID, "Live two")
	upcoming := testutil.CreateUpcomingTestDraw(companyID, "Upcoming one")
	require.NoError(t, repo.Create(ctx, live1))
	require.NoError(t, repo.Create(ctx, live2))
	require.NoError(t, repo.Create(ctx, upcoming))

	// A draw in another company must not leak into the listing
	otherCompany := uuid.New()
	otherRepo := NewDrawRepositoryScoped(testDB.DB.Pool, otherCompany)
	require.NoError(t, otherRepo.Create(ctx, testutil.CreateTestDraw(otherCompany, "Other company live")))

	// Sell a few tickets into live1 so listings carry real sales counts
	userRepo := NewUserRepositoryScoped(testDB.DB.Pool, companyID)
	user := testutil.CreateTestUser(companyID, "lister")
	require.NoError(t, userRepo.Create(ctx, user))
	_, err := NewTicketRepository(testDB.DB).IssueTickets(ctx, live1.ID, user.ID, 4)
	require.NoError(t, err)

	liveListings, err := repo.ListByStatus(ctx, entities.DrawStatusLive)
	require.NoError(t, err)
	require.Len(t, liveListings, 2)

	sold := make(map[uuid.UUID]int64)
	for _, listing := range liveListings {
		assert.Equal(t, companyID, listing.Draw.CompanyID)
		assert.Equal(t, entities.DrawStatusLive, listing.Draw.Status)
		sold[listing.Draw.ID] = listing.TicketsSold
	}
	assert.Equal(t, int64(4), sold[live1.ID])
	assert.Equal(t, int64(0), sold[live2.ID])

	upcomingListings, err := repo.ListByStatus(ctx, entities.DrawStatusUpcoming)
	require.NoError(t, err)
	assert.Len(t, upcomingListings, 1)

	pastListings, err := repo.ListByStatus(ctx, entities.DrawStatusPast)
	require.NoError(t, err)
	assert.Empty(t, pastListings)
}

func TestDrawRepository_FindEndedLive(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyA := uuid.New()
	companyB := uuid.New()
	repoA := NewDrawRepositoryScoped(testDB.DB.Pool, companyA)
	repoB := NewDrawRepositoryScoped(testDB.DB.Pool, companyB)
	ctx := context.Background()

	endedA := testutil.CreateEndedTestDraw(companyA, "Ended A")
	endedB := testutil.CreateEndedTestDraw(companyB, "Ended B")
	stillOpen := testutil.CreateTestDraw(companyA, "Still open")
	require.NoError(t, repoA.Create(ctx, endedA))
	require.NoError(t, repoB.Create(ctx, endedB))
	require.NoError(t, repoA.Create(ctx, stillOpen))

	// The scan crosses company scopes
	ended, err := repoA.FindEndedLive(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, ended, 2)

	ids := []uuid.UUID{ended[0].ID, ended[1].ID}
	assert.Contains(t, ids, endedA.ID)
	assert.Contains(t, ids, endedB.ID)
}

func TestDrawRepository_MarkLive(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	t.Run("upcoming becomes live", func(t *testing.T) {
		draw := testutil.CreateUpcomingTestDraw(companyID, "Soon live")
		require.NoError(t, repo.Create(ctx, draw))

		require.NoError(t, repo.MarkLive(ctx, draw.ID))

		got, err := repo.GetByID(ctx, draw.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.DrawStatusLive, got.Status)
	})

	t.Run("already live is a no-op", func(t *testing.T) {
		draw := testutil.CreateTestDraw(companyID, "Already live")
		require.NoError(t, repo.Create(ctx, draw))

		assert.NoError(t, repo.MarkLive(ctx, draw.ID))
	})

	t.Run("past draw cannot go live again", func(t *testing.T) {
		draw := testutil.CreateEndedTestDraw(companyID, "Finished")
		require.NoError(t, repo.Create(ctx, draw))
		require.NoError(t, repo.MarkPast(ctx, draw.ID))

		assert.Error(t, repo.MarkLive(ctx, draw.ID))
	})

	t.Run("unknown draw", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkLive(ctx, uuid.New()), entities.ErrDrawNotFound)
	})
}

func TestDrawRepository_MarkPast(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyID := uuid.New()
	repo := NewDrawRepositoryScoped(testDB.DB.Pool, companyID)
	ctx := context.Background()

	t.Run("live becomes past", func(t *testing.T) {
		draw := testutil.CreateEndedTestDraw(companyID, "Closing")
		require.NoError(t, repo.Create(ctx, draw))

		require.NoError(t, repo.MarkPast(ctx, draw.ID))

		got, err := repo.GetByID(ctx, draw.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.DrawStatusPast, got.Status)
	})

	t.Run("already past is a no-op", func(t *testing.T) {
		draw := testutil.CreateEndedTestDraw(companyID, "Closed twice")
		require.NoError(t, repo.Create(ctx, draw))
		require.NoError(t, repo.MarkPast(ctx, draw.ID))

		assert.NoError(t, repo.MarkPast(ctx, draw.ID))
	})

	t.Run("upcoming draw cannot skip to past", func(t *testing.T) {
		draw := testutil.CreateUpcomingTestDraw(companyID, "Not yet open")
		require.NoError(t, repo.Create(ctx, draw))

		assert.Error(t, repo.MarkPast(ctx, draw.ID))
	})
}
