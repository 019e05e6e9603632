package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
	"github.com/schoolsharks/quickk-webn-sub000/domain/testhelpers"
)

func endedDraw(id uuid.UUID, now time.Time) *entities.Draw {
	return &entities.Draw{
		ID:             id,
		CompanyID:      uuid.New(),
		Name:           "Smartwatch giveaway",
		PricePerTicket: 50,
		StartTime:      now.Add(-25 * time.Hour),
		EndTime:        now.Add(-1 * time.Hour),
		Status:         entities.DrawStatusLive,
	}
}

func TestWinnerService_ResolveDraw_PicksWinnerFromIssuedRange(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	draw := endedDraw(drawID, now)
	issuedRange := &entities.TokenRange{Low: 100, High: 109}
	inRange := mock.MatchedBy(func(token int64) bool {
		return issuedRange.Contains(token)
	})

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(draw, nil)
	mockTicketRepo.On("GetIssuedRange", ctx, drawID).Return(issuedRange, nil)
	mockTicketRepo.On("ApplyWinner", ctx, drawID, inRange).
		Return(&entities.Ticket{DrawID: drawID, TokenNumber: 104, Status: entities.TicketStatusWinner}, nil)
	mockDrawRepo.On("MarkPast", ctx, drawID).Return(nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	assert.NoError(t, err)
	assert.NotNil(t, resolution)
	assert.False(t, resolution.AlreadyDone)
	assert.Equal(t, int64(10), resolution.TicketsSold)
	assert.NotNil(t, resolution.WinningTicket)
	assert.Equal(t, entities.TicketStatusWinner, resolution.WinningTicket.Status)
	assert.Equal(t, entities.DrawStatusPast, resolution.Draw.Status)

	mockDrawRepo.AssertExpectations(t)
	mockTicketRepo.AssertExpectations(t)
}

func TestWinnerService_ResolveDraw_AlreadyResolvedDraw(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	draw := endedDraw(drawID, now)
	draw.Status = entities.DrawStatusPast

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(draw, nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	assert.NoError(t, err)
	assert.True(t, resolution.AlreadyDone)
	assert.Nil(t, resolution.WinningTicket)

	// A resolved draw must never be re-drawn
	mockTicketRepo.AssertNotCalled(t, "ApplyWinner")
	mockTicketRepo.AssertNotCalled(t, "GetIssuedRange")
	mockDrawRepo.AssertNotCalled(t, "MarkPast")
}

func TestWinnerService_ResolveDraw_NotEndedYet(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	draw := endedDraw(drawID, now)
	draw.EndTime = now.Add(1 * time.Hour)

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(draw, nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	assert.ErrorContains(t, err, "has not ended")
	assert.Nil(t, resolution)
	mockTicketRepo.AssertNotCalled(t, "ApplyWinner")
}

func TestWinnerService_ResolveDraw_DrawNotFound(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(nil, nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	assert.ErrorIs(t, err, entities.ErrDrawNotFound)
	assert.Nil(t, resolution)
}

func TestWinnerService_ResolveDraw_NoTicketsSold(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	draw := endedDraw(drawID, now)

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(draw, nil)
	mockTicketRepo.On("GetIssuedRange", ctx, drawID).Return(nil, nil)
	mockDrawRepo.On("MarkPast", ctx, drawID).Return(nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	assert.NoError(t, err)
	assert.False(t, resolution.AlreadyDone)
	assert.Nil(t, resolution.WinningTicket)
	assert.Equal(t, int64(0), resolution.TicketsSold)
	assert.Equal(t, entities.DrawStatusPast, resolution.Draw.Status)

	mockTicketRepo.AssertNotCalled(t, "ApplyWinner")
	mockDrawRepo.AssertExpectations(t)
}

func TestWinnerService_ResolveDraw_ConcurrentWinnerKept(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	drawID := uuid.New()

	mockDrawRepo := new(testhelpers.MockDrawRepository)
	mockTicketRepo := new(testhelpers.MockTicketRepository)

	service := NewWinnerService(mockDrawRepo, mockTicketRepo)

	draw := endedDraw(drawID, now)
	existingWinner := &entities.Ticket{
		DrawID:      drawID,
		TokenNumber: 101,
		Status:      entities.TicketStatusWinner,
	}

	mockDrawRepo.On("GetByIDForUpdate", ctx, drawID).Return(draw, nil)
	mockTicketRepo.On("GetIssuedRange", ctx, drawID).
		Return(&entities.TokenRange{Low: 100, High: 104}, nil)
	mockTicketRepo.On("ApplyWinner", ctx, drawID, mock.AnythingOfType("int64")).
		Return(nil, entities.ErrAlreadyResolved)
	mockTicketRepo.On("GetWinner", ctx, drawID).Return(existingWinner, nil)
	mockDrawRepo.On("MarkPast", ctx, drawID).Return(nil)

	resolution, err := service.ResolveDraw(ctx, drawID, now)

	// The existing winner is preserved, never replaced
	assert.NoError(t, err)
	assert.Equal(t, existingWinner, resolution.WinningTicket)

	mockDrawRepo.AssertExpectations(t)
	mockTicketRepo.AssertExpectations(t)
}

func TestDrawWinningToken_StaysInRange(t *testing.T) {
	t.Parallel()

	r := entities.TokenRange{Low: 100, High: 104}

	for i := 0; i < 200; i++ {
		token, err := drawWinningToken(r)
		assert.NoError(t, err)
		assert.True(t, r.Contains(token), "token %d outside range", token)
	}
}

func TestDrawWinningToken_SingleTicket(t *testing.T) {
	t.Parallel()

	r := entities.TokenRange{Low: 100, High: 100}

	token, err := drawWinningToken(r)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), token)
}
