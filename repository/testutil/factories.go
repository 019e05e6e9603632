package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

// CreateTestUser creates a test user with a default star balance
func CreateTestUser(companyID uuid.UUID, name string) *entities.User {
	return &entities.User{
		CompanyID:  companyID,
		Name:       name,
		Email:      fmt.Sprintf("%s@example.com", name),
		TotalStars: 1000,
	}
}

// CreateTestUserWithStars creates a test user with a specific star balance
func CreateTestUserWithStars(companyID uuid.UUID, name string, stars int64) *entities.User {
	user := CreateTestUser(companyID, name)
	user.TotalStars = stars
	return user
}

// CreateTestDraw creates a live draw whose window is currently open
func CreateTestDraw(companyID uuid.UUID, name string) *entities.Draw {
	now := time.Now().UTC()
	return &entities.Draw{
		CompanyID:      companyID,
		Name:           name,
		Description:    "A draw created for testing",
		PricePerTicket: 50,
		EstimatedValue: 10000,
		StartTime:      now.Add(-1 * time.Hour),
		EndTime:        now.Add(24 * time.Hour),
		Status:         entities.DrawStatusLive,
	}
}

// CreateEndedTestDraw creates a live draw whose window has already elapsed
func CreateEndedTestDraw(companyID uuid.UUID, name string) *entities.Draw {
	draw := CreateTestDraw(companyID, name)
	draw.StartTime = time.Now().UTC().Add(-48 * time.Hour)
	draw.EndTime = time.Now().UTC().Add(-1 * time.Hour)
	return draw
}

// CreateUpcomingTestDraw creates a draw whose window has not opened yet
func CreateUpcomingTestDraw(companyID uuid.UUID, name string) *entities.Draw {
	draw := CreateTestDraw(companyID, name)
	draw.StartTime = time.Now().UTC().Add(1 * time.Hour)
	draw.EndTime = time.Now().UTC().Add(24 * time.Hour)
	draw.Status = entities.DrawStatusUpcoming
	return draw
}
