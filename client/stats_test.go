package client

import (
	"testing"
	"time"

	"github.com/bookkeep/backend/models"
	"github.com/stretchr/testify/assert"
)

func finishedBook(genre string, pages int, rating *int, finished time.Time) models.Book {
	return models.Book{
		Title:        genre + " book",
		Genre:        genre,
		TotalPages:   pages,
		Status:       models.StatusFinished,
		Rating:       rating,
		DateFinished: &finished,
	}
}

func intPtr(v int) *int { return &v }

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil, 0, time.Now())

	assert.Empty(t, st.GenreDistribution)
	assert.Equal(t, 0, st.FinishedCount)
	assert.Equal(t, 0.0, st.AverageRating)
	assert.Equal(t, DefaultYearlyGoal, st.YearlyGoal)
	assert.Len(t, st.MonthlyFinished, 12)
}

func TestComputeStatsAggregates(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	books := []models.Book{
		finishedBook("Sci-Fi", 412, intPtr(5), now.AddDate(0, 0, -10)),
		finishedBook("Sci-Fi", 200, intPtr(4), now.AddDate(0, -1, 0)),
		finishedBook("Fantasy", 300, nil, now.AddDate(-1, 0, 0)), // last year
		{Title: "In progress", Genre: "History", TotalPages: 500, CurrentPage: 120, Status: models.StatusReading, Rating: intPtr(3)},
		{Title: "Untouched", Genre: "Romance", TotalPages: 150, Status: models.StatusUnread},
	}

	st := ComputeStats(books, 24, now)

	assert.Equal(t, 3, st.FinishedCount)
	assert.Equal(t, 1, st.ReadingCount)
	assert.Equal(t, 912, st.PagesRead, "only finished books count toward pages read")
	assert.Equal(t, map[string]int{"Sci-Fi": 2, "Fantasy": 1}, st.GenreDistribution)
	assert.Equal(t, 2, st.FinishedThisYear)
	assert.InDelta(t, 2.0/24.0*100, st.GoalProgress, 0.001)
	assert.InDelta(t, 4.0, st.AverageRating, 0.001) // (5+4+3)/3
	assert.Equal(t, [5]int{0, 0, 1, 1, 1}, st.RatingCounts)
}

func TestComputeStatsMonthlyWindow(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	books := []models.Book{
		finishedBook("Fiction", 100, nil, time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)),
		finishedBook("Fiction", 100, nil, time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)),
		finishedBook("Fiction", 100, nil, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)),
		// Outside the trailing 12 months.
		finishedBook("Fiction", 100, nil, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)),
	}

	st := ComputeStats(books, 24, now)

	months := st.MonthlyFinished
	assert.Len(t, months, 12)
	assert.Equal(t, "Sep", months[0].Month)
	assert.Equal(t, 1, months[0].Count)
	assert.Equal(t, "Aug", months[11].Month)
	assert.Equal(t, 1, months[11].Count)

	total := 0
	for _, m := range months {
		total += m.Count
	}
	assert.Equal(t, 3, total)
}

func TestComputeStatsGoalCapped(t *testing.T) {
	now := time.Now()
	books := make([]models.Book, 0, 5)
	for i := 0; i < 5; i++ {
		books = append(books, finishedBook("Fiction", 100, nil, now))
	}

	st := ComputeStats(books, 2, now)
	assert.Equal(t, 100.0, st.GoalProgress)
}
