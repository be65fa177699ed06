package client

import (
	"time"

	"github.com/bookkeep/backend/models"
)

// DefaultYearlyGoal is the reading-challenge target used when the user has
// not picked one.
const DefaultYearlyGoal = 24

type MonthCount struct {
	Month string
	Count int
}

// Stats are the aggregates shown on the dashboard and analytics pages,
// derived entirely from the local collection.
type Stats struct {
	// Finished books per genre.
	GenreDistribution map[string]int
	// Finished books per calendar month, trailing 12 months oldest first.
	MonthlyFinished []MonthCount
	// Count of books rated 1..5 stars; index 0 holds one star.
	RatingCounts [5]int

	FinishedCount    int
	ReadingCount     int
	PagesRead        int // sum of totalPages over finished books
	AverageRating    float64
	FinishedThisYear int
	YearlyGoal       int
	GoalProgress     float64 // percent, capped at 100
}

// ComputeStats derives aggregates from books as of now. A yearlyGoal of
// zero or less falls back to DefaultYearlyGoal.
func ComputeStats(books []models.Book, yearlyGoal int, now time.Time) Stats {
	if yearlyGoal <= 0 {
		yearlyGoal = DefaultYearlyGoal
	}
	st := Stats{
		GenreDistribution: map[string]int{},
		YearlyGoal:        yearlyGoal,
	}

	ratedSum, ratedCount := 0, 0
	for i := range books {
		b := &books[i]
		switch b.Status {
		case models.StatusFinished:
			st.FinishedCount++
			st.PagesRead += b.TotalPages
			st.GenreDistribution[b.Genre]++
			if b.DateFinished != nil && b.DateFinished.Year() == now.Year() {
				st.FinishedThisYear++
			}
		case models.StatusReading:
			st.ReadingCount++
		}
		if b.Rating != nil && models.RatingValid(*b.Rating) {
			st.RatingCounts[*b.Rating-1]++
			ratedSum += *b.Rating
			ratedCount++
		}
	}
	if ratedCount > 0 {
		st.AverageRating = float64(ratedSum) / float64(ratedCount)
	}

	st.GoalProgress = float64(st.FinishedThisYear) / float64(yearlyGoal) * 100
	if st.GoalProgress > 100 {
		st.GoalProgress = 100
	}

	st.MonthlyFinished = monthlyFinished(books, now)
	return st
}

func monthlyFinished(books []models.Book, now time.Time) []MonthCount {
	months := make([]MonthCount, 0, 12)
	for i := 11; i >= 0; i-- {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		count := 0
		for j := range books {
			b := &books[j]
			if b.Status != models.StatusFinished || b.DateFinished == nil {
				continue
			}
			if b.DateFinished.Year() == first.Year() && b.DateFinished.Month() == first.Month() {
				count++
			}
		}
		months = append(months, MonthCount{Month: first.Format("Jan"), Count: count})
	}
	return months
}
