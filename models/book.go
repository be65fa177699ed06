package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status values for a book's reading progress. Transitions are not
// enforced server-side; an update may set any valid status directly.
const (
	StatusUnread    = "unread"
	StatusReading   = "reading"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"
)

var ValidStatuses = []string{StatusUnread, StatusReading, StatusFinished, StatusAbandoned}

var ValidGenres = []string{
	"Fiction", "Sci-Fi", "Fantasy", "Romance",
	"Mystery", "History", "Biography", "Self-Help",
}

type Book struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner        primitive.ObjectID `bson:"owner" json:"owner"`
	Title        string             `bson:"title" json:"title"`
	Author       string             `bson:"author" json:"author"`
	TotalPages   int                `bson:"totalPages" json:"totalPages"`
	CurrentPage  int                `bson:"currentPage" json:"currentPage"`
	Genre        string             `bson:"genre" json:"genre"`
	Status       string             `bson:"status" json:"status"`
	Rating       *int               `bson:"rating,omitempty" json:"rating,omitempty"`
	CoverURL     string             `bson:"coverUrl,omitempty" json:"coverUrl,omitempty"`
	CoverS3Key   string             `bson:"coverS3Key,omitempty" json:"-"` // object key in S3 for an uploaded cover
	Review       string             `bson:"review,omitempty" json:"review,omitempty"`
	DateAdded    time.Time          `bson:"dateAdded" json:"dateAdded"`
	DateFinished *time.Time         `bson:"dateFinished,omitempty" json:"dateFinished,omitempty"`
}

func StatusValid(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func GenreValid(g string) bool {
	for _, v := range ValidGenres {
		if v == g {
			return true
		}
	}
	return false
}

func RatingValid(r int) bool {
	return r >= 1 && r <= 5
}

// ValidateNew checks a candidate record before insertion and returns the
// names of invalid or missing fields. Owner, id and dateAdded are stamped
// by the server and are not the caller's concern.
func (b *Book) ValidateNew() []string {
	var bad []string
	if b.Title == "" {
		bad = append(bad, "title")
	}
	if b.Author == "" {
		bad = append(bad, "author")
	}
	if b.TotalPages <= 0 {
		bad = append(bad, "totalPages")
	}
	if !GenreValid(b.Genre) {
		bad = append(bad, "genre")
	}
	if b.Status != "" && !StatusValid(b.Status) {
		bad = append(bad, "status")
	}
	if b.Rating != nil && !RatingValid(*b.Rating) {
		bad = append(bad, "rating")
	}
	if b.CurrentPage < 0 {
		bad = append(bad, "currentPage")
	}
	return bad
}
