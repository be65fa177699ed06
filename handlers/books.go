package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bookkeep/backend/middleware"
	"github.com/bookkeep/backend/models"
	"github.com/bookkeep/backend/service"
	"github.com/bookkeep/backend/store"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCoverBytes = 5 * 1024 * 1024

type BooksHandler struct {
	DB BookStore
	S3 *service.S3Service
}

type CreateBookRequest struct {
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	TotalPages   int        `json:"totalPages"`
	CurrentPage  int        `json:"currentPage"`
	Genre        string     `json:"genre"`
	Status       string     `json:"status"`
	Rating       *int       `json:"rating"`
	CoverURL     string     `json:"coverUrl"`
	Review       string     `json:"review"`
	DateFinished *time.Time `json:"dateFinished"`
}

// UpdateBookRequest enumerates the mutable fields of a book. Owner, id and
// dateAdded are never updatable; unknown JSON fields are rejected rather
// than merged.
type UpdateBookRequest struct {
	Title        *string    `json:"title"`
	Author       *string    `json:"author"`
	TotalPages   *int       `json:"totalPages"`
	CurrentPage  *int       `json:"currentPage"`
	Genre        *string    `json:"genre"`
	Status       *string    `json:"status"`
	Rating       *int       `json:"rating"`
	CoverURL     *string    `json:"coverUrl"`
	Review       *string    `json:"review"`
	DateFinished *time.Time `json:"dateFinished"`
}

// owner resolves the authenticated identity; handlers never read it from
// the request body or query.
func owner(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func bookID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		// An unparseable id cannot match any record; same answer as not owned.
		writeError(w, http.StatusNotFound, "book not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	books, err := h.DB.BooksByOwner(r.Context(), ownerID)
	if err != nil {
		log.Printf("list books: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	book := &models.Book{
		Owner:        ownerID,
		Title:        strings.TrimSpace(req.Title),
		Author:       strings.TrimSpace(req.Author),
		TotalPages:   req.TotalPages,
		CurrentPage:  req.CurrentPage,
		Genre:        req.Genre,
		Status:       req.Status,
		Rating:       req.Rating,
		CoverURL:     req.CoverURL,
		Review:       req.Review,
		DateFinished: req.DateFinished,
		DateAdded:    time.Now(),
	}
	if bad := book.ValidateNew(); len(bad) > 0 {
		writeValidationError(w, bad)
		return
	}
	if book.Status == "" {
		book.Status = models.StatusUnread
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		log.Printf("create book: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save book")
		return
	}
	book.ID = id
	writeJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req UpdateBookRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	set, bad := updateSet(&req)
	if len(bad) > 0 {
		writeValidationError(w, bad)
		return
	}
	if len(set) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	book, err := h.DB.UpdateBookForOwner(r.Context(), id, ownerID, set)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		log.Printf("update book: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func updateSet(req *UpdateBookRequest) (bson.M, []string) {
	set := bson.M{}
	var bad []string
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			bad = append(bad, "title")
		} else {
			set["title"] = strings.TrimSpace(*req.Title)
		}
	}
	if req.Author != nil {
		if strings.TrimSpace(*req.Author) == "" {
			bad = append(bad, "author")
		} else {
			set["author"] = strings.TrimSpace(*req.Author)
		}
	}
	if req.TotalPages != nil {
		if *req.TotalPages <= 0 {
			bad = append(bad, "totalPages")
		} else {
			set["totalPages"] = *req.TotalPages
		}
	}
	if req.CurrentPage != nil {
		if *req.CurrentPage < 0 {
			bad = append(bad, "currentPage")
		} else {
			set["currentPage"] = *req.CurrentPage
		}
	}
	if req.Genre != nil {
		if !models.GenreValid(*req.Genre) {
			bad = append(bad, "genre")
		} else {
			set["genre"] = *req.Genre
		}
	}
	if req.Status != nil {
		if !models.StatusValid(*req.Status) {
			bad = append(bad, "status")
		} else {
			set["status"] = *req.Status
		}
	}
	if req.Rating != nil {
		if !models.RatingValid(*req.Rating) {
			bad = append(bad, "rating")
		} else {
			set["rating"] = *req.Rating
		}
	}
	if req.CoverURL != nil {
		set["coverUrl"] = *req.CoverURL
	}
	if req.Review != nil {
		set["review"] = *req.Review
	}
	if req.DateFinished != nil {
		set["dateFinished"] = *req.DateFinished
	}
	return set, bad
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	book, err := h.DB.DeleteBookForOwner(r.Context(), id, ownerID)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		log.Printf("delete book: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	if h.S3 != nil && book.CoverS3Key != "" {
		if err := h.S3.Delete(r.Context(), book.CoverS3Key); err != nil {
			log.Printf("delete cover %s: %v", book.CoverS3Key, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// UploadCover stores a cover image in S3 for an owned book and points the
// record's coverUrl at the streaming endpoint.
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	if h.S3 == nil {
		writeError(w, http.StatusServiceUnavailable, "cover upload not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes)
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing cover file")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "only images are allowed")
		return
	}

	// Ownership check and upload precede the record update, but the update
	// itself still carries the (id AND owner) predicate.
	if _, err := h.DB.BookByIDForOwner(r.Context(), id, ownerID); err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		log.Printf("upload cover: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}
	key, err := h.S3.Upload(r.Context(), "covers/", header.Filename, file, contentType)
	if err != nil {
		log.Printf("upload cover to s3: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}
	book, err := h.DB.UpdateBookForOwner(r.Context(), id, ownerID, bson.M{
		"coverS3Key": key,
		"coverUrl":   "/api/books/" + id.Hex() + "/cover",
	})
	if err != nil {
		if delErr := h.S3.Delete(r.Context(), key); delErr != nil {
			log.Printf("cleanup cover %s: %v", key, delErr)
		}
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		log.Printf("upload cover: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Cover streams the stored cover image for an owned book.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	book, err := h.DB.BookByIDForOwner(r.Context(), id, ownerID)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		log.Printf("get cover: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load cover")
		return
	}
	if book.CoverS3Key == "" || h.S3 == nil {
		writeError(w, http.StatusNotFound, "no cover")
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), book.CoverS3Key)
	if err != nil {
		log.Printf("get cover from s3: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load cover")
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}
