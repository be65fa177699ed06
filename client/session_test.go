package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bookkeep/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAPI is a minimal in-memory server speaking the bookkeep REST
// surface, enough to drive the session.
type fakeAPI struct {
	mu         sync.Mutex
	books      []models.Book
	token      string
	failUpdate bool
	failDelete bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "pw1" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": f.token,
			"user":  models.UserSummary{ID: primitive.NewObjectID().Hex(), Username: "alice", Email: req.Email},
		})
	})
	mux.HandleFunc("/api/books", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(f.books)
		case http.MethodPost:
			var draft BookDraft
			json.NewDecoder(r.Body).Decode(&draft)
			book := models.Book{
				ID: primitive.NewObjectID(), Owner: primitive.NewObjectID(),
				Title: draft.Title, Author: draft.Author, TotalPages: draft.TotalPages,
				Genre: draft.Genre, Status: models.StatusUnread, DateAdded: time.Now(),
			}
			f.books = append([]models.Book{book}, f.books...)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(book)
		}
	})
	mux.HandleFunc("/api/books/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/books/")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPatch:
			if f.failUpdate {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "book not found"})
				return
			}
			var upd BookUpdate
			json.NewDecoder(r.Body).Decode(&upd)
			for i := range f.books {
				if f.books[i].ID.Hex() == id {
					mergeUpdate(&f.books[i], upd)
					json.NewEncoder(w).Encode(f.books[i])
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodDelete:
			if f.failDelete {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "book not found"})
				return
			}
			for i := range f.books {
				if f.books[i].ID.Hex() == id {
					f.books = append(f.books[:i], f.books[i+1:]...)
					break
				}
			}
			json.NewEncoder(w).Encode(map[string]string{"message": "book deleted"})
		}
	})
	return mux
}

func newTestSession(t *testing.T, api *fakeAPI) *Session {
	t.Helper()
	if api.token == "" {
		api.token = "session-token"
	}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return NewSession(New(srv.URL))
}

func TestLoginFetchesCollection(t *testing.T) {
	api := &fakeAPI{books: []models.Book{{ID: primitive.NewObjectID(), Title: "Dune"}}}
	s := newTestSession(t, api)

	notified := 0
	s.Subscribe(func() { notified++ })

	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	require.NotNil(t, s.User())
	assert.Equal(t, "alice", s.User().Username)
	books := s.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Greater(t, notified, 0)
}

func TestLoginBadCredentials(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(t, api)

	err := s.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Nil(t, s.User())
}

func TestLogoutClearsState(t *testing.T) {
	api := &fakeAPI{books: []models.Book{{ID: primitive.NewObjectID(), Title: "Dune"}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	s.Logout()

	assert.Nil(t, s.User())
	assert.Empty(t, s.Books())
	// Follow-up fetches are unauthenticated.
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrUnauthenticated)
}

func TestAddBookPrepends(t *testing.T) {
	api := &fakeAPI{books: []models.Book{{ID: primitive.NewObjectID(), Title: "Old"}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	book, err := s.AddBook(context.Background(), BookDraft{
		Title: "Dune", Author: "Herbert", TotalPages: 412, Genre: "Sci-Fi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnread, book.Status)

	books := s.Books()
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestAddBookPageBoundsCheckedLocally(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	_, err := s.AddBook(context.Background(), BookDraft{
		Title: "Dune", Author: "Herbert", TotalPages: 100, CurrentPage: 200, Genre: "Sci-Fi",
	})
	require.Error(t, err)
	assert.Empty(t, s.Books(), "rejected draft must not reach local state")
}

func TestUpdateBookOptimistic(t *testing.T) {
	id := primitive.NewObjectID()
	api := &fakeAPI{books: []models.Book{{ID: id, Title: "Dune", TotalPages: 412, Status: models.StatusUnread}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	status := models.StatusReading
	require.NoError(t, s.UpdateBook(context.Background(), id.Hex(), BookUpdate{Status: &status}))

	book, ok := s.BookByID(id.Hex())
	require.True(t, ok)
	assert.Equal(t, models.StatusReading, book.Status)
}

// A failed update leaves the authoritative server list in place after the
// refetch; the optimistic change is discarded.
func TestUpdateBookFailureRefetches(t *testing.T) {
	id := primitive.NewObjectID()
	api := &fakeAPI{books: []models.Book{{ID: id, Title: "Dune", TotalPages: 412, Status: models.StatusUnread}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))
	api.failUpdate = true

	status := models.StatusFinished
	err := s.UpdateBook(context.Background(), id.Hex(), BookUpdate{Status: &status})
	require.Error(t, err)

	book, ok := s.BookByID(id.Hex())
	require.True(t, ok)
	assert.Equal(t, models.StatusUnread, book.Status, "local state must converge back to the server's")
}

func TestDeleteBookOptimistic(t *testing.T) {
	id := primitive.NewObjectID()
	api := &fakeAPI{books: []models.Book{{ID: id, Title: "Dune"}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))

	require.NoError(t, s.DeleteBook(context.Background(), id.Hex()))
	assert.Empty(t, s.Books())
}

func TestDeleteBookFailureRefetches(t *testing.T) {
	id := primitive.NewObjectID()
	api := &fakeAPI{books: []models.Book{{ID: id, Title: "Dune"}}}
	s := newTestSession(t, api)
	require.NoError(t, s.Login(context.Background(), "a@x.com", "pw1"))
	api.failDelete = true

	err := s.DeleteBook(context.Background(), id.Hex())
	require.Error(t, err)
	assert.Len(t, s.Books(), 1, "record reappears after refetch")
}
