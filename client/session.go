package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookkeep/backend/models"
)

// Session holds the authenticated identity and the fetched collection.
// Mutations update local state optimistically; when the server call fails
// the authoritative list is refetched instead of rolling back.
type Session struct {
	client *Client

	mu    sync.RWMutex
	user  *models.UserSummary
	books []models.Book
	subs  []func()
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Subscribe registers a callback invoked after every state change. The
// callback must not call back into the session.
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Session) User() *models.UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Books returns a snapshot of the collection.
func (s *Session) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Login authenticates and refetches the collection for the new identity.
func (s *Session) Login(ctx context.Context, email, password string) error {
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Logout clears the token and all local state.
func (s *Session) Logout() {
	s.client.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.books = nil
	s.mu.Unlock()
	s.notify()
}

// Refresh replaces the local collection with the server's list.
func (s *Session) Refresh(ctx context.Context) error {
	books, err := s.client.Books(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.books = books
	s.mu.Unlock()
	s.notify()
	return nil
}

// AddBook creates the record on the server and prepends the stored record.
// Page-count consistency is checked here at the client boundary; the
// server does not guarantee it.
func (s *Session) AddBook(ctx context.Context, draft BookDraft) (*models.Book, error) {
	if draft.CurrentPage > draft.TotalPages {
		return nil, fmt.Errorf("currentPage %d exceeds totalPages %d", draft.CurrentPage, draft.TotalPages)
	}
	book, err := s.client.CreateBook(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.books = append([]models.Book{*book}, s.books...)
	s.mu.Unlock()
	s.notify()
	return book, nil
}

// UpdateBook merges the changes into local state first, then confirms with
// the server; on failure the list is refetched.
func (s *Session) UpdateBook(ctx context.Context, id string, upd BookUpdate) error {
	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID.Hex() == id {
			if upd.CurrentPage != nil {
				total := s.books[i].TotalPages
				if upd.TotalPages != nil {
					total = *upd.TotalPages
				}
				if *upd.CurrentPage > total {
					s.mu.Unlock()
					return fmt.Errorf("currentPage %d exceeds totalPages %d", *upd.CurrentPage, total)
				}
			}
			mergeUpdate(&s.books[i], upd)
			break
		}
	}
	s.mu.Unlock()
	s.notify()

	if _, err := s.client.UpdateBook(ctx, id, upd); err != nil {
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			return refreshErr
		}
		return err
	}
	return nil
}

// DeleteBook removes the record locally and on the server; on failure the
// list is refetched.
func (s *Session) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID.Hex() == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()

	if err := s.client.DeleteBook(ctx, id); err != nil {
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			return refreshErr
		}
		return err
	}
	return nil
}

// BookByID returns the local copy of a record, if present.
func (s *Session) BookByID(id string) (*models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.books {
		if s.books[i].ID.Hex() == id {
			b := s.books[i]
			return &b, true
		}
	}
	return nil, false
}

func mergeUpdate(b *models.Book, upd BookUpdate) {
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.TotalPages != nil {
		b.TotalPages = *upd.TotalPages
	}
	if upd.CurrentPage != nil {
		b.CurrentPage = *upd.CurrentPage
	}
	if upd.Genre != nil {
		b.Genre = *upd.Genre
	}
	if upd.Status != nil {
		b.Status = *upd.Status
	}
	if upd.Rating != nil {
		b.Rating = upd.Rating
	}
	if upd.CoverURL != nil {
		b.CoverURL = *upd.CoverURL
	}
	if upd.Review != nil {
		b.Review = *upd.Review
	}
	if upd.DateFinished != nil {
		b.DateFinished = upd.DateFinished
	}
}
