// Package client is a Go client for the bookkeep REST API. It carries the
// session token, exposes typed calls for every endpoint, and holds the
// fetched collection in an observable Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bookkeep/backend/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("book not found")
)

// APIError carries the server's message for 4xx responses that are not
// covered by a sentinel error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BookDraft is a candidate record for creation. Status and currentPage may
// be left zero; the server defaults them.
type BookDraft struct {
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	TotalPages   int        `json:"totalPages"`
	CurrentPage  int        `json:"currentPage,omitempty"`
	Genre        string     `json:"genre"`
	Status       string     `json:"status,omitempty"`
	Rating       *int       `json:"rating,omitempty"`
	CoverURL     string     `json:"coverUrl,omitempty"`
	Review       string     `json:"review,omitempty"`
	DateFinished *time.Time `json:"dateFinished,omitempty"`
}

// BookUpdate is a partial update; nil fields are left untouched.
type BookUpdate struct {
	Title        *string    `json:"title,omitempty"`
	Author       *string    `json:"author,omitempty"`
	TotalPages   *int       `json:"totalPages,omitempty"`
	CurrentPage  *int       `json:"currentPage,omitempty"`
	Genre        *string    `json:"genre,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Rating       *int       `json:"rating,omitempty"`
	CoverURL     *string    `json:"coverUrl,omitempty"`
	Review       *string    `json:"review,omitempty"`
	DateFinished *time.Time `json:"dateFinished,omitempty"`
}

type loginResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

// Login authenticates and stores the returned token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (models.UserSummary, error) {
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return models.UserSummary{}, err
	}
	c.SetToken(resp.Token)
	return resp.User, nil
}

func (c *Client) Books(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) CreateBook(ctx context.Context, draft BookDraft) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodPost, "/api/books", draft, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) UpdateBook(ctx context.Context, id string, upd BookUpdate) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodPatch, "/api/books/"+id, upd, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/books/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := "request failed"
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
