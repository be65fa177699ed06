package handlers

import (
	"context"

	"github.com/bookkeep/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore and BookStore are the slices of *store.DB the handlers use;
// tests swap in mocks.

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	BooksByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Book, error)
	BookByIDForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Book, error)
	UpdateBookForOwner(ctx context.Context, id, owner primitive.ObjectID, set bson.M) (*models.Book, error)
	DeleteBookForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Book, error)
}
