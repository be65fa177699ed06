package store

import (
	"context"

	"github.com/bookkeep/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Every book query below filters by (_id AND owner) in a single predicate.
// Ownership is never checked after fetching by id alone; a non-owner gets
// the same ErrNotFound as a missing record.

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) BooksByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{"owner": owner}, options.Find().SetSort(bson.M{"dateAdded": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByIDForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBookForOwner applies a $set of changed fields and returns the
// updated record, or ErrNotFound if no record matches (id AND owner).
func (db *DB) UpdateBookForOwner(ctx context.Context, id, owner primitive.ObjectID, set bson.M) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner": owner},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBookForOwner removes a record matching (id AND owner) and returns
// the deleted document so callers can clean up its stored cover.
func (db *DB) DeleteBookForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id, "owner": owner}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
