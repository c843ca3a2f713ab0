// Package file provides storage for file-tree metadata.
package file

import (
	"context"
	"time"

	"github.com/dalemusser/stratafiles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the fixed page size for listings.
const PageSize = 20

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("files")}
}

// CreateInput contains the input for creating a file record. Validation of
// name, kind, and parent happens in the files feature before this is called;
// the store only persists.
type CreateInput struct {
	OwnerID     primitive.ObjectID
	Name        string
	Kind        string
	IsPublic    bool
	ParentID    *primitive.ObjectID // nil = root
	StoragePath string              // empty for folders
}

// Create inserts a new file record and returns it. The insert acknowledgment
// carries everything the caller needs, so there is no read-back.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now().UTC()
	f := models.File{
		ID:          primitive.NewObjectID(),
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Kind:        input.Kind,
		IsPublic:    input.IsPublic,
		ParentID:    input.ParentID,
		StoragePath: input.StoragePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves a file by ID regardless of owner. Used by content
// retrieval, which does its own visibility check.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByIDAndOwner retrieves a file by ID scoped to an owner. A file owned by
// someone else is indistinguishable from a missing one: both return
// mongo.ErrNoDocuments.
func (s *Store) GetByIDAndOwner(ctx context.Context, id, ownerID primitive.ObjectID) (*models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByParent returns one page of an owner's files under a parent folder.
// Pass nil for parentID to list root-level files. Results are ordered by
// ascending _id (insertion order); pages are skip/limit windows of PageSize.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, page int) ([]models.File, error) {
	if page < 0 {
		page = 0
	}

	filter := bson.M{"owner_id": ownerID, "parent_id": parentID}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page) * PageSize).
		SetLimit(PageSize)

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// SetPublic updates the is_public flag of a file owned by ownerID and returns
// the updated record. Setting the current value again is a no-op success.
// Returns mongo.ErrNoDocuments if the file is absent or owned by someone else.
func (s *Store) SetPublic(ctx context.Context, id, ownerID primitive.ObjectID, value bool) (*models.File, error) {
	update := bson.M{"$set": bson.M{
		"is_public":  value,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var f models.File
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner_id": ownerID}, update, opts).Decode(&f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Count returns the number of file records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
