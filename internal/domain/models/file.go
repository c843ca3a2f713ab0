package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File kinds. A folder carries no content; files and images both point at a
// blob in the content store, and images additionally get thumbnail variants.
const (
	KindFolder = "folder"
	KindFile   = "file"
	KindImage  = "image"
)

// IsValidKind checks if a file kind is one of folder, file, or image.
func IsValidKind(kind string) bool {
	return kind == KindFolder || kind == KindFile || kind == KindImage
}

// File represents a node in a user's file tree.
//
// Records are immutable once written except for IsPublic, which is flipped
// by publish/unpublish. There are no move or delete operations, so ParentID
// never changes after creation.
type File struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID  `bson:"owner_id"`
	Name        string              `bson:"name"`
	Kind        string              `bson:"kind"` // folder, file, image
	IsPublic    bool                `bson:"is_public"`
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty"`    // nil = root level
	StoragePath string              `bson:"storage_path,omitempty"` // content store key; empty for folders
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

// IsInRoot returns true if the file sits at the root of its owner's tree.
func (f *File) IsInRoot() bool {
	return f.ParentID == nil
}

// HasContent returns true for kinds that carry bytes in the content store.
func (f *File) HasContent() bool {
	return f.Kind == KindFile || f.Kind == KindImage
}
