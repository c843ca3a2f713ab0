package file

import (
	"fmt"
	"testing"

	"github.com/dalemusser/stratafiles/internal/domain/models"
	"github.com/dalemusser/stratafiles/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	input := CreateInput{
		OwnerID:     primitive.NewObjectID(),
		Name:        "notes.txt",
		Kind:        models.KindFile,
		IsPublic:    false,
		StoragePath: "5f1e7d2c-41aa-4f3b-9d0a-1c2b3d4e5f6a",
	}

	f, err := store.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if f.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if f.Name != input.Name {
		t.Errorf("Name = %v, want %v", f.Name, input.Name)
	}
	if f.Kind != models.KindFile {
		t.Errorf("Kind = %v, want %v", f.Kind, models.KindFile)
	}
	if f.IsPublic {
		t.Error("IsPublic should default to false")
	}
	if f.ParentID != nil {
		t.Error("ParentID should be nil for a root file")
	}
	if f.StoragePath != input.StoragePath {
		t.Errorf("StoragePath = %v, want %v", f.StoragePath, input.StoragePath)
	}
	if f.CreatedAt.IsZero() || f.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestStore_Create_InFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	folder, err := store.Create(ctx, CreateInput{
		OwnerID: owner,
		Name:    "photos",
		Kind:    models.KindFolder,
	})
	if err != nil {
		t.Fatalf("Create() folder error = %v", err)
	}

	f, err := store.Create(ctx, CreateInput{
		OwnerID:     owner,
		Name:        "cat.png",
		Kind:        models.KindImage,
		ParentID:    &folder.ID,
		StoragePath: "abc",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if f.ParentID == nil || *f.ParentID != folder.ID {
		t.Errorf("ParentID = %v, want %v", f.ParentID, folder.ID)
	}
}

func TestStore_GetByIDAndOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created, err := store.Create(ctx, CreateInput{
		OwnerID: owner,
		Name:    "mine.txt",
		Kind:    models.KindFile,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Owner can read it back.
	f, err := store.GetByIDAndOwner(ctx, created.ID, owner)
	if err != nil {
		t.Fatalf("GetByIDAndOwner() error = %v", err)
	}
	if f.ID != created.ID {
		t.Errorf("ID = %v, want %v", f.ID, created.ID)
	}

	// Another user sees the same error as for a missing record.
	_, err = store.GetByIDAndOwner(ctx, created.ID, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("GetByIDAndOwner() for other owner error = %v, want %v", err, mongo.ErrNoDocuments)
	}

	_, err = store.GetByIDAndOwner(ctx, primitive.NewObjectID(), owner)
	if err != mongo.ErrNoDocuments {
		t.Errorf("GetByIDAndOwner() for missing ID error = %v, want %v", err, mongo.ErrNoDocuments)
	}
}

func TestStore_ListByParent_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for i := 0; i < 25; i++ {
		_, err := store.Create(ctx, CreateInput{
			OwnerID: owner,
			Name:    fmt.Sprintf("file-%02d.txt", i),
			Kind:    models.KindFile,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page0, err := store.ListByParent(ctx, owner, nil, 0)
	if err != nil {
		t.Fatalf("ListByParent(page 0) error = %v", err)
	}
	if len(page0) != PageSize {
		t.Errorf("page 0 length = %d, want %d", len(page0), PageSize)
	}
	if page0[0].Name != "file-00.txt" {
		t.Errorf("first item = %v, want file-00.txt", page0[0].Name)
	}

	page1, err := store.ListByParent(ctx, owner, nil, 1)
	if err != nil {
		t.Fatalf("ListByParent(page 1) error = %v", err)
	}
	if len(page1) != 5 {
		t.Errorf("page 1 length = %d, want 5", len(page1))
	}
	if page1[0].Name != "file-20.txt" {
		t.Errorf("page 1 first item = %v, want file-20.txt", page1[0].Name)
	}

	page2, err := store.ListByParent(ctx, owner, nil, 2)
	if err != nil {
		t.Fatalf("ListByParent(page 2) error = %v", err)
	}
	if len(page2) != 0 {
		t.Errorf("page 2 length = %d, want 0", len(page2))
	}

	// Negative pages clamp to the first page.
	pageNeg, err := store.ListByParent(ctx, owner, nil, -3)
	if err != nil {
		t.Fatalf("ListByParent(page -3) error = %v", err)
	}
	if len(pageNeg) != PageSize {
		t.Errorf("negative page length = %d, want %d", len(pageNeg), PageSize)
	}
}

func TestStore_ListByParent_Scoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	folder, err := store.Create(ctx, CreateInput{OwnerID: owner, Name: "docs", Kind: models.KindFolder})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, CreateInput{OwnerID: owner, Name: "inside.txt", Kind: models.KindFile, ParentID: &folder.ID}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, CreateInput{OwnerID: owner, Name: "root.txt", Kind: models.KindFile}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, CreateInput{OwnerID: other, Name: "theirs.txt", Kind: models.KindFile}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	inFolder, err := store.ListByParent(ctx, owner, &folder.ID, 0)
	if err != nil {
		t.Fatalf("ListByParent(folder) error = %v", err)
	}
	if len(inFolder) != 1 || inFolder[0].Name != "inside.txt" {
		t.Errorf("folder listing = %v, want only inside.txt", inFolder)
	}

	atRoot, err := store.ListByParent(ctx, owner, nil, 0)
	if err != nil {
		t.Fatalf("ListByParent(root) error = %v", err)
	}
	if len(atRoot) != 2 {
		t.Errorf("root listing length = %d, want 2 (folder + root file, not other user's)", len(atRoot))
	}
	for _, f := range atRoot {
		if f.OwnerID != owner {
			t.Errorf("root listing leaked file owned by %v", f.OwnerID)
		}
	}
}

func TestStore_SetPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created, err := store.Create(ctx, CreateInput{OwnerID: owner, Name: "pub.txt", Kind: models.KindFile})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f, err := store.SetPublic(ctx, created.ID, owner, true)
	if err != nil {
		t.Fatalf("SetPublic(true) error = %v", err)
	}
	if !f.IsPublic {
		t.Error("IsPublic = false after publish")
	}

	// Publishing again is a no-op success.
	f, err = store.SetPublic(ctx, created.ID, owner, true)
	if err != nil {
		t.Fatalf("SetPublic(true) again error = %v", err)
	}
	if !f.IsPublic {
		t.Error("IsPublic = false after repeated publish")
	}

	f, err = store.SetPublic(ctx, created.ID, owner, false)
	if err != nil {
		t.Fatalf("SetPublic(false) error = %v", err)
	}
	if f.IsPublic {
		t.Error("IsPublic = true after unpublish")
	}

	// Non-owner cannot flip visibility.
	_, err = store.SetPublic(ctx, created.ID, primitive.NewObjectID(), true)
	if err != mongo.ErrNoDocuments {
		t.Errorf("SetPublic() for other owner error = %v, want %v", err, mongo.ErrNoDocuments)
	}
}

func TestStore_Count(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, CreateInput{OwnerID: primitive.NewObjectID(), Name: "f", Kind: models.KindFile}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	n, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
