package userstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratafiles/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "Bob@Example.com", "hash123")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if u.Email != "bob@example.com" {
		t.Errorf("Email = %v, want lowercased bob@example.com", u.Email)
	}
	if u.PasswordHash != "hash123" {
		t.Errorf("PasswordHash = %v, want hash123", u.PasswordHash)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "dup@example.com", "h1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := store.Create(ctx, "dup@example.com", "h2")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateEmail", err)
	}

	// Case differences collapse onto the same account.
	_, err = store.Create(ctx, "DUP@example.com", "h3")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() case-variant duplicate error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "find@example.com", "h")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	u, err := store.GetByEmail(ctx, "  FIND@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("ID = %v, want %v", u.ID, created.ID)
	}

	_, err = store.GetByEmail(ctx, "missing@example.com")
	if err != mongo.ErrNoDocuments {
		t.Errorf("GetByEmail() for missing user error = %v, want %v", err, mongo.ErrNoDocuments)
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "byid@example.com", "h")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	u, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if u.Email != "byid@example.com" {
		t.Errorf("Email = %v, want byid@example.com", u.Email)
	}

	_, err = store.GetByID(ctx, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("GetByID() for missing user error = %v, want %v", err, mongo.ErrNoDocuments)
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

	if _, err := store.Create(ctx, "a@example.com", "h"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, "b@example.com", "h"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	n, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
