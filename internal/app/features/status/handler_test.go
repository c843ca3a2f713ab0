package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/domain/models"
	"github.com/dalemusser/stratafiles/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)

	r := chi.NewRouter()
	NewHandler(db.Client(), userstore.New(db), filestore.New(db), zap.NewNop()).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !got["db"] || !got["sessions"] {
		t.Errorf("body = %v, want db and sessions true", got)
	}
}

func TestStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	files := filestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := users.Create(ctx, "one@example.com", "h"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := files.Create(ctx, filestore.CreateInput{
			OwnerID: primitive.NewObjectID(),
			Name:    "f",
			Kind:    models.KindFile,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	r := chi.NewRouter()
	NewHandler(db.Client(), users, files, zap.NewNop()).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["users"] != 1 {
		t.Errorf("users = %d, want 1", got["users"])
	}
	if got["files"] != 2 {
		t.Errorf("files = %d, want 2", got["files"])
	}
}
