package thumbs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dalemusser/stratafiles/internal/app/content"
	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	"github.com/dalemusser/stratafiles/internal/domain/models"
	"github.com/dalemusser/stratafiles/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestWorker(t *testing.T) (*Worker, *filestore.Store, *content.Store) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	files := filestore.New(db)

	backend, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	blobs := content.New(backend)

	return NewWorker(files, blobs, zap.NewNop()), files, blobs
}

// testPNG renders a wide solid image so resized variants have a predictable
// aspect ratio.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestWorker_Handle(t *testing.T) {
	worker, files, blobs := newTestWorker(t)
	ctx := context.Background()

	data := testPNG(t, 1000, 500)
	key, err := blobs.Put(ctx, data, "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	owner := primitive.NewObjectID()
	f, err := files.Create(ctx, filestore.CreateInput{
		OwnerID:     owner,
		Name:        "banner.png",
		Kind:        models.KindImage,
		StoragePath: key,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := worker.Handle(ctx, Payload(f.ID, owner)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	for _, width := range Widths {
		variant, err := blobs.Get(ctx, content.VariantKey(key, width))
		if err != nil {
			t.Fatalf("variant %d missing: %v", width, err)
		}
		img, format, err := image.Decode(bytes.NewReader(variant))
		if err != nil {
			t.Fatalf("variant %d decode error = %v", width, err)
		}
		if format != "png" {
			t.Errorf("variant %d format = %v, want png", width, format)
		}
		if got := img.Bounds().Dx(); got != width {
			t.Errorf("variant width = %d, want %d", got, width)
		}
		wantHeight := width / 2 // source is 2:1
		if got := img.Bounds().Dy(); got != wantHeight {
			t.Errorf("variant %d height = %d, want %d", width, got, wantHeight)
		}
	}
}

func TestWorker_Handle_Reprocess(t *testing.T) {
	worker, files, blobs := newTestWorker(t)
	ctx := context.Background()

	key, err := blobs.Put(ctx, testPNG(t, 600, 600), "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	owner := primitive.NewObjectID()
	f, err := files.Create(ctx, filestore.CreateInput{
		OwnerID:     owner,
		Name:        "square.png",
		Kind:        models.KindImage,
		StoragePath: key,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Running the same job twice overwrites variants in place.
	if err := worker.Handle(ctx, Payload(f.ID, owner)); err != nil {
		t.Fatalf("Handle() first run error = %v", err)
	}
	if err := worker.Handle(ctx, Payload(f.ID, owner)); err != nil {
		t.Fatalf("Handle() second run error = %v", err)
	}
}

func TestWorker_Handle_Errors(t *testing.T) {
	worker, files, blobs := newTestWorker(t)
	ctx := context.Background()

	owner := primitive.NewObjectID()

	tests := []struct {
		name    string
		payload bson.M
	}{
		{"missing file_id", bson.M{"owner_id": owner.Hex()}},
		{"missing owner_id", bson.M{"file_id": primitive.NewObjectID().Hex()}},
		{"bad file_id", bson.M{"file_id": "nope", "owner_id": owner.Hex()}},
		{"unknown file", Payload(primitive.NewObjectID(), owner)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := worker.Handle(ctx, tt.payload); err == nil {
				t.Error("Handle() error = nil, want error")
			}
		})
	}

	// Metadata points at content that is not a decodable image.
	key, err := blobs.Put(ctx, []byte("definitely not an image"), "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	f, err := files.Create(ctx, filestore.CreateInput{
		OwnerID:     owner,
		Name:        "broken.png",
		Kind:        models.KindImage,
		StoragePath: key,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := worker.Handle(ctx, Payload(f.ID, owner)); err == nil {
		t.Error("Handle() with undecodable content error = nil, want error")
	}

	// Owner mismatch behaves like a missing file.
	if err := worker.Handle(ctx, Payload(f.ID, primitive.NewObjectID())); err == nil {
		t.Error("Handle() with wrong owner error = nil, want error")
	}
}
