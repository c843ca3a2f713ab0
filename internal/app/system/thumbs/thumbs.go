// Package thumbs generates thumbnail variants for uploaded images.
//
// The upload path enqueues one job per image; a worker pulled from the job
// queue decodes the original and writes resized variants back into the
// content store under computed keys. Reprocessing the same job is safe:
// variants are recomputed and overwritten in place.
package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/dalemusser/stratafiles/internal/app/content"
	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Queue and job identifiers.
const (
	QueueName = "thumbnails"
	JobType   = "generate_thumbnails"
)

// Widths are the variant widths, generated in this order.
var Widths = []int{500, 250, 100}

// Payload builds the job payload for an uploaded image. Ids travel as hex
// strings, the same representation the API uses.
func Payload(fileID, ownerID primitive.ObjectID) bson.M {
	return bson.M{
		"file_id":  fileID.Hex(),
		"owner_id": ownerID.Hex(),
	}
}

// Worker processes thumbnail jobs.
type Worker struct {
	files  *filestore.Store
	blobs  *content.Store
	logger *zap.Logger
}

// NewWorker creates a thumbnail worker over the file and content stores.
func NewWorker(files *filestore.Store, blobs *content.Store, logger *zap.Logger) *Worker {
	return &Worker{files: files, blobs: blobs, logger: logger}
}

// Handle is the job handler registered with the runner. Any error fails the
// whole job so the queue's retry policy can redeliver it; variants already
// written stay on disk and are simply overwritten on the next attempt.
func (w *Worker) Handle(ctx context.Context, payload bson.M) error {
	fileID, ownerID, err := parsePayload(payload)
	if err != nil {
		return err
	}

	// Scoped to the owner recorded at upload time; a mismatch means the
	// job is stale or forged and must not produce output.
	f, err := w.files.GetByIDAndOwner(ctx, fileID, ownerID)
	if err != nil {
		return fmt.Errorf("file not found: %s", fileID.Hex())
	}
	if f.StoragePath == "" {
		return fmt.Errorf("file has no content: %s", fileID.Hex())
	}

	original, err := w.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		return fmt.Errorf("content not found for file %s: %w", fileID.Hex(), err)
	}

	src, format, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", fileID.Hex(), err)
	}

	for _, width := range Widths {
		data, err := encode(resize(src, width), format)
		if err != nil {
			return fmt.Errorf("encode %d-wide variant of %s: %w", width, fileID.Hex(), err)
		}
		key := content.VariantKey(f.StoragePath, width)
		if err := w.blobs.PutAt(ctx, key, data, "image/"+format); err != nil {
			return fmt.Errorf("store %d-wide variant of %s: %w", width, fileID.Hex(), err)
		}
		w.logger.Debug("thumbnail variant written",
			zap.String("file_id", fileID.Hex()),
			zap.Int("width", width),
			zap.String("key", key))
	}

	return nil
}

func parsePayload(payload bson.M) (fileID, ownerID primitive.ObjectID, err error) {
	fileHex, _ := payload["file_id"].(string)
	ownerHex, _ := payload["owner_id"].(string)
	if fileHex == "" {
		return fileID, ownerID, fmt.Errorf("payload missing file_id")
	}
	if ownerHex == "" {
		return fileID, ownerID, fmt.Errorf("payload missing owner_id")
	}

	fileID, err = primitive.ObjectIDFromHex(fileHex)
	if err != nil {
		return fileID, ownerID, fmt.Errorf("bad file_id %q: %w", fileHex, err)
	}
	ownerID, err = primitive.ObjectIDFromHex(ownerHex)
	if err != nil {
		return fileID, ownerID, fmt.Errorf("bad owner_id %q: %w", ownerHex, err)
	}
	return fileID, ownerID, nil
}

// resize scales src to the target width preserving aspect ratio.
func resize(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// encode writes img back in the same format it was decoded from, falling
// back to JPEG for formats without an encoder.
func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
