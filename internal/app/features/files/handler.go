// Package files provides the file metadata and content API.
//
// Endpoints:
//   - POST /files - Upload a folder, file, or image
//   - GET /files/:id - Fetch one owned file's metadata
//   - GET /files - List owned files under a parent, paginated
//   - PUT /files/:id/publish, /files/:id/unpublish - Toggle visibility
//   - GET /files/:id/data - Download content (optionally a thumbnail size)
//
// Visibility policy: private files answer 404 to everyone but their owner,
// for metadata and content alike. 403 is never returned, so probing for the
// existence of private files tells the prober nothing.
package files

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dalemusser/stratafiles/internal/app/content"
	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	"github.com/dalemusser/stratafiles/internal/app/system/apperrors"
	"github.com/dalemusser/stratafiles/internal/app/system/auth"
	"github.com/dalemusser/stratafiles/internal/app/system/jobrunner"
	"github.com/dalemusser/stratafiles/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafiles/internal/app/system/thumbs"
	"github.com/dalemusser/stratafiles/internal/app/system/timeouts"
	"github.com/dalemusser/stratafiles/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles file API requests.
type Handler struct {
	files  *filestore.Store
	blobs  *content.Store
	runner *jobrunner.Runner
	logger *zap.Logger
}

// NewHandler creates a new files handler.
func NewHandler(files *filestore.Store, blobs *content.Store, runner *jobrunner.Runner, logger *zap.Logger) *Handler {
	return &Handler{
		files:  files,
		blobs:  blobs,
		runner: runner,
		logger: logger,
	}
}

// Upload handles POST /files. Folders persist metadata only; files and
// images write their decoded bytes to the content store first, then the
// metadata record, so a failed blob write never leaves an orphan record.
// Images additionally enqueue a thumbnail job.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentCaller(r)

	var in UploadInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.createFile(ctx, caller, in)
	if err != nil {
		jsonutil.WriteError(w, err)
		return
	}

	jsonutil.Created(w, NewView(f))
}

// createFile validates the upload and persists it.
func (h *Handler) createFile(ctx context.Context, caller *auth.Caller, in UploadInput) (*models.File, error) {
	if in.Name == "" {
		return nil, apperrors.Validation("Missing name")
	}
	if !models.IsValidKind(in.Type) {
		return nil, apperrors.Validation("Missing type")
	}
	if in.Type != models.KindFolder && in.Data == nil {
		return nil, apperrors.Validation("Missing data")
	}

	parentID, err := h.resolveParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}

	input := filestore.CreateInput{
		OwnerID:  caller.ID,
		Name:     in.Name,
		Kind:     in.Type,
		IsPublic: in.IsPublic,
		ParentID: parentID,
	}

	if in.Type != models.KindFolder {
		data, err := base64.StdEncoding.DecodeString(*in.Data)
		if err != nil {
			return nil, apperrors.Validation("Invalid data")
		}

		key, err := h.blobs.Put(ctx, data, contentTypeFor(in.Name))
		if err != nil {
			h.logger.Error("blob write failed",
				zap.String("name", in.Name),
				zap.Error(err))
			return nil, apperrors.Storage(err)
		}
		input.StoragePath = key
	}

	f, err := h.files.Create(ctx, input)
	if err != nil {
		return nil, apperrors.Classify(err)
	}

	// Thumbnailing is best-effort: a full queue must not fail the upload.
	if f.Kind == models.KindImage {
		_, err := h.runner.Enqueue(ctx, thumbs.QueueName, thumbs.JobType, thumbs.Payload(f.ID, f.OwnerID))
		if err != nil {
			h.logger.Warn("failed to enqueue thumbnail job",
				zap.String("file_id", f.ID.Hex()),
				zap.Error(err))
		}
	}

	return f, nil
}

// resolveParent normalizes the transport-level parentId into a store
// reference and verifies the parent exists and is a folder.
func (h *Handler) resolveParent(ctx context.Context, raw any) (*primitive.ObjectID, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		if v == 0 {
			return nil, nil
		}
		return nil, apperrors.Validation("Parent not found")
	case string:
		if v == "" || v == "0" {
			return nil, nil
		}
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, apperrors.Validation("Parent not found")
		}
		parent, err := h.files.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.Validation("Parent not found")
		}
		if parent.Kind != models.KindFolder {
			return nil, apperrors.Validation("Parent is not a folder")
		}
		return &id, nil
	default:
		return nil, apperrors.Validation("Parent not found")
	}
}

// Show handles GET /files/{id}. Owner-only: a file owned by someone else is
// reported as missing.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentCaller(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.files.GetByIDAndOwner(ctx, id, caller.ID)
	if err != nil {
		jsonutil.WriteError(w, notFoundOrClassify(err))
		return
	}

	jsonutil.OK(w, NewView(f))
}

// Index handles GET /files. Lists the caller's files under a parent folder,
// 20 per page in insertion order. A malformed parentId filter matches
// nothing and yields an empty array, not an error.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentCaller(r)

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	var parentID *primitive.ObjectID
	if raw := r.URL.Query().Get("parentId"); raw != "" && raw != "0" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.OK(w, []View{})
			return
		}
		parentID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	files, err := h.files.ListByParent(ctx, caller.ID, parentID, page)
	if err != nil {
		h.logger.Error("file listing failed",
			zap.String("owner_id", caller.ID.Hex()),
			zap.Error(err))
		jsonutil.WriteError(w, apperrors.Classify(err))
		return
	}

	jsonutil.OK(w, NewViews(files))
}

// Publish handles PUT /files/{id}/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, true)
}

// Unpublish handles PUT /files/{id}/unpublish.
func (h *Handler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, false)
}

// setPublic flips the visibility flag on an owned file. Setting the current
// value again is a no-op success.
func (h *Handler) setPublic(w http.ResponseWriter, r *http.Request, value bool) {
	caller, _ := auth.CurrentCaller(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.files.SetPublic(ctx, id, caller.ID, value)
	if err != nil {
		jsonutil.WriteError(w, notFoundOrClassify(err))
		return
	}

	jsonutil.OK(w, NewView(f))
}

// Data handles GET /files/{id}/data. Authentication is optional: public
// files are readable by anyone. A missing blob (including a thumbnail that
// has not been generated yet) is a 404, same as a missing record.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CurrentCaller(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.files.GetByID(ctx, id)
	if err != nil {
		jsonutil.WriteError(w, notFoundOrClassify(err))
		return
	}

	if !auth.CanView(caller, f) {
		jsonutil.NotFound(w, "Not found")
		return
	}

	if f.Kind == models.KindFolder {
		jsonutil.BadRequest(w, "A folder doesn't have content")
		return
	}

	key := f.StoragePath
	if size := r.URL.Query().Get("size"); size == "100" || size == "250" || size == "500" {
		width, _ := strconv.Atoi(size)
		key = content.VariantKey(f.StoragePath, width)
	}

	data, err := h.blobs.Get(ctx, key)
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(f.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// contentTypeFor maps a filename extension to a MIME type.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// notFoundOrClassify turns a store miss into the API's 404 while letting
// timeouts and backend failures keep their own classification.
func notFoundOrClassify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Classify(err)
	}
	return apperrors.NotFound()
}
