package files

import (
	"github.com/dalemusser/stratafiles/internal/domain/models"
)

// UploadInput is the request body for POST /files.
//
// ParentID is loosely typed because clients send the root sentinel as the
// number 0, the string "0", or omit it entirely; a non-root parent arrives
// as a hex id string. Data is base64 for file and image kinds.
type UploadInput struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID any     `json:"parentId"`
	IsPublic bool    `json:"isPublic"`
	Data     *string `json:"data"`
}

// View is the externally visible projection of a file record.
// ParentID renders as the number 0 at root, else as the parent's hex id.
type View struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID any    `json:"parentId"`
}

// NewView builds the presentation view of a file record.
func NewView(f *models.File) View {
	v := View{
		ID:       f.ID.Hex(),
		UserID:   f.OwnerID.Hex(),
		Name:     f.Name,
		Type:     f.Kind,
		IsPublic: f.IsPublic,
		ParentID: 0,
	}
	if f.ParentID != nil {
		v.ParentID = f.ParentID.Hex()
	}
	return v
}

// NewViews builds presentation views for a list of records. It returns an
// empty slice rather than nil so an empty page encodes as [] not null.
func NewViews(files []models.File) []View {
	views := make([]View, 0, len(files))
	for i := range files {
		views = append(views, NewView(&files[i]))
	}
	return views
}
