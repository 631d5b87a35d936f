package files

import (
	"time"

	"pdfmark/internal/domain"
	"pdfmark/internal/render"
)

type EditRequest struct {
	Annotations []render.Annotation `json:"annotations" validate:"max=500"`
	Viewport    render.Viewport     `json:"viewport"`
}

func (r EditRequest) toRender() render.Request {
	return render.Request{Annotations: r.Annotations, Viewport: r.Viewport}
}

type FileResponse struct {
	ID               int64      `json:"id"`
	OwnerID          int64      `json:"owner_id"`
	DisplayName      string     `json:"display_name"`
	OriginalLocation string     `json:"original_location"`
	EditedLocation   *string    `json:"edited_location,omitempty"`
	Edited           bool       `json:"edited"`
	EditorID         *int64     `json:"editor_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastEditedAt     *time.Time `json:"last_edited_at,omitempty"`
}

func ToFileResponse(f *domain.FileRecord) FileResponse {
	return FileResponse{
		ID:               f.ID,
		OwnerID:          f.OwnerID,
		DisplayName:      f.DisplayName,
		OriginalLocation: f.OriginalLocation,
		EditedLocation:   f.EditedLocation,
		Edited:           f.IsEdited(),
		EditorID:         f.EditorID,
		CreatedAt:        f.CreatedAt,
		LastEditedAt:     f.LastEditedAt,
	}
}

func ToFileResponses(fs []*domain.FileRecord) []FileResponse {
	out := make([]FileResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, ToFileResponse(f))
	}
	return out
}

type DashboardResponse struct {
	Message     string      `json:"message"`
	Role        domain.Role `json:"role"`
	TotalFiles  int64       `json:"total_files"`
	EditedFiles int64       `json:"edited_files"`
}
