package files

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"pdfmark/internal/domain"
	"pdfmark/internal/logger"
	"pdfmark/internal/modules/activity"
	"pdfmark/internal/pkg/validator"
)

const DefaultMaxUploadBytes = 50 * 1024 * 1024

// Service owns the file workflow: upload, access checks and the edit pipeline.
type Service struct {
	files    FileRecordRepositoryInterface
	blobs    BlobStore
	renderer Renderer
	events   EventPublisher
	maxBytes int64
}

func NewService(files FileRecordRepositoryInterface, blobs BlobStore, renderer Renderer, events EventPublisher, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Service{
		files:    files,
		blobs:    blobs,
		renderer: renderer,
		events:   events,
		maxBytes: maxBytes,
	}
}

func (s *Service) MaxUploadBytes() int64 { return s.maxBytes }

// Upload stores a PDF and creates its record. Nothing is recorded if the
// blob store fails.
func (s *Service) Upload(ctx context.Context, id domain.Identity, filename string, data []byte) (*domain.FileRecord, error) {
	if len(data) == 0 {
		return nil, domain.Validation("file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.Validation("file exceeds %d bytes", s.maxBytes)
	}
	if !isPDF(data) {
		return nil, domain.Validation("only PDF files are accepted")
	}

	name := displayName(filename)
	location, err := s.blobs.Store(ctx, data, name)
	if err != nil {
		return nil, err
	}

	rec, err := s.files.CreateRecord(ctx, id.UserID, location, name)
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("file uploaded", "file_id", rec.ID, "owner_id", rec.OwnerID, "bytes", len(data))
	s.publish(activity.EventFileUploaded, id, rec)
	return rec, nil
}

func (s *Service) List(ctx context.Context, id domain.Identity) ([]*domain.FileRecord, error) {
	return s.files.ListByOwner(ctx, id.UserID)
}

func (s *Service) ListEdited(ctx context.Context, id domain.Identity) ([]*domain.FileRecord, error) {
	return s.files.ListEditedByOwner(ctx, id.UserID)
}

// Get returns a record the caller may access: their own, or any for admins.
func (s *Service) Get(ctx context.Context, id domain.Identity, fileID int64) (*domain.FileRecord, error) {
	rec, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !rec.CanAccess(id) {
		return nil, domain.Forbidden("you don't have access to this file")
	}
	return rec, nil
}

func (s *Service) Raw(ctx context.Context, id domain.Identity, fileID int64) (*domain.FileRecord, []byte, error) {
	rec, err := s.Get(ctx, id, fileID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Fetch(ctx, rec.OriginalLocation)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}

func (s *Service) EditedRaw(ctx context.Context, id domain.Identity, fileID int64) (*domain.FileRecord, []byte, error) {
	rec, err := s.Get(ctx, id, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !rec.IsEdited() {
		return nil, nil, domain.NotFound("file %d has no edited version", fileID)
	}
	data, err := s.blobs.Fetch(ctx, *rec.EditedLocation)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}

// Edit renders the annotations onto the original document, stores the result
// and only then attaches it to the record. A render or storage failure
// leaves the record untouched.
func (s *Service) Edit(ctx context.Context, id domain.Identity, fileID int64, req EditRequest) (*domain.FileRecord, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, domain.Validation("%s", validator.Summary(fields))
	}

	rec, err := s.Get(ctx, id, fileID)
	if err != nil {
		return nil, err
	}

	source, err := s.blobs.Fetch(ctx, rec.OriginalLocation)
	if err != nil {
		return nil, err
	}

	edited, err := s.renderer.Render(source, req.toRender())
	if err != nil {
		logger.Log.Infow("render rejected", "file_id", fileID, "editor_id", id.UserID, "error", err)
		return nil, err
	}

	location, err := s.blobs.Store(ctx, edited, "edited-"+rec.DisplayName)
	if err != nil {
		return nil, err
	}

	updated, err := s.files.AttachEdit(ctx, rec.ID, id.UserID, location)
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("file edited",
		"file_id", updated.ID,
		"editor_id", id.UserID,
		"annotations", len(req.Annotations),
	)
	s.publish(activity.EventFileEdited, id, updated)
	return updated, nil
}

// Dashboard greets by role. Admins see global counts, users their own.
func (s *Service) Dashboard(ctx context.Context, id domain.Identity) (*DashboardResponse, error) {
	var (
		total, edited int64
		err           error
		message       string
	)
	if id.IsAdmin() {
		total, edited, err = s.files.Count(ctx)
		message = fmt.Sprintf("Welcome to the admin dashboard, %s", id.Username)
	} else {
		total, edited, err = s.files.CountByOwner(ctx, id.UserID)
		message = fmt.Sprintf("Welcome, %s", id.Username)
	}
	if err != nil {
		return nil, err
	}
	return &DashboardResponse{
		Message:     message,
		Role:        id.Role,
		TotalFiles:  total,
		EditedFiles: edited,
	}, nil
}

func (s *Service) publish(eventType string, id domain.Identity, rec *domain.FileRecord) {
	if s.events == nil {
		return
	}
	s.events.Publish(activity.Event{Type: eventType, ActorID: id.UserID, File: rec})
}

func isPDF(data []byte) bool {
	mimeType := strings.Split(http.DetectContentType(data), ";")[0]
	return mimeType == "application/pdf"
}

func displayName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	for utf8.RuneCountInString(name) > 255 {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
