package files

import (
	"context"

	"pdfmark/internal/domain"
	"pdfmark/internal/modules/activity"
	"pdfmark/internal/render"
)

type FileRecordRepositoryInterface interface {
	CreateRecord(ctx context.Context, ownerID int64, originalLocation, displayName string) (*domain.FileRecord, error)
	AttachEdit(ctx context.Context, fileID, editorID int64, editedLocation string) (*domain.FileRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.FileRecord, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.FileRecord, error)
	ListEditedByOwner(ctx context.Context, ownerID int64) ([]*domain.FileRecord, error)
	CountByOwner(ctx context.Context, ownerID int64) (total, edited int64, err error)
	Count(ctx context.Context) (total, edited int64, err error)
}

type BlobStore interface {
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
	Fetch(ctx context.Context, location string) ([]byte, error)
}

type Renderer interface {
	Render(source []byte, req render.Request) ([]byte, error)
}

type EventPublisher interface {
	Publish(e activity.Event)
}
