package admin

import (
	"context"

	"pdfmark/internal/domain"
)

type FileRecordRepository interface {
	ListAll(ctx context.Context) ([]*domain.FileRecord, error)
	ListEdited(ctx context.Context) ([]*domain.FileRecord, error)
	Count(ctx context.Context) (total, edited int64, err error)
}

type UserRepository interface {
	Count(ctx context.Context) (int64, error)
}

// OnlineCounter reports how many dashboards are connected to the activity feed.
type OnlineCounter interface {
	GetOnlineCount() int
}
