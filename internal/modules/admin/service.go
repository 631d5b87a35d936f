package admin

import (
	"context"

	"pdfmark/internal/domain"
)

// Service is the read-only admin view over every user's files. Route
// gating guarantees the caller is an admin.
type Service struct {
	files  FileRecordRepository
	users  UserRepository
	online OnlineCounter
}

func NewService(files FileRecordRepository, users UserRepository, online OnlineCounter) *Service {
	return &Service{files: files, users: users, online: online}
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.FileRecord, error) {
	return s.files.ListAll(ctx)
}

func (s *Service) ListEdited(ctx context.Context) ([]*domain.FileRecord, error) {
	return s.files.ListEdited(ctx)
}

func (s *Service) GetStatistics(ctx context.Context) (*StatisticsResponse, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	total, edited, err := s.files.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StatisticsResponse{
		TotalUsers:  users,
		TotalFiles:  total,
		EditedFiles: edited,
	}
	if s.online != nil {
		stats.ConnectedAdmins = s.online.GetOnlineCount()
	}
	return stats, nil
}
