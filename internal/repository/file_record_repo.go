package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pdfmark/internal/domain"
)

// FileRecordRepository persists FileRecords. Every listing is ordered by
// creation time, with the identifier breaking ties.
type FileRecordRepository struct {
	db *gorm.DB
}

func NewFileRecordRepository(db *gorm.DB) *FileRecordRepository {
	return &FileRecordRepository{db: db}
}

type fileRecordModel struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	OwnerID          int64      `gorm:"column:owner_id"`
	OriginalLocation string     `gorm:"column:original_location"`
	DisplayName      string     `gorm:"column:display_name"`
	EditedLocation   *string    `gorm:"column:edited_location"`
	EditorID         *int64     `gorm:"column:editor_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	LastEditedAt     *time.Time `gorm:"column:last_edited_at"`
}

func (fileRecordModel) TableName() string { return "file_records" }

func toDomainFileRecord(m fileRecordModel) *domain.FileRecord {
	return &domain.FileRecord{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		OriginalLocation: m.OriginalLocation,
		DisplayName:      m.DisplayName,
		EditedLocation:   m.EditedLocation,
		EditorID:         m.EditorID,
		CreatedAt:        m.CreatedAt,
		LastEditedAt:     m.LastEditedAt,
	}
}

func toDomainFileRecords(ms []fileRecordModel) []*domain.FileRecord {
	out := make([]*domain.FileRecord, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainFileRecord(m))
	}
	return out
}

func (r *FileRecordRepository) CreateRecord(ctx context.Context, ownerID int64, originalLocation, displayName string) (*domain.FileRecord, error) {
	m := fileRecordModel{
		OwnerID:          ownerID,
		OriginalLocation: originalLocation,
		DisplayName:      displayName,
		CreatedAt:        time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return toDomainFileRecord(m), nil
}

// AttachEdit sets the edited location, the editor and the edit time in a
// single UPDATE inside a transaction. Concurrent callers are serialized on
// the row; the last one to commit wins the whole tuple.
func (r *FileRecordRepository) AttachEdit(ctx context.Context, fileID, editorID int64, editedLocation string) (*domain.FileRecord, error) {
	var out fileRecordModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var current fileRecordModel
		if err := q.Where("id = ?", fileID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("file %d not found", fileID)
			}
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&fileRecordModel{}).Where("id = ?", fileID).Updates(map[string]any{
			"edited_location": editedLocation,
			"editor_id":       editorID,
			"last_edited_at":  now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", fileID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return toDomainFileRecord(out), nil
}

func (r *FileRecordRepository) GetByID(ctx context.Context, id int64) (*domain.FileRecord, error) {
	var m fileRecordModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("file %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return toDomainFileRecord(m), nil
}

func (r *FileRecordRepository) ListAll(ctx context.Context) ([]*domain.FileRecord, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *FileRecordRepository) ListEdited(ctx context.Context) ([]*domain.FileRecord, error) {
	return r.list(r.db.WithContext(ctx).Where("edited_location IS NOT NULL"))
}

func (r *FileRecordRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.FileRecord, error) {
	return r.list(r.db.WithContext(ctx).Where("owner_id = ?", ownerID))
}

func (r *FileRecordRepository) ListEditedByOwner(ctx context.Context, ownerID int64) ([]*domain.FileRecord, error) {
	return r.list(r.db.WithContext(ctx).Where("owner_id = ? AND edited_location IS NOT NULL", ownerID))
}

// CountByOwner returns the caller's total and edited file counts.
func (r *FileRecordRepository) CountByOwner(ctx context.Context, ownerID int64) (total, edited int64, err error) {
	db := r.db.WithContext(ctx).Model(&fileRecordModel{})
	if err = db.Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	db = r.db.WithContext(ctx).Model(&fileRecordModel{})
	err = db.Where("owner_id = ? AND edited_location IS NOT NULL", ownerID).Count(&edited).Error
	return total, edited, err
}

func (r *FileRecordRepository) Count(ctx context.Context) (total, edited int64, err error) {
	if err = r.db.WithContext(ctx).Model(&fileRecordModel{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&fileRecordModel{}).Where("edited_location IS NOT NULL").Count(&edited).Error
	return total, edited, err
}

func (r *FileRecordRepository) list(q *gorm.DB) ([]*domain.FileRecord, error) {
	var ms []fileRecordModel
	if err := q.Order("created_at ASC").Order("id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainFileRecords(ms), nil
}
