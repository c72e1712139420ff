package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
)

const defaultListLimit = 50

// GormUploadRepository implements UploadRepository using GORM.
type GormUploadRepository struct {
	db *gorm.DB
}

// NewGormUploadRepository creates a new GormUploadRepository.
func NewGormUploadRepository(db *gorm.DB) *GormUploadRepository {
	return &GormUploadRepository{db: db}
}

// Create inserts an upload record.
func (r *GormUploadRepository) Create(ctx context.Context, record *model.UploadRecord) error {
	row := UploadFromModel(record)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return errors.Wrap(errors.CodeDatabaseError, "failed to create upload record", err)
	}

	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return nil
}

// Get retrieves an upload record by its ID.
func (r *GormUploadRepository) Get(ctx context.Context, id int64) (*model.UploadRecord, error) {
	var row Upload

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("upload not found: %d", id))
		}
		return nil, errors.Wrap(errors.CodeDatabaseError, "failed to get upload record", err)
	}

	return row.ToModel(), nil
}

// List returns the most recent upload records, newest first.
func (r *GormUploadRepository) List(ctx context.Context, limit int) ([]*model.UploadRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []Upload
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDatabaseError, "failed to list upload records", err)
	}

	result := make([]*model.UploadRecord, len(rows))
	for i := range rows {
		result[i] = rows[i].ToModel()
	}
	return result, nil
}

var _ UploadRepository = (*GormUploadRepository)(nil)
