// Package repository records the upload history of the g1heapviz service.
package repository

import (
	"context"

	"github.com/g1heapviz/pkg/model"
)

// UploadRepository defines the interface for upload history operations.
type UploadRepository interface {
	// Create inserts a record and fills in its ID and CreatedAt.
	Create(ctx context.Context, record *model.UploadRecord) error

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id int64) (*model.UploadRecord, error)

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*model.UploadRecord, error)
}
