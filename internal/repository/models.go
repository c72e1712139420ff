package repository

import (
	"time"

	"github.com/g1heapviz/pkg/model"
)

// Upload represents the uploads table.
type Upload struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	FileName      string    `gorm:"column:file_name;type:varchar(255);not null"`
	Description   string    `gorm:"column:description;type:text"`
	SizeBytes     int64     `gorm:"column:size_bytes"`
	SnapshotCount int       `gorm:"column:snapshot_count"`
	ArchiveKey    string    `gorm:"column:archive_key;type:varchar(512)"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName returns the table name for Upload.
func (Upload) TableName() string {
	return "uploads"
}

// ToModel converts Upload to model.UploadRecord.
func (u *Upload) ToModel() *model.UploadRecord {
	return &model.UploadRecord{
		ID:            u.ID,
		FileName:      u.FileName,
		Description:   u.Description,
		SizeBytes:     u.SizeBytes,
		SnapshotCount: u.SnapshotCount,
		ArchiveKey:    u.ArchiveKey,
		CreatedAt:     u.CreatedAt,
	}
}

// UploadFromModel converts model.UploadRecord to Upload.
func UploadFromModel(r *model.UploadRecord) *Upload {
	return &Upload{
		ID:            r.ID,
		FileName:      r.FileName,
		Description:   r.Description,
		SizeBytes:     r.SizeBytes,
		SnapshotCount: r.SnapshotCount,
		ArchiveKey:    r.ArchiveKey,
		CreatedAt:     r.CreatedAt,
	}
}
