package model

import "time"

// CyclePair holds the metrics of the before/after snapshots of one GC cycle.
type CyclePair struct {
	Cycle         int     `json:"cycle"`
	Before        Metrics `json:"before"`
	After         Metrics `json:"after"`
	IsFull        bool    `json:"is_full"`
	Label         string  `json:"label,omitempty"`
	CycleMismatch bool    `json:"cycle_mismatch,omitempty"`
}

// FragmentationReport summarizes external fragmentation before and after
// every collection of a log.
type FragmentationReport struct {
	Source           string      `json:"source"`
	SnapshotCount    int         `json:"snapshot_count"`
	Pairs            []CyclePair `json:"pairs"`
	AvgBefore        int         `json:"avg_ext_frag_before"`
	AvgAfter         int         `json:"avg_ext_frag_after"`
	FullCollections  int         `json:"full_collections"`
	UnpairedSnapshot bool        `json:"unpaired_snapshot,omitempty"`
}

// HumongousRecord is one "Humongous regions: before->after" log entry.
type HumongousRecord struct {
	Source string `json:"source"`
	Cycle  int    `json:"cycle"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// UploadRecord describes one log upload handled by the server.
type UploadRecord struct {
	ID            int64     `json:"id"`
	FileName      string    `json:"file_name"`
	Description   string    `json:"description,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	SnapshotCount int       `json:"snapshot_count"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
