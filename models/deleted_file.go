package models

import "time"

// DeletedFile records an attachment moved into the recovery directory.
// StoredName is the file name inside that directory and also encodes the same
// metadata, so entries survive a lost row.
type DeletedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoredName   string    `gorm:"size:768;not null;uniqueIndex" json:"stored_name"`
	OriginalName string    `gorm:"size:512" json:"original_name"`
	PostID       uint      `gorm:"index" json:"post_id"`
	FileID       uint      `json:"file_id"`
	FileSize     int64     `json:"file_size"`
	RemovedAt    time.Time `gorm:"index" json:"removed_at"`
}
