package models

import "time"

// PostFile is one attachment of a post. FileName keeps the original display name.
type PostFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"`
	FileName  string    `gorm:"size:512;not null" json:"file_name"`
	FileSize  int64     `json:"file_size"`
	FileOrder int       `gorm:"not null;default:0" json:"file_order"`
	CreatedAt time.Time `json:"created_at"`
}
