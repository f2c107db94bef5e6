package models

import "time"

// PostHistory is an append-only record of one edit.
type PostHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	OldTitle   string    `gorm:"size:255" json:"old_title"`
	OldContent string    `gorm:"type:text" json:"old_content"`
	NewTitle   string    `gorm:"size:255" json:"new_title"`
	NewContent string    `gorm:"type:text" json:"new_content"`
	EditedBy   *uint     `json:"edited_by"`
	EditedAt   time.Time `gorm:"index" json:"edited_at"`
}

func (PostHistory) TableName() string { return "post_history" }

// HistoryEntry is a history row with the editor's display name.
type HistoryEntry struct {
	PostHistory
	EditorName string `json:"editor_name"`
}
