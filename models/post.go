package models

import (
	"time"

	"gorm.io/gorm"
)

const PostTypeDefault = "post"

// Post is a published document. Content is Markdown source.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:255;not null;index" json:"title"`
	Content    string     `gorm:"type:text" json:"content"`
	UserID     *uint      `gorm:"index" json:"user_id"`
	CategoryID uint       `gorm:"index;not null" json:"category_id"`
	ViewCount  int        `gorm:"not null;default:0" json:"view_count"`
	Type       string     `gorm:"size:16;not null" json:"type"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Files      []PostFile `gorm:"foreignKey:PostID" json:"files,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Type == "" {
		p.Type = PostTypeDefault
	}
	return nil
}

// OwnedBy reports whether userID is the post owner.
func (p *Post) OwnedBy(userID uint) bool {
	return p.UserID != nil && *p.UserID == userID
}

// PostSummary is a post row joined with its author and category for list and detail pages.
type PostSummary struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	UserID        *uint     `json:"user_id"`
	CategoryID    uint      `json:"category_id"`
	ViewCount     int       `json:"view_count"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	AuthorName    string    `json:"author_name"`
	CategoryName  string    `json:"category_name"`
	CategoryIcon  string    `json:"category_icon"`
	CategoryColor string    `json:"category_color"`
	FileCount     int64     `json:"file_count"`
}
