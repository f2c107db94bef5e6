package models

import "time"

// Category groups posts on the home page.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Icon      string    `gorm:"size:16" json:"icon"`
	Color     string    `gorm:"size:16;not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#1B7B3A"

// CategoryWithCount is a category row plus the number of posts filed under it.
type CategoryWithCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	PostCount int64  `json:"post_count"`
}
