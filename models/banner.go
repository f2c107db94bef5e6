package models

import "time"

// Banner is a home page slide shown while active and inside its date window.
type Banner struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	ImagePath    string     `gorm:"size:1024;not null" json:"image_path"`
	LinkURL      string     `gorm:"size:1024" json:"link_url"`
	Note         string     `gorm:"type:text" json:"note"`
	StartDate    *time.Time `json:"start_date"`
	ExpiredDate  *time.Time `json:"expired_date"`
	IsActive     bool       `gorm:"not null;index:idx_banners_active_order,priority:1" json:"is_active"`
	DisplayOrder int        `gorm:"not null;default:0;index:idx_banners_active_order,priority:2" json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LiveAt reports whether the banner would be shown at t.
func (b *Banner) LiveAt(t time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartDate != nil && b.StartDate.After(t) {
		return false
	}
	if b.ExpiredDate != nil && b.ExpiredDate.Before(t) {
		return false
	}
	return true
}
