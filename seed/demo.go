package seed

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/docportal/models"
)

// Demo inserts n placeholder posts spread across the existing categories.
// It is meant for local development only.
func Demo(db *gorm.DB, authorID uint, n int, seed int64) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	var categories []models.Category
	if err := db.Order("id").Find(&categories).Error; err != nil {
		return 0, errors.Wrap(err, "load categories")
	}
	if len(categories) == 0 {
		return 0, errors.New("no categories to attach demo posts to")
	}

	faker := gofakeit.New(seed)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := authorID
		posts = append(posts, models.Post{
			Title:      faker.Sentence(6),
			Content:    faker.Paragraph(2, 3, 12, "\n\n"),
			UserID:     &author,
			CategoryID: categories[i%len(categories)].ID,
		})
	}
	if err := db.CreateInBatches(&posts, 100).Error; err != nil {
		return 0, errors.Wrap(err, "insert demo posts")
	}
	return len(posts), nil
}
