package seeders

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/services/repositories"
)

// ForumSeeder creates the default forum categories. Running it again
// refreshes names and ordering without touching topics.
type ForumSeeder struct {
	forum *repositories.ForumRepository
}

func NewForumSeeder(db *gorm.DB) *ForumSeeder {
	return &ForumSeeder{forum: repositories.NewForumRepository(db)}
}

func (s *ForumSeeder) SeedCategories() error {
	for _, category := range DefaultForumCategories() {
		if err := s.forum.UpsertCategory(&category); err != nil {
			return err
		}
		log.Info().Str("slug", category.Slug).Msg("Seeded forum category")
	}
	return nil
}

func DefaultForumCategories() []model.ForumCategory {
	return []model.ForumCategory{
		{Name: "General Discussion", Slug: "general", Description: "Anything wheelchair racing", SortOrder: 1},
		{Name: "Training & Technique", Slug: "training", Description: "Sessions, drills and pushing technique", SortOrder: 2},
		{Name: "Equipment & Chairs", Slug: "equipment", Description: "Racing chairs, gloves, wheels and setup", SortOrder: 3},
		{Name: "Races & Events", Slug: "races", Description: "Upcoming races, results and race reports", SortOrder: 4},
		{Name: "Parkrun", Slug: "parkrun", Description: "Course access and experiences at parkrun events", SortOrder: 5},
		{Name: "Getting Started", Slug: "getting-started", Description: "Questions from new racers", SortOrder: 6},
	}
}
