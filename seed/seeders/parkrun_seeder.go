package seeders

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/services"
	"github.com/wheelchair-racer/wr_api/services/repositories"
)

// ParkrunSeeder imports enriched parkrun event files. The import also drops
// the API's cached parkrun queries.
type ParkrunSeeder struct {
	importer *services.ParkrunService
	redis    *services.RedisService
}

func NewParkrunSeeder(db *gorm.DB) *ParkrunSeeder {
	redisSvc := services.NewRedisService()
	return &ParkrunSeeder{
		importer: services.NewParkrunService(repositories.NewParkrunRepository(db), redisSvc),
		redis:    redisSvc,
	}
}

func (s *ParkrunSeeder) SeedFromFile(path string) error {
	defer s.redis.Shutdown()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := services.ParseEventsFile(f)
	if err != nil {
		return err
	}

	if err := s.importer.Import(context.Background(), events); err != nil {
		return err
	}

	log.Info().Int("events", len(events)).Str("file", path).Msg("Imported parkrun events")
	return nil
}
