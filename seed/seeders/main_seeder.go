package seeders

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll seeds forum categories, then parkrun events when a file is given,
// then the admin account when credentials are configured.
func (s *MainSeeder) SeedAll(parkrunFile string, admin AdminCredentials) error {
	log.Info().Msg("Starting database seeding")

	if err := s.SeedForumOnly(); err != nil {
		return err
	}

	if parkrunFile != "" {
		if err := s.SeedParkrunsOnly(parkrunFile); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("No parkrun file given, skipping parkrun import")
	}

	if admin.Email != "" {
		if err := s.SeedAdminOnly(admin); err != nil {
			return err
		}
	}

	log.Info().Msg("Database seeding completed")
	return nil
}

func (s *MainSeeder) SeedForumOnly() error {
	if err := NewForumSeeder(s.db).SeedCategories(); err != nil {
		log.Error().Err(err).Msg("Forum category seeding failed")
		return err
	}
	return nil
}

func (s *MainSeeder) SeedParkrunsOnly(path string) error {
	if err := NewParkrunSeeder(s.db).SeedFromFile(path); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Parkrun import failed")
		return err
	}
	return nil
}

func (s *MainSeeder) SeedAdminOnly(admin AdminCredentials) error {
	if err := NewAdminSeeder(s.db).SeedAdmin(admin); err != nil {
		log.Error().Err(err).Msg("Admin seeding failed")
		return err
	}
	return nil
}
