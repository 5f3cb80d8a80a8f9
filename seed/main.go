package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wheelchair-racer/wr_api/seed/seeders"
	"github.com/wheelchair-racer/wr_api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using system environment variables")
	}

	var (
		seedType    = flag.String("type", "all", "Type of seeding: all, forum, parkruns, admin")
		parkrunFile = flag.String("parkruns", os.Getenv("PARKRUN_DATA_FILE"), "Path to the enriched parkrun events JSON file")
		dsn         = flag.String("db", "", "Postgres DSN (overrides DATABASE_URL)")
		help        = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	database := *dsn
	if database == "" {
		database = databaseURL()
	}

	db, err := gorm.Open(postgres.Open(database), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	mainSeeder := seeders.NewMainSeeder(db)
	admin := seeders.AdminCredentials{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Username: os.Getenv("ADMIN_USERNAME"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}

	switch *seedType {
	case "all":
		err = mainSeeder.SeedAll(*parkrunFile, admin)
	case "forum":
		err = mainSeeder.SeedForumOnly()
	case "parkruns":
		if *parkrunFile == "" {
			log.Fatal().Msg("-parkruns or PARKRUN_DATA_FILE is required")
		}
		err = mainSeeder.SeedParkrunsOnly(*parkrunFile)
	case "admin":
		err = mainSeeder.SeedAdminOnly(admin)
	default:
		log.Fatal().Str("type", *seedType).Msg("Unknown seed type. Use 'all', 'forum', 'parkruns' or 'admin'")
	}
	if err != nil {
		log.Fatal().Err(err).Str("type", *seedType).Msg("Seeding failed")
	}

	log.Info().Msg("Seeding operation completed successfully")
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "wheelchair_racer"),
		envOr("DB_PORT", "5432"),
		envOr("DB_SSLMODE", "disable"),
	)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func showHelp() {
	fmt.Println(`
Database seeding tool for the Wheelchair Racer API

Usage: go run ./seed [flags]

Flags:
  -type string
        all, forum, parkruns or admin (default "all")
  -parkruns string
        Enriched parkrun events JSON file (default $PARKRUN_DATA_FILE)
  -db string
        Postgres DSN (overrides DATABASE_URL)
  -help
        Show this help message

Environment Variables:
  DATABASE_URL or DB_HOST, DB_USER, DB_PASSWORD, DB_NAME, DB_PORT, DB_SSLMODE
  ADMIN_EMAIL, ADMIN_USERNAME, ADMIN_PASSWORD - admin account for -type=admin
`)
}
