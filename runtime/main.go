package main

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using system environment variables")
	}
	configureLogLevel(os.Getenv("LOG_LEVEL"))

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.GeolocationService{},
		&services.MinIOService{},
		&services.EmailService{},
		&services.JWTService{},
		&services.RateLimitService{},
		&services.MonitoringService{},

		&services.AuthService{},
		&services.ContactService{},
		&services.BlogService{},
		&services.ForumService{},
		&services.MediaService{},
		&services.ParkrunService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service stopped")
		return
	}
}

// configureLogLevel applies LOG_LEVEL to both the zerolog and logrus
// loggers. Unknown values keep the defaults.
func configureLogLevel(level string) {
	if level == "" {
		return
	}
	if zl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && zl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(zl)
	}
	if ll, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(ll)
	}
}
