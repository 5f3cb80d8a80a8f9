package services

import (
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/services/repositories"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database        string
	cleanupInterval time.Duration
	stop            chan struct{}

	users    *repositories.UserRepository
	sessions *repositories.SessionRepository
	posts    *repositories.PostRepository
	forum    *repositories.ForumRepository
	contacts *repositories.ContactRepository
	parkruns *repositories.ParkrunRepository
	media    *repositories.MediaRepository
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		// Fallback to individual environment variables
		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "wheelchair_racer"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_SSLMODE", "disable"),
			getEnv("DB_TIMEZONE", "UTC"),
		)
	}

	ds.cleanupInterval = 24 * time.Hour
	ds.stop = make(chan struct{})

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		// Exponential backoff with max delay of 10 seconds
		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err := ds.Migrate(); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	ds.users = repositories.NewUserRepository(ds.db)
	ds.sessions = repositories.NewSessionRepository(ds.db)
	ds.posts = repositories.NewPostRepository(ds.db)
	ds.forum = repositories.NewForumRepository(ds.db)
	ds.contacts = repositories.NewContactRepository(ds.db)
	ds.parkruns = repositories.NewParkrunRepository(ds.db)
	ds.media = repositories.NewMediaRepository(ds.db)

	go ds.cleanupLoop()

	log.Println("Database connected and migrated successfully")
	return nil
}

// Migrate creates or updates every table the API owns.
func (ds *PostgresService) Migrate() error {
	return AutoMigrate(ds.db)
}

// AutoMigrate is shared with the seed command, which opens its own
// connection.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserSession{},
		&model.PasswordResetCode{},

		&model.Post{},
		&model.Comment{},
		&model.PostLike{},

		&model.ForumCategory{},
		&model.ForumTopic{},
		&model.ForumReply{},

		&model.ContactMessage{},
		&model.MediaAsset{},
		&model.Parkrun{},
	)
}

func (ds *PostgresService) cleanupLoop() {
	ticker := time.NewTicker(ds.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := ds.sessions.CleanupExpired(time.Now())
			if err != nil {
				log.WithError(err).Error("Failed to cleanup expired sessions")
				continue
			}
			log.WithField("removed", removed).Debug("Expired sessions cleaned up")
		case <-ds.stop:
			return
		}
	}
}

func (ds *PostgresService) Shutdown() {
	if ds.stop != nil {
		close(ds.stop)
	}
	if ds.db == nil {
		return
	}
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// ==================== REPOSITORIES ====================

func (ds *PostgresService) Users() *repositories.UserRepository {
	return ds.users
}

func (ds *PostgresService) Sessions() *repositories.SessionRepository {
	return ds.sessions
}

func (ds *PostgresService) Posts() *repositories.PostRepository {
	return ds.posts
}

func (ds *PostgresService) Forum() *repositories.ForumRepository {
	return ds.forum
}

func (ds *PostgresService) Contacts() *repositories.ContactRepository {
	return ds.contacts
}

func (ds *PostgresService) Parkruns() *repositories.ParkrunRepository {
	return ds.parkruns
}

func (ds *PostgresService) Media() *repositories.MediaRepository {
	return ds.media
}
