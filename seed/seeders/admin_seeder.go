package seeders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/sanitize"
	"github.com/wheelchair-racer/wr_api/services/repositories"
	"github.com/wheelchair-racer/wr_api/shared"
)

type AdminCredentials struct {
	Email    string
	Username string
	Password string
}

// AdminSeeder handles seeding admin users
type AdminSeeder struct {
	users *repositories.UserRepository
}

func NewAdminSeeder(db *gorm.DB) *AdminSeeder {
	return &AdminSeeder{users: repositories.NewUserRepository(db)}
}

// SeedAdmin creates the admin account unless one with the same email or
// username exists.
func (s *AdminSeeder) SeedAdmin(creds AdminCredentials) error {
	email := sanitize.Email(creds.Email)
	username := sanitize.Username(creds.Username)
	if email == "" || username == "" || creds.Password == "" {
		return errors.New("admin seeding needs a valid email, username and password")
	}

	exists, err := s.users.UserExists(email, username)
	if err != nil {
		return err
	}
	if exists {
		log.Info().Str("email", email).Msg("Admin user already exists, skipping")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &model.User{
		ID:        id.String(),
		Email:     email,
		Username:  username,
		Password:  string(hashed),
		Role:      shared.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(admin); err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("Created admin user")
	return nil
}
