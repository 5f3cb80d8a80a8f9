package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
)

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *UserRepository) CreateUser(user *model.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	user.IsActive = true
	if err := ds.db.Create(user).Error; err != nil {
		return HandleError(err, "User")
	}
	return nil
}

func (ds *UserRepository) GetUserByID(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, HandleError(err, "User")
	}
	return &user, nil
}

func (ds *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, HandleError(err, "User")
	}
	return &user, nil
}

// UserExists reports whether the email or the username is already taken.
func (ds *UserRepository) UserExists(email, username string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return false, HandleError(err, "User")
	}
	return count > 0, nil
}

func (ds *UserRepository) IsUsernameTaken(username, exceptUserID string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.User{}).
		Where("username = ? AND id <> ?", username, exceptUserID).
		Count(&count).Error
	if err != nil {
		return false, HandleError(err, "User")
	}
	return count > 0, nil
}

func (ds *UserRepository) UpdateUser(user *model.User) error {
	user.UpdatedAt = time.Now()
	if err := ds.db.Save(user).Error; err != nil {
		return HandleError(err, "User")
	}
	return nil
}

func (ds *UserRepository) UpdatePassword(userID, hashedPassword string) error {
	err := ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password":   hashedPassword,
		"updated_at": time.Now(),
	}).Error
	return HandleError(err, "User")
}

func (ds *UserRepository) UpdateLastLogin(userID string, at time.Time) error {
	err := ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": at,
		"updated_at": at,
	}).Error
	return HandleError(err, "User")
}

func (ds *UserRepository) UpdateAvatar(userID, avatarURL string) error {
	err := ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"avatar_url": avatarURL,
		"updated_at": time.Now(),
	}).Error
	return HandleError(err, "User")
}

// GetUsersByRole is used by the seeder to check for an existing admin.
func (ds *UserRepository) GetUsersByRole(role string) ([]model.User, error) {
	var users []model.User
	if err := ds.db.Where("role = ?", role).Find(&users).Error; err != nil {
		return nil, HandleError(err, "User")
	}
	return users, nil
}
