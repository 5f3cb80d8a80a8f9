package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
)

// SessionRepository handles sign-in sessions and password reset codes
type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *SessionRepository) CreateSession(session *model.UserSession) error {
	if session.ID == "" {
		session.ID = newID()
	}
	if err := ds.db.Create(session).Error; err != nil {
		return HandleError(err, "Session")
	}
	return nil
}

func (ds *SessionRepository) GetSession(sessionID string) (*model.UserSession, error) {
	var session model.UserSession
	if err := ds.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, HandleError(err, "Session")
	}
	return &session, nil
}

func (ds *SessionRepository) RevokeSession(sessionID string, at time.Time) error {
	err := ds.db.Model(&model.UserSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", at).Error
	return HandleError(err, "Session")
}

// RevokeUserSessions signs the user out everywhere, used after a password change.
func (ds *SessionRepository) RevokeUserSessions(userID string, at time.Time) error {
	err := ds.db.Model(&model.UserSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
	return HandleError(err, "Session")
}

func (ds *SessionRepository) CreateResetCode(code *model.PasswordResetCode) error {
	if code.ID == "" {
		code.ID = newID()
	}
	if err := ds.db.Create(code).Error; err != nil {
		return HandleError(err, "Reset code")
	}
	return nil
}

// GetValidResetCode returns the newest unused, unexpired code matching the user.
func (ds *SessionRepository) GetValidResetCode(userID, code string, now time.Time) (*model.PasswordResetCode, error) {
	var resetCode model.PasswordResetCode
	err := ds.db.
		Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?", userID, code, now).
		Order("created_at DESC").
		First(&resetCode).Error
	if err != nil {
		return nil, HandleError(err, "Reset code")
	}
	return &resetCode, nil
}

func (ds *SessionRepository) MarkResetCodeUsed(id string, at time.Time) error {
	err := ds.db.Model(&model.PasswordResetCode{}).Where("id = ?", id).Update("used_at", at).Error
	return HandleError(err, "Reset code")
}

// CleanupExpired removes expired sessions and reset codes. It returns the
// number of rows deleted.
func (ds *SessionRepository) CleanupExpired(now time.Time) (int64, error) {
	var total int64

	result := ds.db.Where("expires_at < ?", now).Delete(&model.UserSession{})
	if result.Error != nil {
		return 0, HandleError(result.Error, "Session")
	}
	total += result.RowsAffected

	result = ds.db.Where("expires_at < ? OR used_at IS NOT NULL", now).Delete(&model.PasswordResetCode{})
	if result.Error != nil {
		return total, HandleError(result.Error, "Reset code")
	}
	return total + result.RowsAffected, nil
}
