package repositories

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/shared"
)

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// HandleError maps a gorm error onto an AppError. entity names the record
// in the client-facing message.
func HandleError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var appErr *shared.AppError
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		appErr = shared.NewNotFoundError(err, entity+" not found")
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "duplicate key value violates unique constraint"):
		appErr = shared.NewConflictError(err, entity+" already exists")
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		appErr = shared.NewBadRequestError(err, "Invalid "+strings.ToLower(entity)+" reference")
		errorType = "FOREIGN_KEY_VIOLATION"
	default:
		appErr = shared.NewInternalError(err, "Database error")
		errorType = "INTERNAL_ERROR"
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": appErr.StatusCode,
		"error_type":  errorType,
		"entity":      entity,
		"error":       err.Error(),
	})

	if appErr.StatusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Debug("Database operation failed")
	}

	return appErr
}
