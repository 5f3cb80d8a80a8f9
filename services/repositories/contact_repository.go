package repositories

import (
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
)

type ContactRepository struct {
	BaseRepository
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *ContactRepository) CreateContactMessage(msg *model.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if err := ds.db.Create(msg).Error; err != nil {
		return HandleError(err, "Contact message")
	}
	return nil
}

func (ds *ContactRepository) MarkDelivered(id string) error {
	err := ds.db.Model(&model.ContactMessage{}).Where("id = ?", id).Update("delivered", true).Error
	return HandleError(err, "Contact message")
}
