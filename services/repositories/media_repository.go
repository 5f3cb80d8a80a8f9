package repositories

import (
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
)

type MediaRepository struct {
	BaseRepository
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *MediaRepository) CreateMediaAssets(assets []model.MediaAsset) error {
	if len(assets) == 0 {
		return nil
	}
	for i := range assets {
		if assets[i].ID == "" {
			assets[i].ID = newID()
		}
	}
	if err := ds.db.Create(&assets).Error; err != nil {
		return HandleError(err, "Media asset")
	}
	return nil
}

func (ds *MediaRepository) ListUserMedia(userID, kind string) ([]model.MediaAsset, error) {
	var assets []model.MediaAsset
	query := ds.db.Where("user_id = ?", userID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Order("created_at DESC").Find(&assets).Error; err != nil {
		return nil, HandleError(err, "Media asset")
	}
	return assets, nil
}
