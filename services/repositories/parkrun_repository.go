package repositories

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wheelchair-racer/wr_api/model"
)

const ParkrunBatchSize = 100

type ParkrunRepository struct {
	BaseRepository
}

func NewParkrunRepository(db *gorm.DB) *ParkrunRepository {
	return &ParkrunRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListParkruns filters by exact country and a case-insensitive search over
// the event name and location. junior is ignored when nil.
func (ds *ParkrunRepository) ListParkruns(country, search string, junior *bool) ([]model.Parkrun, error) {
	query := ds.db.Model(&model.Parkrun{})
	if country != "" {
		query = query.Where("country = ?", country)
	}
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(long_name) LIKE ? OR LOWER(short_name) LIKE ? OR LOWER(location) LIKE ?",
			pattern, pattern, pattern)
	}
	if junior != nil {
		query = query.Where("is_junior = ?", *junior)
	}

	var events []model.Parkrun
	if err := query.Order("long_name ASC").Find(&events).Error; err != nil {
		return nil, HandleError(err, "Parkrun")
	}
	return events, nil
}

func (ds *ParkrunRepository) GetParkrunBySlug(slug string) (*model.Parkrun, error) {
	var event model.Parkrun
	if err := ds.db.Where("slug = ?", slug).First(&event).Error; err != nil {
		return nil, HandleError(err, "Parkrun")
	}
	return &event, nil
}

func (ds *ParkrunRepository) ListCountries() ([]string, error) {
	var countries []string
	err := ds.db.Model(&model.Parkrun{}).
		Where("country <> ''").
		Distinct().
		Order("country ASC").
		Pluck("country", &countries).Error
	if err != nil {
		return nil, HandleError(err, "Parkrun")
	}
	return countries, nil
}

// UpsertParkruns inserts or refreshes events keyed by uid, in batches.
func (ds *ParkrunRepository) UpsertParkruns(events []model.Parkrun) error {
	if len(events) == 0 {
		return nil
	}
	err := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		UpdateAll: true,
	}).CreateInBatches(events, ParkrunBatchSize).Error
	return HandleError(err, "Parkrun")
}
