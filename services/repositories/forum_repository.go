package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wheelchair-racer/wr_api/model"
)

type ForumRepository struct {
	BaseRepository
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ==================== CATEGORIES ====================

func (ds *ForumRepository) ListCategories() ([]model.ForumCategory, error) {
	var categories []model.ForumCategory
	if err := ds.db.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, HandleError(err, "Category")
	}
	return categories, nil
}

func (ds *ForumRepository) GetCategory(id string) (*model.ForumCategory, error) {
	var category model.ForumCategory
	if err := ds.db.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, HandleError(err, "Category")
	}
	return &category, nil
}

// CountTopicsByCategory returns topic totals keyed by category id.
func (ds *ForumRepository) CountTopicsByCategory() (map[string]int64, error) {
	var rows []struct {
		CategoryID string
		Total      int64
	}
	err := ds.db.Model(&model.ForumTopic{}).
		Select("category_id, COUNT(*) AS total").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, HandleError(err, "Topic")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

// UpsertCategory inserts the category or refreshes the one with the same slug.
func (ds *ForumRepository) UpsertCategory(category *model.ForumCategory) error {
	if category.ID == "" {
		category.ID = newID()
	}
	err := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "sort_order"}),
	}).Create(category).Error
	return HandleError(err, "Category")
}

// ==================== TOPICS ====================

// ListTopics returns pinned topics first, then by most recent activity.
func (ds *ForumRepository) ListTopics(categoryID string, offset, limit int) ([]model.ForumTopic, int64, error) {
	query := ds.db.Model(&model.ForumTopic{}).Where("category_id = ?", categoryID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, HandleError(err, "Topic")
	}

	var topics []model.ForumTopic
	err := query.Preload("Author").
		Order("is_pinned DESC, last_activity_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&topics).Error
	if err != nil {
		return nil, 0, HandleError(err, "Topic")
	}
	return topics, total, nil
}

func (ds *ForumRepository) GetTopic(id string) (*model.ForumTopic, error) {
	var topic model.ForumTopic
	if err := ds.db.Preload("Author").Where("id = ?", id).First(&topic).Error; err != nil {
		return nil, HandleError(err, "Topic")
	}
	return &topic, nil
}

func (ds *ForumRepository) CreateTopic(topic *model.ForumTopic) error {
	if topic.ID == "" {
		topic.ID = newID()
	}
	if err := ds.db.Create(topic).Error; err != nil {
		return HandleError(err, "Topic")
	}
	return nil
}

func (ds *ForumRepository) IncrementViews(id string) error {
	err := ds.db.Model(&model.ForumTopic{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	return HandleError(err, "Topic")
}

// UpdateTopicFlag sets is_pinned or is_locked.
func (ds *ForumRepository) UpdateTopicFlag(id, column string, value bool) error {
	result := ds.db.Model(&model.ForumTopic{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return HandleError(result.Error, "Topic")
	}
	if result.RowsAffected == 0 {
		return HandleError(gorm.ErrRecordNotFound, "Topic")
	}
	return nil
}

func (ds *ForumRepository) DeleteTopic(id string) error {
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", id).Delete(&model.ForumReply{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.ForumTopic{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return HandleError(err, "Topic")
}

// ==================== REPLIES ====================

func (ds *ForumRepository) ListReplies(topicID string, offset, limit int) ([]model.ForumReply, int64, error) {
	query := ds.db.Model(&model.ForumReply{}).Where("topic_id = ?", topicID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, HandleError(err, "Reply")
	}

	var replies []model.ForumReply
	err := query.Preload("Author").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return nil, 0, HandleError(err, "Reply")
	}
	return replies, total, nil
}

func (ds *ForumRepository) GetReply(id string) (*model.ForumReply, error) {
	var reply model.ForumReply
	if err := ds.db.Preload("Author").Where("id = ?", id).First(&reply).Error; err != nil {
		return nil, HandleError(err, "Reply")
	}
	return &reply, nil
}

// CreateReply stores the reply and bumps the topic's reply count and
// last activity in one transaction.
func (ds *ForumRepository) CreateReply(reply *model.ForumReply) error {
	if reply.ID == "" {
		reply.ID = newID()
	}
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&model.ForumTopic{}).
			Where("id = ?", reply.TopicID).
			Updates(map[string]interface{}{
				"replies_count":    gorm.Expr("replies_count + 1"),
				"last_activity_at": reply.CreatedAt,
			}).Error
	})
	return HandleError(err, "Reply")
}

func (ds *ForumRepository) UpdateReply(id, content string, at time.Time) error {
	err := ds.db.Model(&model.ForumReply{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    content,
		"updated_at": at,
	}).Error
	return HandleError(err, "Reply")
}

func (ds *ForumRepository) DeleteReply(reply *model.ForumReply) error {
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", reply.ID).Delete(&model.ForumReply{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.ForumTopic{}).
			Where("id = ? AND replies_count > 0", reply.TopicID).
			UpdateColumn("replies_count", gorm.Expr("replies_count - 1")).Error
	})
	return HandleError(err, "Reply")
}
