package repositories

import (
	"gorm.io/gorm"

	"github.com/wheelchair-racer/wr_api/model"
)

type PostRepository struct {
	BaseRepository
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListPosts returns one page of posts, newest first, with the total count
// for the category filter.
func (ds *PostRepository) ListPosts(category string, offset, limit int) ([]model.Post, int64, error) {
	query := ds.db.Model(&model.Post{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, HandleError(err, "Post")
	}

	var posts []model.Post
	err := query.Preload("Author").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, HandleError(err, "Post")
	}
	return posts, total, nil
}

func (ds *PostRepository) GetPost(id string) (*model.Post, error) {
	var post model.Post
	if err := ds.db.Preload("Author").Where("id = ?", id).First(&post).Error; err != nil {
		return nil, HandleError(err, "Post")
	}
	return &post, nil
}

func (ds *PostRepository) CreatePost(post *model.Post) error {
	if post.ID == "" {
		post.ID = newID()
	}
	if err := ds.db.Create(post).Error; err != nil {
		return HandleError(err, "Post")
	}
	return nil
}

// DeletePost removes the post together with its comments and likes.
func (ds *PostRepository) DeletePost(id string) error {
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return HandleError(err, "Post")
}

func (ds *PostRepository) CountLikes(postID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, HandleError(err, "Like")
	}
	return count, nil
}

func (ds *PostRepository) CountComments(postID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, HandleError(err, "Comment")
	}
	return count, nil
}

// ==================== COMMENTS ====================

func (ds *PostRepository) ListComments(postID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := ds.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, HandleError(err, "Comment")
	}
	return comments, nil
}

func (ds *PostRepository) GetComment(id string) (*model.Comment, error) {
	var comment model.Comment
	if err := ds.db.Preload("Author").Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, HandleError(err, "Comment")
	}
	return &comment, nil
}

func (ds *PostRepository) CreateComment(comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = newID()
	}
	if err := ds.db.Create(comment).Error; err != nil {
		return HandleError(err, "Comment")
	}
	return nil
}

func (ds *PostRepository) DeleteComment(id string) error {
	result := ds.db.Where("id = ?", id).Delete(&model.Comment{})
	if result.Error != nil {
		return HandleError(result.Error, "Comment")
	}
	if result.RowsAffected == 0 {
		return HandleError(gorm.ErrRecordNotFound, "Comment")
	}
	return nil
}

// ==================== LIKES ====================

func (ds *PostRepository) HasLiked(postID, userID string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, HandleError(err, "Like")
	}
	return count > 0, nil
}

func (ds *PostRepository) AddLike(like *model.PostLike) error {
	if err := ds.db.Create(like).Error; err != nil {
		return HandleError(err, "Like")
	}
	return nil
}

func (ds *PostRepository) RemoveLike(postID, userID string) error {
	err := ds.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{}).Error
	return HandleError(err, "Like")
}
