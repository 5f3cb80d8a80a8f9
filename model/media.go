package model

import "time"

const (
	MediaKindAvatar    = "avatar"
	MediaKindPostImage = "post_image"
)

// MediaAsset records an object uploaded to the bucket on behalf of a user.
type MediaAsset struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	Kind        string    `json:"kind" gorm:"index;not null"`
	ObjectName  string    `json:"object_name" gorm:"uniqueIndex;not null"`
	URL         string    `json:"url" gorm:"not null"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}
