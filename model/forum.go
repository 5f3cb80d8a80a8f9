package model

import "time"

type ForumCategory struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

type ForumTopic struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	CategoryID     string    `json:"category_id" gorm:"index;not null"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	Title          string    `json:"title" gorm:"not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsPinned       bool      `json:"is_pinned" gorm:"default:false"`
	IsLocked       bool      `json:"is_locked" gorm:"default:false"`
	Views          int64     `json:"views" gorm:"default:0"`
	RepliesCount   int64     `json:"replies_count" gorm:"default:0"`
	LastActivityAt time.Time `json:"last_activity_at" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Author User `json:"author" gorm:"foreignKey:UserID"`
}

type ForumReply struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	TopicID   string    `json:"topic_id" gorm:"index;not null"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `json:"author" gorm:"foreignKey:UserID"`
}
