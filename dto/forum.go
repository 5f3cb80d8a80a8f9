package dto

import "time"

type CreateTopicRequest struct {
	CategoryID string `json:"category_id" validate:"required" example:"0192f1b4-..."`
	Title      string `json:"title" validate:"required,min=3,max=200" example:"Best gloves for cold mornings?"`
	Content    string `json:"content" validate:"required,min=1,max=20000"`
}

func (r CreateTopicRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ReplyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=20000"`
}

func (r ReplyRequest) Validate() error {
	return GetValidator().Struct(r)
}

type TopicFlagRequest struct {
	Value bool `json:"value"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	TopicCount  int64  `json:"topic_count"`
}

type TopicResponse struct {
	ID             string     `json:"id"`
	CategoryID     string     `json:"category_id"`
	Title          string     `json:"title"`
	Content        string     `json:"content,omitempty"`
	IsPinned       bool       `json:"is_pinned"`
	IsLocked       bool       `json:"is_locked"`
	Views          int64      `json:"views"`
	RepliesCount   int64      `json:"replies_count"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	Author         AuthorInfo `json:"author"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ReplyResponse struct {
	ID        string     `json:"id"`
	TopicID   string     `json:"topic_id"`
	Content   string     `json:"content"`
	Author    AuthorInfo `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type TopicListResponse struct {
	Topics     []TopicResponse `json:"topics"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

type TopicDetailResponse struct {
	Topic   TopicResponse   `json:"topic"`
	Replies []ReplyResponse `json:"replies"`
	Page    int             `json:"page"`
	Total   int64           `json:"total"`
}
