package dto

import "time"

type CreatePostRequest struct {
	Title     string   `json:"title" validate:"required,min=3,max=200" example:"My first 5k"`
	Content   string   `json:"content" validate:"required,min=10" example:"<p>Race report...</p>"`
	Category  string   `json:"category" validate:"required,blog_category" example:"Race Reports"`
	ImageURLs []string `json:"image_urls" validate:"max=10,dive,max=2048"`
}

func (r CreatePostRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000" example:"Great read!"`
}

func (r CreateCommentRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AuthorInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type PostResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	ImageURLs []string   `json:"image_urls"`
	Author    AuthorInfo `json:"author"`
	Likes     int64      `json:"likes"`
	Comments  int64      `json:"comments"`
	CreatedAt time.Time  `json:"created_at"`
}

type CommentResponse struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	Content   string     `json:"content"`
	Author    AuthorInfo `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type PostDetailResponse struct {
	PostResponse
	LikedByMe    bool              `json:"liked_by_me"`
	CommentsList []CommentResponse `json:"comments_list"`
}

type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

type LikeResponse struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
