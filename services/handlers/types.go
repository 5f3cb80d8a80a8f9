package handlers

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
)

type AuthServiceInterface interface {
	SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(req dto.SignInRequest) (*dto.AuthResponse, error)
	SignOut(sessionID string) error
	ForgotPassword(req dto.ForgotPasswordRequest) error
	ResetPassword(req dto.ResetPasswordRequest) error
	ChangePassword(userID string, req dto.ChangePasswordRequest) error
	GetProfile(userID string) (*dto.ProfileResponse, error)
	UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	RequiredAuth() fiber.Handler
	RequireAdmin() fiber.Handler
}

type ContactServiceInterface interface {
	Submit(req dto.ContactRequest) (*dto.ContactResponse, error)
}

type BlogServiceInterface interface {
	ListPosts(page int, category string) (*dto.PostListResponse, error)
	GetPost(postID, viewerID string) (*dto.PostDetailResponse, error)
	CreatePost(userID string, req dto.CreatePostRequest) (*dto.PostResponse, error)
	DeletePost(userID string, isAdmin bool, postID string) error
	AddComment(userID, postID string, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(userID string, isAdmin bool, commentID string) error
	ToggleLike(userID, postID string) (*dto.LikeResponse, error)
}

type ForumServiceInterface interface {
	ListCategories() ([]dto.CategoryResponse, error)
	ListTopics(categoryID string, page int) (*dto.TopicListResponse, error)
	GetTopic(topicID string, page int) (*dto.TopicDetailResponse, error)
	CreateTopic(userID string, req dto.CreateTopicRequest) (*dto.TopicResponse, error)
	CreateReply(userID, topicID string, req dto.ReplyRequest) (*dto.ReplyResponse, error)
	UpdateReply(userID string, isAdmin bool, replyID string, req dto.ReplyRequest) (*dto.ReplyResponse, error)
	DeleteReply(userID string, isAdmin bool, replyID string) error
	SetPinned(topicID string, pinned bool) error
	SetLocked(topicID string, locked bool) error
	DeleteTopic(topicID string) error
}

type MediaServiceInterface interface {
	UploadAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
	UploadPostImages(ctx context.Context, userID string, files []*multipart.FileHeader) (*dto.PostImagesResponse, error)
}

type ParkrunServiceInterface interface {
	List(ctx context.Context, query dto.ParkrunQuery) (*dto.ParkrunListResponse, error)
	Get(ctx context.Context, slug string) (*model.Parkrun, error)
	Countries(ctx context.Context) ([]string, error)
	Nearby(ctx context.Context, query dto.NearbyQuery, clientIP string) (*dto.NearbyResponse, error)
}

// RateLimitAdminInterface is implemented by the rate limit service, whose
// admin endpoints are plain fiber handlers.
type RateLimitAdminInterface interface {
	GetRateLimitStats() fiber.Handler
	CleanupRateLimits() fiber.Handler
	RemoveRateLimit() fiber.Handler
	ClearRateLimits() fiber.Handler
}
