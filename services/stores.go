package services

import (
	"context"
	"io"
	"time"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
)

// The stores below are implemented by the repositories owned by
// PostgresService.

type UserStore interface {
	CreateUser(user *model.User) error
	GetUserByID(userID string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UserExists(email, username string) (bool, error)
	IsUsernameTaken(username, exceptUserID string) (bool, error)
	UpdateUser(user *model.User) error
	UpdatePassword(userID, hashedPassword string) error
	UpdateLastLogin(userID string, at time.Time) error
	UpdateAvatar(userID, avatarURL string) error
}

type SessionStore interface {
	CreateSession(session *model.UserSession) error
	GetSession(sessionID string) (*model.UserSession, error)
	RevokeSession(sessionID string, at time.Time) error
	RevokeUserSessions(userID string, at time.Time) error
	CreateResetCode(code *model.PasswordResetCode) error
	GetValidResetCode(userID, code string, now time.Time) (*model.PasswordResetCode, error)
	MarkResetCodeUsed(id string, at time.Time) error
}

type PostStore interface {
	ListPosts(category string, offset, limit int) ([]model.Post, int64, error)
	GetPost(id string) (*model.Post, error)
	CreatePost(post *model.Post) error
	DeletePost(id string) error
	CountLikes(postID string) (int64, error)
	CountComments(postID string) (int64, error)
	ListComments(postID string) ([]model.Comment, error)
	GetComment(id string) (*model.Comment, error)
	CreateComment(comment *model.Comment) error
	DeleteComment(id string) error
	HasLiked(postID, userID string) (bool, error)
	AddLike(like *model.PostLike) error
	RemoveLike(postID, userID string) error
}

type ForumStore interface {
	ListCategories() ([]model.ForumCategory, error)
	GetCategory(id string) (*model.ForumCategory, error)
	CountTopicsByCategory() (map[string]int64, error)
	ListTopics(categoryID string, offset, limit int) ([]model.ForumTopic, int64, error)
	GetTopic(id string) (*model.ForumTopic, error)
	CreateTopic(topic *model.ForumTopic) error
	IncrementViews(id string) error
	UpdateTopicFlag(id, column string, value bool) error
	DeleteTopic(id string) error
	ListReplies(topicID string, offset, limit int) ([]model.ForumReply, int64, error)
	GetReply(id string) (*model.ForumReply, error)
	CreateReply(reply *model.ForumReply) error
	UpdateReply(id, content string, at time.Time) error
	DeleteReply(reply *model.ForumReply) error
}

type ContactStore interface {
	CreateContactMessage(msg *model.ContactMessage) error
	MarkDelivered(id string) error
}

type ParkrunStore interface {
	ListParkruns(country, search string, junior *bool) ([]model.Parkrun, error)
	GetParkrunBySlug(slug string) (*model.Parkrun, error)
	ListCountries() ([]string, error)
	UpsertParkruns(events []model.Parkrun) error
}

type MediaStore interface {
	CreateMediaAssets(assets []model.MediaAsset) error
}

// ObjectStore is implemented by MinIOService.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error
	DeleteFile(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
}

// Cache is implemented by RedisService.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Locator is implemented by GeolocationService.
type Locator interface {
	Locate(ctx context.Context, ip string) (*dto.Location, error)
}

// Mailer is implemented by EmailService.
type Mailer interface {
	SendPasswordResetCode(email, username, code string) error
	SendContactMessage(to, subject string, data ContactEmailData) error
}

// Throttle is implemented by RateLimitService.
type Throttle interface {
	Allow(policy ratelimit.Policy, subject string) error
	Clear(policy ratelimit.Policy, subject string)
}
