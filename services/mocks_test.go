package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// newTestLimiter returns a real RateLimitService over an in-memory limiter.
func newTestLimiter(t *testing.T) (*RateLimitService, *clock.ManualClock) {
	t.Helper()
	mc := clock.NewManualClock(testNow)
	return NewRateLimitService(ratelimit.NewMemoryLimiter(ratelimit.WithClock(mc)), mc), mc
}

// MockUserStore implements UserStore using testify/mock
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(user *model.User) error {
	return m.Called(user).Error(0)
}
func (m *MockUserStore) GetUserByID(userID string) (*model.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserStore) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserStore) UserExists(email, username string) (bool, error) {
	args := m.Called(email, username)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserStore) IsUsernameTaken(username, exceptUserID string) (bool, error) {
	args := m.Called(username, exceptUserID)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserStore) UpdateUser(user *model.User) error {
	return m.Called(user).Error(0)
}
func (m *MockUserStore) UpdatePassword(userID, hashedPassword string) error {
	return m.Called(userID, hashedPassword).Error(0)
}
func (m *MockUserStore) UpdateLastLogin(userID string, at time.Time) error {
	return m.Called(userID, at).Error(0)
}
func (m *MockUserStore) UpdateAvatar(userID, avatarURL string) error {
	return m.Called(userID, avatarURL).Error(0)
}

// MockSessionStore implements SessionStore using testify/mock
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(session *model.UserSession) error {
	return m.Called(session).Error(0)
}
func (m *MockSessionStore) GetSession(sessionID string) (*model.UserSession, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSession), args.Error(1)
}
func (m *MockSessionStore) RevokeSession(sessionID string, at time.Time) error {
	return m.Called(sessionID, at).Error(0)
}
func (m *MockSessionStore) RevokeUserSessions(userID string, at time.Time) error {
	return m.Called(userID, at).Error(0)
}
func (m *MockSessionStore) CreateResetCode(code *model.PasswordResetCode) error {
	return m.Called(code).Error(0)
}
func (m *MockSessionStore) GetValidResetCode(userID, code string, now time.Time) (*model.PasswordResetCode, error) {
	args := m.Called(userID, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PasswordResetCode), args.Error(1)
}
func (m *MockSessionStore) MarkResetCodeUsed(id string, at time.Time) error {
	return m.Called(id, at).Error(0)
}

// MockPostStore implements PostStore using testify/mock
type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) ListPosts(category string, offset, limit int) ([]model.Post, int64, error) {
	args := m.Called(category, offset, limit)
	return args.Get(0).([]model.Post), args.Get(1).(int64), args.Error(2)
}
func (m *MockPostStore) GetPost(id string) (*model.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}
func (m *MockPostStore) CreatePost(post *model.Post) error {
	return m.Called(post).Error(0)
}
func (m *MockPostStore) DeletePost(id string) error {
	return m.Called(id).Error(0)
}
func (m *MockPostStore) CountLikes(postID string) (int64, error) {
	args := m.Called(postID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockPostStore) CountComments(postID string) (int64, error) {
	args := m.Called(postID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockPostStore) ListComments(postID string) ([]model.Comment, error) {
	args := m.Called(postID)
	return args.Get(0).([]model.Comment), args.Error(1)
}
func (m *MockPostStore) GetComment(id string) (*model.Comment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}
func (m *MockPostStore) CreateComment(comment *model.Comment) error {
	return m.Called(comment).Error(0)
}
func (m *MockPostStore) DeleteComment(id string) error {
	return m.Called(id).Error(0)
}
func (m *MockPostStore) HasLiked(postID, userID string) (bool, error) {
	args := m.Called(postID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockPostStore) AddLike(like *model.PostLike) error {
	return m.Called(like).Error(0)
}
func (m *MockPostStore) RemoveLike(postID, userID string) error {
	return m.Called(postID, userID).Error(0)
}

// MockForumStore implements ForumStore using testify/mock
type MockForumStore struct {
	mock.Mock
}

func (m *MockForumStore) ListCategories() ([]model.ForumCategory, error) {
	args := m.Called()
	return args.Get(0).([]model.ForumCategory), args.Error(1)
}
func (m *MockForumStore) GetCategory(id string) (*model.ForumCategory, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ForumCategory), args.Error(1)
}
func (m *MockForumStore) CountTopicsByCategory() (map[string]int64, error) {
	args := m.Called()
	return args.Get(0).(map[string]int64), args.Error(1)
}
func (m *MockForumStore) ListTopics(categoryID string, offset, limit int) ([]model.ForumTopic, int64, error) {
	args := m.Called(categoryID, offset, limit)
	return args.Get(0).([]model.ForumTopic), args.Get(1).(int64), args.Error(2)
}
func (m *MockForumStore) GetTopic(id string) (*model.ForumTopic, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ForumTopic), args.Error(1)
}
func (m *MockForumStore) CreateTopic(topic *model.ForumTopic) error {
	return m.Called(topic).Error(0)
}
func (m *MockForumStore) IncrementViews(id string) error {
	return m.Called(id).Error(0)
}
func (m *MockForumStore) UpdateTopicFlag(id, column string, value bool) error {
	return m.Called(id, column, value).Error(0)
}
func (m *MockForumStore) DeleteTopic(id string) error {
	return m.Called(id).Error(0)
}
func (m *MockForumStore) ListReplies(topicID string, offset, limit int) ([]model.ForumReply, int64, error) {
	args := m.Called(topicID, offset, limit)
	return args.Get(0).([]model.ForumReply), args.Get(1).(int64), args.Error(2)
}
func (m *MockForumStore) GetReply(id string) (*model.ForumReply, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ForumReply), args.Error(1)
}
func (m *MockForumStore) CreateReply(reply *model.ForumReply) error {
	return m.Called(reply).Error(0)
}
func (m *MockForumStore) UpdateReply(id, content string, at time.Time) error {
	return m.Called(id, content, at).Error(0)
}
func (m *MockForumStore) DeleteReply(reply *model.ForumReply) error {
	return m.Called(reply).Error(0)
}

// MockContactStore implements ContactStore using testify/mock
type MockContactStore struct {
	mock.Mock
}

func (m *MockContactStore) CreateContactMessage(msg *model.ContactMessage) error {
	return m.Called(msg).Error(0)
}
func (m *MockContactStore) MarkDelivered(id string) error {
	return m.Called(id).Error(0)
}

// MockParkrunStore implements ParkrunStore using testify/mock
type MockParkrunStore struct {
	mock.Mock
}

func (m *MockParkrunStore) ListParkruns(country, search string, junior *bool) ([]model.Parkrun, error) {
	args := m.Called(country, search, junior)
	return args.Get(0).([]model.Parkrun), args.Error(1)
}
func (m *MockParkrunStore) GetParkrunBySlug(slug string) (*model.Parkrun, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Parkrun), args.Error(1)
}
func (m *MockParkrunStore) ListCountries() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockParkrunStore) UpsertParkruns(events []model.Parkrun) error {
	return m.Called(events).Error(0)
}

// MockMediaStore implements MediaStore using testify/mock
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) CreateMediaAssets(assets []model.MediaAsset) error {
	return m.Called(assets).Error(0)
}

// MockObjectStore implements ObjectStore using testify/mock
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) UploadFile(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	return m.Called(ctx, objectName, reader, objectSize, contentType).Error(0)
}
func (m *MockObjectStore) DeleteFile(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}
func (m *MockObjectStore) PublicURL(objectName string) string {
	return "https://cdn.test/" + objectName
}

// MockMailer implements Mailer using testify/mock
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordResetCode(email, username, code string) error {
	return m.Called(email, username, code).Error(0)
}
func (m *MockMailer) SendContactMessage(to, subject string, data ContactEmailData) error {
	return m.Called(to, subject, data).Error(0)
}
