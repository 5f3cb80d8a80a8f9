package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/shared"
)

type MockAuthService struct {
	mock.Mock
	AuthServiceInterface
}

func (m *MockAuthService) SignUp(req dto.SignUpRequest) (*dto.AuthResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*dto.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockAuthService) SignOut(sessionID string) error {
	return m.Called(sessionID).Error(0)
}

type MockBlogService struct {
	mock.Mock
	BlogServiceInterface
}

func (m *MockBlogService) ListPosts(page int, category string) (*dto.PostListResponse, error) {
	args := m.Called(page, category)
	resp, _ := args.Get(0).(*dto.PostListResponse)
	return resp, args.Error(1)
}

func (m *MockBlogService) CreatePost(userID string, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	args := m.Called(userID, req)
	resp, _ := args.Get(0).(*dto.PostResponse)
	return resp, args.Error(1)
}

func (m *MockBlogService) DeletePost(userID string, isAdmin bool, postID string) error {
	return m.Called(userID, isAdmin, postID).Error(0)
}

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(req dto.ContactRequest) (*dto.ContactResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*dto.ContactResponse)
	return resp, args.Error(1)
}

type MockParkrunService struct {
	mock.Mock
}

func (m *MockParkrunService) List(ctx context.Context, query dto.ParkrunQuery) (*dto.ParkrunListResponse, error) {
	args := m.Called(query)
	resp, _ := args.Get(0).(*dto.ParkrunListResponse)
	return resp, args.Error(1)
}

func (m *MockParkrunService) Get(ctx context.Context, slug string) (*model.Parkrun, error) {
	args := m.Called(slug)
	event, _ := args.Get(0).(*model.Parkrun)
	return event, args.Error(1)
}

func (m *MockParkrunService) Countries(ctx context.Context) ([]string, error) {
	args := m.Called()
	countries, _ := args.Get(0).([]string)
	return countries, args.Error(1)
}

func (m *MockParkrunService) Nearby(ctx context.Context, query dto.NearbyQuery, clientIP string) (*dto.NearbyResponse, error) {
	args := m.Called(query, clientIP)
	resp, _ := args.Get(0).(*dto.NearbyResponse)
	return resp, args.Error(1)
}

type MockForumService struct {
	mock.Mock
	ForumServiceInterface
}

func (m *MockForumService) SetPinned(topicID string, pinned bool) error {
	return m.Called(topicID, pinned).Error(0)
}

func (m *MockForumService) SetLocked(topicID string, locked bool) error {
	return m.Called(topicID, locked).Error(0)
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: shared.ErrorHandler,
	})
}

// asUser stands in for the auth middleware.
func asUser(userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, userID)
		c.Locals(shared.UserRole, role)
		c.Locals(shared.SessionID, "session-1")
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, sonic.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestAuthHandlerSignUp(t *testing.T) {
	authSvc := new(MockAuthService)
	h := NewAuthHandler(authSvc)

	app := newTestApp()
	app.Post("/auth/signup", h.SignUp)

	t.Run("validation errors list fields", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/auth/signup", `{"email":"nope","username":"ab","password":"weak"}`)
		assert.Equal(t, 400, status)
		assert.Equal(t, "Validation failed", body["message"])

		errs, ok := body["errors"].([]interface{})
		require.True(t, ok)
		assert.Len(t, errs, 3)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/auth/signup", `{"email":`)
		assert.Equal(t, 400, status)
		assert.Equal(t, "Invalid request body", body["message"])
	})

	t.Run("created", func(t *testing.T) {
		req := dto.SignUpRequest{Email: "racer@example.com", Username: "fast_wheels", Password: "SecurePass123"}
		authSvc.On("SignUp", req).Return(&dto.AuthResponse{
			User:  dto.ProfileResponse{ID: "user-1", Email: req.Email, Username: req.Username, Role: shared.RoleUser},
			Token: dto.TokenPair{AccessToken: "jwt", ExpiresIn: 86400},
		}, nil).Once()

		status, body := doJSON(t, app, "POST", "/auth/signup", `{"email":"racer@example.com","username":"fast_wheels","password":"SecurePass123"}`)
		assert.Equal(t, 201, status)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "jwt", data["token"].(map[string]interface{})["access_token"])
	})

	t.Run("rate limited error passes through", func(t *testing.T) {
		req := dto.SignUpRequest{Email: "again@example.com", Username: "again", Password: "SecurePass123"}
		appErr := shared.NewTooManyRequestsError("Too many attempts. Please try again in 1 hour.", nil)
		appErr.Headers = map[string]string{"Retry-After": "3600"}
		authSvc.On("SignUp", req).Return(nil, appErr).Once()

		status, body := doJSON(t, app, "POST", "/auth/signup", `{"email":"again@example.com","username":"again","password":"SecurePass123"}`)
		assert.Equal(t, 429, status)
		assert.Equal(t, "Too many attempts. Please try again in 1 hour.", body["message"])
	})

	authSvc.AssertExpectations(t)
}

func TestAuthHandlerSignOutUsesSession(t *testing.T) {
	authSvc := new(MockAuthService)
	h := NewAuthHandler(authSvc)
	authSvc.On("SignOut", "session-1").Return(nil)

	app := newTestApp()
	app.Post("/auth/signout", asUser("user-1", shared.RoleUser), h.SignOut)

	status, _ := doJSON(t, app, "POST", "/auth/signout", "")
	assert.Equal(t, 200, status)
	authSvc.AssertExpectations(t)
}

func TestBlogHandler(t *testing.T) {
	blogSvc := new(MockBlogService)
	h := NewBlogHandler(blogSvc)

	app := newTestApp()
	app.Get("/posts", h.ListPosts)
	app.Post("/posts", asUser("user-1", shared.RoleUser), h.CreatePost)
	app.Delete("/posts/:id", asUser("admin-1", shared.RoleAdmin), h.DeletePost)

	t.Run("list forwards page and category", func(t *testing.T) {
		blogSvc.On("ListPosts", 2, "Race Reports").Return(&dto.PostListResponse{Page: 2, PageSize: 10}, nil).Once()

		status, body := doJSON(t, app, "GET", "/posts?page=2&category=Race%20Reports", "")
		assert.Equal(t, 200, status)
		assert.EqualValues(t, 2, body["data"].(map[string]interface{})["page"])
	})

	t.Run("create rejects unknown category", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/posts", `{"title":"Hello","content":"long enough content","category":"Gossip"}`)
		assert.Equal(t, 400, status)
		assert.Equal(t, "Validation failed", body["message"])
	})

	t.Run("create uses the signed in user", func(t *testing.T) {
		req := dto.CreatePostRequest{Title: "Hello", Content: "long enough content", Category: "Training"}
		blogSvc.On("CreatePost", "user-1", req).Return(&dto.PostResponse{ID: "post-1"}, nil).Once()

		status, _ := doJSON(t, app, "POST", "/posts", `{"title":"Hello","content":"long enough content","category":"Training"}`)
		assert.Equal(t, 201, status)
	})

	t.Run("delete passes admin flag", func(t *testing.T) {
		blogSvc.On("DeletePost", "admin-1", true, "post-9").Return(nil).Once()

		status, _ := doJSON(t, app, "DELETE", "/posts/post-9", "")
		assert.Equal(t, 200, status)
	})

	blogSvc.AssertExpectations(t)
}

func TestContactHandler(t *testing.T) {
	contactSvc := new(MockContactService)
	h := NewContactHandler(contactSvc)

	app := newTestApp()
	app.Post("/contact", h.Submit)

	status, body := doJSON(t, app, "POST", "/contact", `{"name":"Sam","email":"sam@example.com","subject":"Hi","message":"Hello","category":"sales"}`)
	assert.Equal(t, 400, status)
	assert.Equal(t, "Validation failed", body["message"])

	req := dto.ContactRequest{Name: "Sam", Email: "sam@example.com", Subject: "Hi", Message: "Hello", Category: "support"}
	contactSvc.On("Submit", req).Return(&dto.ContactResponse{ID: "msg-1", Success: true}, nil)

	status, body = doJSON(t, app, "POST", "/contact", `{"name":"Sam","email":"sam@example.com","subject":"Hi","message":"Hello","category":"support"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["data"].(map[string]interface{})["success"])
	contactSvc.AssertExpectations(t)
}

func TestParkrunHandler(t *testing.T) {
	parkrunSvc := new(MockParkrunService)
	h := NewParkrunHandler(parkrunSvc)

	app := newTestApp()
	app.Get("/parkruns", h.List)
	app.Get("/parkruns/countries", h.Countries)
	app.Get("/parkruns/:slug", h.Get)

	juniorOnly := mock.MatchedBy(func(q dto.ParkrunQuery) bool {
		return q.Country == "UK" && q.Search == "park" && q.Junior != nil && *q.Junior
	})
	parkrunSvc.On("List", juniorOnly).Return(&dto.ParkrunListResponse{
		Events: []dto.ParkrunSummary{{UID: 1, Slug: "bushy-juniors", Junior: true}},
		Total:  1,
	}, nil)
	parkrunSvc.On("Countries").Return([]string{"Australia", "UK"}, nil)
	parkrunSvc.On("Get", "missing").Return(nil, shared.NewNotFoundError(nil, "Parkrun not found"))

	status, body := doJSON(t, app, "GET", "/parkruns?country=UK&search=park&junior=true", "")
	assert.Equal(t, 200, status)
	assert.EqualValues(t, 1, body["data"].(map[string]interface{})["total"])

	status, body = doJSON(t, app, "GET", "/parkruns/countries", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, []interface{}{"Australia", "UK"}, body["data"])

	status, body = doJSON(t, app, "GET", "/parkruns/missing", "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "Parkrun not found", body["message"])

	parkrunSvc.AssertExpectations(t)
}

func TestParkrunHandlerNearbyUsesClientIP(t *testing.T) {
	parkrunSvc := new(MockParkrunService)
	h := NewParkrunHandler(parkrunSvc)

	app := newTestApp()
	app.Get("/parkruns/nearby", h.Nearby)

	withCoords := mock.MatchedBy(func(q dto.NearbyQuery) bool {
		return q.Lat != nil && *q.Lat == 51.5 && q.Lon != nil && *q.Lon == -0.12 && q.Limit == 3
	})
	parkrunSvc.On("Nearby", withCoords, "0.0.0.0").Return(&dto.NearbyResponse{
		Origin: dto.Location{Latitude: 51.5, Longitude: -0.12},
		Events: []dto.NearbyParkrun{{ParkrunSummary: dto.ParkrunSummary{Slug: "bushy"}, DistanceKm: 17.4}},
	}, nil)

	status, body := doJSON(t, app, "GET", "/parkruns/nearby?lat=51.5&lon=-0.12&limit=3", "")
	assert.Equal(t, 200, status)
	events := body["data"].(map[string]interface{})["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, 17.4, events[0].(map[string]interface{})["distance_km"])
	parkrunSvc.AssertExpectations(t)
}

func TestAdminHandlerTopicFlags(t *testing.T) {
	forumSvc := new(MockForumService)
	h := NewAdminHandler(forumSvc)
	forumSvc.On("SetPinned", "topic-1", true).Return(nil)
	forumSvc.On("SetLocked", "topic-1", false).Return(nil)

	app := newTestApp()
	app.Put("/forum/topics/:id/pin", h.PinTopic)
	app.Put("/forum/topics/:id/lock", h.LockTopic)

	status, body := doJSON(t, app, "PUT", "/forum/topics/topic-1/pin", `{"value":true}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Topic pinned", body["message"])

	status, body = doJSON(t, app, "PUT", "/forum/topics/topic-1/lock", `{"value":false}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Topic unlocked", body["message"])

	forumSvc.AssertExpectations(t)
}
