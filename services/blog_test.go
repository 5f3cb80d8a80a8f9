package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/shared"
)

func newTestBlogService(t *testing.T) (*BlogService, *MockPostStore) {
	t.Helper()
	limiter, mc := newTestLimiter(t)
	posts := new(MockPostStore)
	return &BlogService{posts: posts, limiter: limiter, clock: mc}, posts
}

func testPost() *model.Post {
	return &model.Post{
		ID:       "post-1",
		UserID:   "user-1",
		Title:    "My first 5k",
		Content:  "<p>Race report</p>",
		Category: "Race Reports",
		Author:   model.User{ID: "user-1", Username: "sam_racer"},
	}
}

func TestListPosts(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("ListPosts", "Training", 10, 10).Return([]model.Post{*testPost()}, int64(11), nil)
	posts.On("CountLikes", "post-1").Return(int64(4), nil)
	posts.On("CountComments", "post-1").Return(int64(2), nil)

	resp, err := svc.ListPosts(2, "Training")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, int64(4), resp.Posts[0].Likes)
	assert.Equal(t, "sam_racer", resp.Posts[0].Author.Username)
	assert.Equal(t, []string{}, resp.Posts[0].ImageURLs)

	_, err = svc.ListPosts(1, "Knitting")
	assert.Equal(t, 400, statusOf(t, err))
}

func TestListPostsClampsPage(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("ListPosts", "", 0, 10).Return([]model.Post{}, int64(0), nil)

	resp, err := svc.ListPosts(-3, "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Empty(t, resp.Posts)
}

func TestCreatePostSanitizes(t *testing.T) {
	svc, posts := newTestBlogService(t)

	var stored *model.Post
	posts.On("CreatePost", mock.AnythingOfType("*model.Post")).Run(func(args mock.Arguments) {
		stored = args.Get(0).(*model.Post)
		stored.ID = "post-1"
	}).Return(nil)
	posts.On("GetPost", "post-1").Return(testPost(), nil)
	posts.On("CountLikes", "post-1").Return(int64(0), nil)
	posts.On("CountComments", "post-1").Return(int64(0), nil)

	_, err := svc.CreatePost("user-1", dto.CreatePostRequest{
		Title:     "<b>My</b> first 5k",
		Content:   `<p onclick="x()">Race report</p><img src="/a.png" alt="finish"><script>alert(1)</script>`,
		Category:  "Race Reports",
		ImageURLs: []string{" https://cdn.test/a.png "},
	})
	require.NoError(t, err)

	assert.Equal(t, "My first 5k", stored.Title)
	assert.Contains(t, stored.Content, "<p>Race report</p>")
	assert.Contains(t, stored.Content, `alt="finish"`)
	assert.NotContains(t, stored.Content, "script")
	assert.NotContains(t, stored.Content, "onclick")
	assert.Equal(t, model.StringList{"https://cdn.test/a.png"}, stored.ImageURLs)
	assert.Equal(t, testNow, stored.CreatedAt)
}

func TestCreatePostRejects(t *testing.T) {
	svc, posts := newTestBlogService(t)

	_, err := svc.CreatePost("user-1", dto.CreatePostRequest{Title: "<script>x</script>", Content: "<p>Body text</p>", Category: "Training"})
	assert.Equal(t, 400, statusOf(t, err))

	_, err = svc.CreatePost("user-1", dto.CreatePostRequest{Title: "Hello", Content: "<p>Body text</p>", Category: "Training", ImageURLs: []string{"javascript:alert(1)"}})
	assert.Equal(t, 400, statusOf(t, err))

	posts.AssertNotCalled(t, "CreatePost", mock.Anything)
}

func TestCreatePostRateLimited(t *testing.T) {
	svc, posts := newTestBlogService(t)

	// Rejected attempts still count against POST_CREATE.
	req := dto.CreatePostRequest{Title: "Hello", Content: "<p>Body</p>", Category: "Knitting"}
	for i := 0; i < 5; i++ {
		_, err := svc.CreatePost("user-1", req)
		assert.Equal(t, 400, statusOf(t, err))
	}
	_, err := svc.CreatePost("user-1", req)
	assert.Equal(t, 429, statusOf(t, err))

	// Another user has their own budget.
	_, err = svc.CreatePost("user-2", req)
	assert.Equal(t, 400, statusOf(t, err))
	posts.AssertNotCalled(t, "CreatePost", mock.Anything)
}

func TestDeletePostOwnership(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetPost", "post-1").Return(testPost(), nil)
	posts.On("DeletePost", "post-1").Return(nil)

	err := svc.DeletePost("user-2", false, "post-1")
	assert.Equal(t, 403, statusOf(t, err))

	require.NoError(t, svc.DeletePost("user-2", true, "post-1"))
	require.NoError(t, svc.DeletePost("user-1", false, "post-1"))
	posts.AssertNumberOfCalls(t, "DeletePost", 2)
}

func TestAddComment(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetPost", "post-1").Return(testPost(), nil)
	posts.On("GetPost", "missing").Return(nil, shared.NewNotFoundError(nil, "Post not found"))

	var stored *model.Comment
	posts.On("CreateComment", mock.AnythingOfType("*model.Comment")).Run(func(args mock.Arguments) {
		stored = args.Get(0).(*model.Comment)
		stored.ID = "comment-1"
	}).Return(nil)
	posts.On("GetComment", "comment-1").Return(&model.Comment{
		ID: "comment-1", PostID: "post-1", UserID: "user-2", Content: "<b>Nice</b>",
		Author: model.User{ID: "user-2", Username: "alex"},
	}, nil)

	resp, err := svc.AddComment("user-2", "post-1", dto.CreateCommentRequest{Content: `<b>Nice</b><img src=x onerror="alert(1)">`})
	require.NoError(t, err)
	assert.Equal(t, "<b>Nice</b>", stored.Content)
	assert.Equal(t, "alex", resp.Author.Username)

	_, err = svc.AddComment("user-2", "missing", dto.CreateCommentRequest{Content: "hi"})
	assert.Equal(t, 404, statusOf(t, err))
}

func TestCommentRateLimit(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetPost", "missing").Return(nil, shared.NewNotFoundError(nil, "Post not found"))

	for i := 0; i < 10; i++ {
		_, err := svc.AddComment("user-1", "missing", dto.CreateCommentRequest{Content: "hi"})
		assert.Equal(t, 404, statusOf(t, err))
	}
	_, err := svc.AddComment("user-1", "missing", dto.CreateCommentRequest{Content: "hi"})
	assert.Equal(t, 429, statusOf(t, err))
}

func TestDeleteCommentOwnership(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetComment", "comment-1").Return(&model.Comment{ID: "comment-1", UserID: "user-1"}, nil)
	posts.On("DeleteComment", "comment-1").Return(nil)

	assert.Equal(t, 403, statusOf(t, svc.DeleteComment("user-2", false, "comment-1")))
	assert.NoError(t, svc.DeleteComment("user-1", false, "comment-1"))
}

func TestToggleLike(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetPost", "post-1").Return(testPost(), nil)
	posts.On("HasLiked", "post-1", "user-2").Return(false, nil).Once()
	posts.On("AddLike", mock.MatchedBy(func(like *model.PostLike) bool {
		return like.PostID == "post-1" && like.UserID == "user-2"
	})).Return(nil)
	posts.On("CountLikes", "post-1").Return(int64(1), nil).Once()

	resp, err := svc.ToggleLike("user-2", "post-1")
	require.NoError(t, err)
	assert.Equal(t, &dto.LikeResponse{Liked: true, Likes: 1}, resp)

	posts.On("HasLiked", "post-1", "user-2").Return(true, nil).Once()
	posts.On("RemoveLike", "post-1", "user-2").Return(nil)
	posts.On("CountLikes", "post-1").Return(int64(0), nil).Once()

	resp, err = svc.ToggleLike("user-2", "post-1")
	require.NoError(t, err)
	assert.Equal(t, &dto.LikeResponse{Liked: false, Likes: 0}, resp)
}

func TestGetPostDetail(t *testing.T) {
	svc, posts := newTestBlogService(t)
	posts.On("GetPost", "post-1").Return(testPost(), nil)
	posts.On("CountLikes", "post-1").Return(int64(3), nil)
	posts.On("CountComments", "post-1").Return(int64(1), nil)
	posts.On("ListComments", "post-1").Return([]model.Comment{{ID: "c1", PostID: "post-1", Content: "hi"}}, nil)
	posts.On("HasLiked", "post-1", "user-2").Return(true, nil)

	detail, err := svc.GetPost("post-1", "user-2")
	require.NoError(t, err)
	assert.True(t, detail.LikedByMe)
	assert.Equal(t, int64(3), detail.Likes)
	require.Len(t, detail.CommentsList, 1)

	anon, err := svc.GetPost("post-1", "")
	require.NoError(t, err)
	assert.False(t, anon.LikedByMe)
	posts.AssertNumberOfCalls(t, "HasLiked", 1)
}
