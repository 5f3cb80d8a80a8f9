package services

import (
	"slices"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/sanitize"
	"github.com/wheelchair-racer/wr_api/shared"
)

const BLOG_SVC = "blog_svc"

type BlogService struct {
	context.DefaultService

	posts   PostStore
	limiter Throttle
	clock   clock.Clock
}

func (svc BlogService) Id() string {
	return BLOG_SVC
}

func (svc *BlogService) Configure(ctx *context.Context) error {
	svc.clock = clock.NewSystemClock()
	return svc.DefaultService.Configure(ctx)
}

func (svc *BlogService) Start() error {
	svc.posts = svc.Service(POSTGRES_SVC).(*PostgresService).Posts()
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	return nil
}

// ==================== POSTS ====================

func (svc *BlogService) ListPosts(page int, category string) (*dto.PostListResponse, error) {
	category = strings.TrimSpace(category)
	if category != "" && !slices.Contains(shared.BlogCategories, category) {
		return nil, shared.NewBadRequestError(nil, "Invalid category")
	}

	page = normalizePage(page)
	posts, total, err := svc.posts.ListPosts(category, pageOffset(page, shared.PostsPerPage), shared.PostsPerPage)
	if err != nil {
		return nil, err
	}

	items := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		item, err := svc.toPostResponse(&posts[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &dto.PostListResponse{
		Posts:      items,
		Page:       page,
		PageSize:   shared.PostsPerPage,
		Total:      total,
		TotalPages: totalPages(total, shared.PostsPerPage),
	}, nil
}

// GetPost returns a post with its comments. viewerID may be empty.
func (svc *BlogService) GetPost(postID, viewerID string) (*dto.PostDetailResponse, error) {
	post, err := svc.posts.GetPost(postID)
	if err != nil {
		return nil, err
	}

	item, err := svc.toPostResponse(post)
	if err != nil {
		return nil, err
	}

	comments, err := svc.posts.ListComments(post.ID)
	if err != nil {
		return nil, err
	}

	detail := &dto.PostDetailResponse{
		PostResponse: item,
		CommentsList: make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.CommentsList = append(detail.CommentsList, toCommentResponse(&comments[i]))
	}

	if viewerID != "" {
		detail.LikedByMe, err = svc.posts.HasLiked(post.ID, viewerID)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

func (svc *BlogService) CreatePost(userID string, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	if err := svc.limiter.Allow(ratelimit.PostCreate, userID); err != nil {
		return nil, err
	}

	if !slices.Contains(shared.BlogCategories, req.Category) {
		return nil, shared.NewBadRequestError(nil, "Invalid category")
	}

	title := strings.TrimSpace(sanitize.StripHTML(req.Title))
	if title == "" {
		return nil, shared.NewBadRequestError(nil, "Title is required")
	}

	content := strings.TrimSpace(sanitize.RichText(req.Content))
	if content == "" {
		return nil, shared.NewBadRequestError(nil, "Content is required")
	}

	imageURLs := make(model.StringList, 0, len(req.ImageURLs))
	for _, raw := range req.ImageURLs {
		url := sanitize.URL(raw)
		if url == "" {
			return nil, shared.NewBadRequestError(nil, "Invalid image URL")
		}
		imageURLs = append(imageURLs, url)
	}

	post := &model.Post{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Category:  req.Category,
		ImageURLs: imageURLs,
		CreatedAt: svc.clock.Now(),
	}
	if err := svc.posts.CreatePost(post); err != nil {
		return nil, err
	}

	created, err := svc.posts.GetPost(post.ID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"post_id": post.ID, "user_id": userID}).Info("Post created")

	item, err := svc.toPostResponse(created)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (svc *BlogService) DeletePost(userID string, isAdmin bool, postID string) error {
	post, err := svc.posts.GetPost(postID)
	if err != nil {
		return err
	}
	if post.UserID != userID && !isAdmin {
		return shared.NewForbiddenError(nil, "You can only delete your own posts")
	}
	return svc.posts.DeletePost(post.ID)
}

// ==================== COMMENTS ====================

func (svc *BlogService) AddComment(userID, postID string, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := svc.limiter.Allow(ratelimit.CommentCreate, userID); err != nil {
		return nil, err
	}

	post, err := svc.posts.GetPost(postID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(sanitize.HTML(req.Content))
	if content == "" {
		return nil, shared.NewBadRequestError(nil, "Comment cannot be empty")
	}

	comment := &model.Comment{
		PostID:    post.ID,
		UserID:    userID,
		Content:   content,
		CreatedAt: svc.clock.Now(),
	}
	if err := svc.posts.CreateComment(comment); err != nil {
		return nil, err
	}

	created, err := svc.posts.GetComment(comment.ID)
	if err != nil {
		return nil, err
	}

	resp := toCommentResponse(created)
	return &resp, nil
}

func (svc *BlogService) DeleteComment(userID string, isAdmin bool, commentID string) error {
	comment, err := svc.posts.GetComment(commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !isAdmin {
		return shared.NewForbiddenError(nil, "You can only delete your own comments")
	}
	return svc.posts.DeleteComment(comment.ID)
}

// ==================== LIKES ====================

func (svc *BlogService) ToggleLike(userID, postID string) (*dto.LikeResponse, error) {
	post, err := svc.posts.GetPost(postID)
	if err != nil {
		return nil, err
	}

	liked, err := svc.posts.HasLiked(post.ID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = svc.posts.RemoveLike(post.ID, userID)
	} else {
		err = svc.posts.AddLike(&model.PostLike{PostID: post.ID, UserID: userID, CreatedAt: svc.clock.Now()})
	}
	if err != nil {
		return nil, err
	}

	count, err := svc.posts.CountLikes(post.ID)
	if err != nil {
		return nil, err
	}

	return &dto.LikeResponse{Liked: !liked, Likes: count}, nil
}

// ==================== HELPERS ====================

func (svc *BlogService) toPostResponse(post *model.Post) (dto.PostResponse, error) {
	likes, err := svc.posts.CountLikes(post.ID)
	if err != nil {
		return dto.PostResponse{}, err
	}
	comments, err := svc.posts.CountComments(post.ID)
	if err != nil {
		return dto.PostResponse{}, err
	}

	imageURLs := []string(post.ImageURLs)
	if imageURLs == nil {
		imageURLs = []string{}
	}

	return dto.PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Category,
		ImageURLs: imageURLs,
		Author:    toAuthorInfo(&post.Author),
		Likes:     likes,
		Comments:  comments,
		CreatedAt: post.CreatedAt,
	}, nil
}

func toCommentResponse(comment *model.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Content:   comment.Content,
		Author:    toAuthorInfo(&comment.Author),
		CreatedAt: comment.CreatedAt,
	}
}

func toAuthorInfo(user *model.User) dto.AuthorInfo {
	return dto.AuthorInfo{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func pageOffset(page, size int) int {
	return (normalizePage(page) - 1) * size
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
