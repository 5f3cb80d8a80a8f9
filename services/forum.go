package services

import (
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

const FORUM_SVC = "forum_svc"

const (
	topicPinnedColumn = "is_pinned"
	topicLockedColumn = "is_locked"
)

type ForumService struct {
	context.DefaultService

	forum   ForumStore
	limiter Throttle
	clock   clock.Clock
}

func (svc ForumService) Id() string {
	return FORUM_SVC
}

func (svc *ForumService) Configure(ctx *context.Context) error {
	svc.clock = clock.NewSystemClock()
	return svc.DefaultService.Configure(ctx)
}

func (svc *ForumService) Start() error {
	svc.forum = svc.Service(POSTGRES_SVC).(*PostgresService).Forum()
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	return nil
}

// ==================== CATEGORIES ====================

func (svc *ForumService) ListCategories() ([]dto.CategoryResponse, error) {
	categories, err := svc.forum.ListCategories()
	if err != nil {
		return nil, err
	}

	counts, err := svc.forum.CountTopicsByCategory()
	if err != nil {
		return nil, err
	}

	resp := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		resp = append(resp, dto.CategoryResponse{
			ID:          category.ID,
			Name:        category.Name,
			Slug:        category.Slug,
			Description: category.Description,
			TopicCount:  counts[category.ID],
		})
	}
	return resp, nil
}

// ==================== TOPICS ====================

func (svc *ForumService) ListTopics(categoryID string, page int) (*dto.TopicListResponse, error) {
	if _, err := svc.forum.GetCategory(categoryID); err != nil {
		return nil, err
	}

	page = normalizePage(page)
	topics, total, err := svc.forum.ListTopics(categoryID, pageOffset(page, shared.TopicsPerPage), shared.TopicsPerPage)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TopicResponse, 0, len(topics))
	for i := range topics {
		item := toTopicResponse(&topics[i])
		item.Content = ""
		items = append(items, item)
	}

	return &dto.TopicListResponse{
		Topics:     items,
		Page:       page,
		PageSize:   shared.TopicsPerPage,
		Total:      total,
		TotalPages: totalPages(total, shared.TopicsPerPage),
	}, nil
}

// GetTopic counts a view and returns one page of replies, oldest first.
func (svc *ForumService) GetTopic(topicID string, page int) (*dto.TopicDetailResponse, error) {
	topic, err := svc.forum.GetTopic(topicID)
	if err != nil {
		return nil, err
	}

	if err := svc.forum.IncrementViews(topic.ID); err != nil {
		log.WithError(err).WithField("topic_id", topic.ID).Warn("Failed to count topic view")
	} else {
		topic.Views++
	}

	page = normalizePage(page)
	replies, total, err := svc.forum.ListReplies(topic.ID, pageOffset(page, shared.RepliesPerPage), shared.RepliesPerPage)
	if err != nil {
		return nil, err
	}

	detail := &dto.TopicDetailResponse{
		Topic:   toTopicResponse(topic),
		Replies: make([]dto.ReplyResponse, 0, len(replies)),
		Page:    page,
		Total:   total,
	}
	for i := range replies {
		detail.Replies = append(detail.Replies, toReplyResponse(&replies[i]))
	}
	return detail, nil
}

func (svc *ForumService) CreateTopic(userID string, req dto.CreateTopicRequest) (*dto.TopicResponse, error) {
	if err := svc.limiter.Allow(ratelimit.ForumTopic, userID); err != nil {
		return nil, err
	}

	category, err := svc.forum.GetCategory(req.CategoryID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(sanitize.StripHTML(req.Title))
	if title == "" {
		return nil, shared.NewBadRequestError(nil, "Title is required")
	}
	content := strings.TrimSpace(sanitize.HTML(req.Content))
	if content == "" {
		return nil, shared.NewBadRequestError(nil, "Content is required")
	}

	now := svc.clock.Now()
	topic := &model.ForumTopic{
		CategoryID:     category.ID,
		UserID:         userID,
		Title:          title,
		Content:        content,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := svc.forum.CreateTopic(topic); err != nil {
		return nil, err
	}

	created, err := svc.forum.GetTopic(topic.ID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"topic_id": topic.ID, "user_id": userID}).Info("Forum topic created")

	resp := toTopicResponse(created)
	return &resp, nil
}

func (svc *ForumService) SetPinned(topicID string, pinned bool) error {
	return svc.forum.UpdateTopicFlag(topicID, topicPinnedColumn, pinned)
}

func (svc *ForumService) SetLocked(topicID string, locked bool) error {
	return svc.forum.UpdateTopicFlag(topicID, topicLockedColumn, locked)
}

func (svc *ForumService) DeleteTopic(topicID string) error {
	return svc.forum.DeleteTopic(topicID)
}

// ==================== REPLIES ====================

func (svc *ForumService) CreateReply(userID, topicID string, req dto.ReplyRequest) (*dto.ReplyResponse, error) {
	if err := svc.limiter.Allow(ratelimit.ForumReply, userID); err != nil {
		return nil, err
	}

	topic, err := svc.forum.GetTopic(topicID)
	if err != nil {
		return nil, err
	}
	if topic.IsLocked {
		return nil, shared.NewForbiddenError(nil, "Topic is locked")
	}

	content := strings.TrimSpace(sanitize.HTML(req.Content))
	if content == "" {
		return nil, shared.NewBadRequestError(nil, "Reply cannot be empty")
	}

	now := svc.clock.Now()
	reply := &model.ForumReply{
		TopicID:   topic.ID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.forum.CreateReply(reply); err != nil {
		return nil, err
	}

	created, err := svc.forum.GetReply(reply.ID)
	if err != nil {
		return nil, err
	}

	resp := toReplyResponse(created)
	return &resp, nil
}

func (svc *ForumService) UpdateReply(userID string, isAdmin bool, replyID string, req dto.ReplyRequest) (*dto.ReplyResponse, error) {
	reply, err := svc.forum.GetReply(replyID)
	if err != nil {
		return nil, err
	}
	if reply.UserID != userID && !isAdmin {
		return nil, shared.NewForbiddenError(nil, "You can only edit your own replies")
	}

	content := strings.TrimSpace(sanitize.HTML(req.Content))
	if content == "" {
		return nil, shared.NewBadRequestError(nil, "Reply cannot be empty")
	}

	now := svc.clock.Now()
	if err := svc.forum.UpdateReply(reply.ID, content, now); err != nil {
		return nil, err
	}

	reply.Content = content
	reply.UpdatedAt = now
	resp := toReplyResponse(reply)
	return &resp, nil
}

func (svc *ForumService) DeleteReply(userID string, isAdmin bool, replyID string) error {
	reply, err := svc.forum.GetReply(replyID)
	if err != nil {
		return err
	}
	if reply.UserID != userID && !isAdmin {
		return shared.NewForbiddenError(nil, "You can only delete your own replies")
	}
	return svc.forum.DeleteReply(reply)
}

func toTopicResponse(topic *model.ForumTopic) dto.TopicResponse {
	return dto.TopicResponse{
		ID:             topic.ID,
		CategoryID:     topic.CategoryID,
		Title:          topic.Title,
		Content:        topic.Content,
		IsPinned:       topic.IsPinned,
		IsLocked:       topic.IsLocked,
		Views:          topic.Views,
		RepliesCount:   topic.RepliesCount,
		LastActivityAt: topic.LastActivityAt,
		Author:         toAuthorInfo(&topic.Author),
		CreatedAt:      topic.CreatedAt,
	}
}

func toReplyResponse(reply *model.ForumReply) dto.ReplyResponse {
	return dto.ReplyResponse{
		ID:        reply.ID,
		TopicID:   reply.TopicID,
		Content:   reply.Content,
		Author:    toAuthorInfo(&reply.Author),
		CreatedAt: reply.CreatedAt,
		UpdatedAt: reply.UpdatedAt,
	}
}
