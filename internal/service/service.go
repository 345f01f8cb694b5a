package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mi-raf/comment-moderation/internal/database"
	"github.com/mi-raf/comment-moderation/internal/models"
	"github.com/mi-raf/comment-moderation/internal/scheduler"
)

type (
	Moderator interface {
		Evaluate(ctx context.Context, text string) models.Status
	}

	AutoReplier interface {
		Schedule(post *models.Post, comment *models.Comment) (*scheduler.Job, bool)
	}

	NewPost struct {
		Title            string
		Content          string
		AutoReplyEnabled bool
		AutoReplyDelay   *float64
	}

	PostService struct {
		r database.PostRepository
	}

	CommentService struct {
		posts    database.PostRepository
		comments database.CommentRepository
		gate     Moderator
		replier  AutoReplier
	}
)

func NewPostService(r database.PostRepository) *PostService {
	return &PostService{r}
}

func (s *PostService) CreatePost(ctx context.Context, owner string, np NewPost) (*models.Post, error) {
	if np.AutoReplyDelay != nil && *np.AutoReplyDelay < 0 {
		return nil, fmt.Errorf("auto reply delay must not be negative: %w", models.ErrValidation)
	}
	if np.AutoReplyDelay != nil && *np.AutoReplyDelay > models.MaxAutoReplyDelay {
		return nil, fmt.Errorf("auto reply delay above %d minutes: %w", models.MaxAutoReplyDelay, models.ErrValidation)
	}
	return s.r.CreatePost(ctx, &models.Post{
		Title:            np.Title,
		Content:          np.Content,
		Owner:            owner,
		AutoReplyEnabled: np.AutoReplyEnabled,
		AutoReplyDelay:   np.AutoReplyDelay,
	})
}

func (s *PostService) Post(ctx context.Context, id int64) (*models.Post, error) {
	return s.r.GetPost(ctx, id)
}

func (s *PostService) Posts(ctx context.Context) ([]*models.Post, error) {
	return s.r.ListPosts(ctx)
}

func (s *PostService) UpdatePost(ctx context.Context, id int64, requester string, upd models.PostUpdate) (*models.Post, error) {
	return s.r.UpdatePost(ctx, id, requester, upd)
}

func (s *PostService) DeletePost(ctx context.Context, id int64, requester string) error {
	return s.r.DeletePost(ctx, id, requester)
}

func NewCommentService(posts database.PostRepository, comments database.CommentRepository, gate Moderator, replier AutoReplier) *CommentService {
	return &CommentService{posts: posts, comments: comments, gate: gate, replier: replier}
}

// CreateComment stores the comment whatever the verdict and arms an auto
// reply for accepted ones.
func (s *CommentService) CreateComment(ctx context.Context, postID int64, owner, content string) (*models.Comment, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("post %d: %w", postID, models.ErrPostNotFound)
	}
	if err != nil {
		return nil, err
	}

	status := s.gate.Evaluate(ctx, content)

	c, err := s.comments.CreateComment(ctx, postID, owner, content, status)
	if err != nil {
		return nil, err
	}
	if _, ok := s.replier.Schedule(post, c); ok {
		log.Debug().Int64("post", postID).Int64("comment", c.Id).Msg("auto reply armed")
	}
	return c, nil
}

func (s *CommentService) Comments(ctx context.Context, postID int64) ([]*models.Comment, error) {
	return s.comments.ListComments(ctx, postID)
}

func (s *CommentService) AllComments(ctx context.Context) (map[int64][]*models.Comment, error) {
	return s.comments.ListAllComments(ctx)
}

// UpdateComment applies an edit only if the new content passes moderation.
func (s *CommentService) UpdateComment(ctx context.Context, postID, commentID int64, requester, content string) (*models.Comment, error) {
	c, err := s.comments.GetComment(ctx, postID, commentID)
	if errors.Is(err, models.ErrPostNotFound) {
		return nil, fmt.Errorf("comment %d on post %d: %w", commentID, postID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if c.Owner != requester {
		return nil, fmt.Errorf("comment %d owned by another user: %w", commentID, models.ErrForbidden)
	}

	if s.gate.Evaluate(ctx, content) != models.StatusActive {
		log.Info().Int64("post", postID).Int64("comment", commentID).Msg("comment edit rejected by moderation")
		return nil, models.ErrCommentBlocked
	}
	return s.comments.UpdateComment(ctx, postID, commentID, requester, content, models.StatusActive)
}

func (s *CommentService) DeleteComment(ctx context.Context, postID, commentID int64, requester string) error {
	return s.comments.DeleteComment(ctx, postID, commentID, requester)
}
