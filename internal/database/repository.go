package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	mod "github.com/mi-raf/comment-moderation/internal/models"
)

const (
	STARTCAP = 128
)

type (
	PostRepository interface {
		CreatePost(ctx context.Context, post *mod.Post) (*mod.Post, error)
		GetPost(ctx context.Context, id int64) (*mod.Post, error)
		ListPosts(ctx context.Context) ([]*mod.Post, error)
		UpdatePost(ctx context.Context, id int64, requester string, upd mod.PostUpdate) (*mod.Post, error)
		DeletePost(ctx context.Context, id int64, requester string) error
	}

	CommentRepository interface {
		CreateComment(ctx context.Context, postID int64, owner, content string, status mod.Status) (*mod.Comment, error)
		CreateReply(ctx context.Context, postID, inReplyTo int64, owner, content string, status mod.Status) (*mod.Comment, error)
		GetComment(ctx context.Context, postID, commentID int64) (*mod.Comment, error)
		ListComments(ctx context.Context, postID int64) ([]*mod.Comment, error)
		ListAllComments(ctx context.Context) (map[int64][]*mod.Comment, error)
		UpdateComment(ctx context.Context, postID, commentID int64, requester, content string, status mod.Status) (*mod.Comment, error)
		DeleteComment(ctx context.Context, postID, commentID int64, requester string) error
	}

	// InMemoryStore keeps posts and their comments in process memory.
	//
	// Every post owns a bucket whose mutex is the critical section for the
	// post record, its comment list and its comment id counter. The store
	// mutex only guards the bucket index and is never held while a bucket
	// is locked for writing.
	InMemoryStore struct {
		m       sync.RWMutex
		buckets map[int64]*bucket
		order   []int64
		idGen   int64
		now     func() time.Time
	}

	bucket struct {
		m sync.Mutex
		// post is nil once deleted, comments stay.
		post     *mod.Post
		comments []*mod.Comment
		idGen    int64
	}

	StoreOption func(*InMemoryStore)
)

var (
	_ PostRepository    = (*InMemoryStore)(nil)
	_ CommentRepository = (*InMemoryStore)(nil)
)

// WithClock overrides the clock used to stamp created_at.
func WithClock(now func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		buckets: make(map[int64]*bucket, STARTCAP),
		order:   make([]int64, 0, STARTCAP),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *InMemoryStore) lookup(id int64) (*bucket, bool) {
	s.m.RLock()
	defer s.m.RUnlock()
	b, ok := s.buckets[id]
	return b, ok
}

func (s *InMemoryStore) snapshot() ([]int64, []*bucket) {
	s.m.RLock()
	defer s.m.RUnlock()
	ids := make([]int64, len(s.order))
	copy(ids, s.order)
	bs := make([]*bucket, len(ids))
	for i, id := range ids {
		bs[i] = s.buckets[id]
	}
	return ids, bs
}

func (s *InMemoryStore) CreatePost(ctx context.Context, post *mod.Post) (*mod.Post, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.idGen++
	p := post.Clone()
	p.Id = s.idGen
	p.CreatedAt = s.now()
	s.buckets[p.Id] = &bucket{post: p}
	s.order = append(s.order, p.Id)
	log.Debug().Int64("post", p.Id).Str("owner", p.Owner).Msg("post created")
	return p.Clone(), nil
}

func (s *InMemoryStore) GetPost(ctx context.Context, id int64) (*mod.Post, error) {
	b, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	if b.post == nil {
		return nil, fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	return b.post.Clone(), nil
}

func (s *InMemoryStore) ListPosts(ctx context.Context) ([]*mod.Post, error) {
	_, bs := s.snapshot()
	posts := make([]*mod.Post, 0, len(bs))
	for _, b := range bs {
		b.m.Lock()
		if b.post != nil {
			posts = append(posts, b.post.Clone())
		}
		b.m.Unlock()
	}
	return posts, nil
}

func (s *InMemoryStore) UpdatePost(ctx context.Context, id int64, requester string, upd mod.PostUpdate) (*mod.Post, error) {
	b, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	if b.post == nil {
		return nil, fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	if b.post.Owner != requester {
		return nil, fmt.Errorf("post %d owned by another user: %w", id, mod.ErrForbidden)
	}
	if upd.Title != nil {
		b.post.Title = *upd.Title
	}
	if upd.Content != nil {
		b.post.Content = *upd.Content
	}
	return b.post.Clone(), nil
}

func (s *InMemoryStore) DeletePost(ctx context.Context, id int64, requester string) error {
	b, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	b.m.Lock()
	if b.post == nil {
		b.m.Unlock()
		return fmt.Errorf("post %d: %w", id, mod.ErrNotFound)
	}
	if b.post.Owner != requester {
		b.m.Unlock()
		return fmt.Errorf("post %d owned by another user: %w", id, mod.ErrForbidden)
	}
	b.post = nil
	b.m.Unlock()
	log.Debug().Int64("post", id).Msg("post deleted, comments kept")
	return nil
}

func (s *InMemoryStore) CreateComment(ctx context.Context, postID int64, owner, content string, status mod.Status) (*mod.Comment, error) {
	return s.addComment(postID, 0, owner, content, status)
}

func (s *InMemoryStore) CreateReply(ctx context.Context, postID, inReplyTo int64, owner, content string, status mod.Status) (*mod.Comment, error) {
	return s.addComment(postID, inReplyTo, owner, content, status)
}

func (s *InMemoryStore) addComment(postID, inReplyTo int64, owner, content string, status mod.Status) (*mod.Comment, error) {
	b, ok := s.lookup(postID)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	if b.post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	if inReplyTo != 0 {
		if _, ok := searchIndex(b.comments, inReplyTo); !ok {
			return nil, fmt.Errorf("comment %d on post %d: %w", inReplyTo, postID, mod.ErrNotFound)
		}
	}
	b.idGen++
	c := &mod.Comment{
		Id:        b.idGen,
		PostId:    postID,
		Content:   content,
		Owner:     owner,
		CreatedAt: s.now(),
		Status:    status,
	}
	b.comments = append(b.comments, c)
	log.Debug().Int64("post", postID).Int64("comment", c.Id).Str("status", string(status)).Msg("comment added")
	return c.Clone(), nil
}

func searchIndex(data []*mod.Comment, id int64) (int, bool) {
	for i, c := range data {
		if c.Id == id {
			return i, true
		}
	}
	return -1, false
}

func (s *InMemoryStore) GetComment(ctx context.Context, postID, commentID int64) (*mod.Comment, error) {
	b, ok := s.lookup(postID)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	if b.post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	i, ok := searchIndex(b.comments, commentID)
	if !ok {
		return nil, fmt.Errorf("comment %d on post %d: %w", commentID, postID, mod.ErrNotFound)
	}
	return b.comments[i].Clone(), nil
}

// ListComments fails with ErrPostNotFound once the post is deleted. Orphaned
// lists are only served by ListAllComments.
func (s *InMemoryStore) ListComments(ctx context.Context, postID int64) ([]*mod.Comment, error) {
	b, ok := s.lookup(postID)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	if b.post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrPostNotFound)
	}
	return cloneComments(b.comments), nil
}

// ListAllComments returns every comment list, including those of deleted posts.
func (s *InMemoryStore) ListAllComments(ctx context.Context) (map[int64][]*mod.Comment, error) {
	ids, bs := s.snapshot()
	res := make(map[int64][]*mod.Comment, len(ids))
	for i, b := range bs {
		b.m.Lock()
		if len(b.comments) > 0 {
			res[ids[i]] = cloneComments(b.comments)
		}
		b.m.Unlock()
	}
	return res, nil
}

func (s *InMemoryStore) UpdateComment(ctx context.Context, postID, commentID int64, requester, content string, status mod.Status) (*mod.Comment, error) {
	b, ok := s.lookup(postID)
	if !ok {
		return nil, fmt.Errorf("post %d: %w", postID, mod.ErrNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	i, ok := searchIndex(b.comments, commentID)
	if b.post == nil || !ok {
		return nil, fmt.Errorf("comment %d on post %d: %w", commentID, postID, mod.ErrNotFound)
	}
	c := b.comments[i]
	if c.Owner != requester {
		return nil, fmt.Errorf("comment %d owned by another user: %w", commentID, mod.ErrForbidden)
	}
	c.Content = content
	c.Status = status
	return c.Clone(), nil
}

func (s *InMemoryStore) DeleteComment(ctx context.Context, postID, commentID int64, requester string) error {
	b, ok := s.lookup(postID)
	if !ok {
		return fmt.Errorf("post %d: %w", postID, mod.ErrNotFound)
	}
	b.m.Lock()
	defer b.m.Unlock()
	i, ok := searchIndex(b.comments, commentID)
	if b.post == nil || !ok {
		return fmt.Errorf("comment %d on post %d: %w", commentID, postID, mod.ErrNotFound)
	}
	if b.comments[i].Owner != requester {
		return fmt.Errorf("comment %d owned by another user: %w", commentID, mod.ErrForbidden)
	}
	b.comments = append(b.comments[:i], b.comments[i+1:]...)
	return nil
}

func cloneComments(src []*mod.Comment) []*mod.Comment {
	res := make([]*mod.Comment, len(src))
	for i, c := range src {
		res[i] = c.Clone()
	}
	return res
}
