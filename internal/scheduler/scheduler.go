package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mi-raf/comment-moderation/internal/models"
)

const (
	Scheduled State = iota
	Fired
	Suppressed
)

// MaxDelay is the longest whole-second delay a timer can hold.
const MaxDelay = time.Duration(math.MaxInt64/int64(time.Second)) * time.Second

var ErrClosed = errors.New("scheduler closed")

type (
	State int32

	Generator interface {
		Generate(ctx context.Context, postContent, commentContent string) (string, error)
	}

	Store interface {
		GetPost(ctx context.Context, id int64) (*models.Post, error)
		GetComment(ctx context.Context, postID, commentID int64) (*models.Comment, error)
		CreateReply(ctx context.Context, postID, inReplyTo int64, owner, content string, status models.Status) (*models.Comment, error)
	}

	Timer interface {
		Stop() bool
	}

	// AfterFunc arms f to run in its own goroutine after d.
	AfterFunc func(d time.Duration, f func()) Timer

	Config struct {
		// Timeout bounds a single Generate call.
		Timeout   time.Duration
		AfterFunc AfterFunc
	}

	// Job is one delayed auto reply to a triggering comment.
	Job struct {
		PostID    int64
		CommentID int64
		Delay     time.Duration

		state atomic.Int32
		timer Timer
		done  chan struct{}
		reply *models.Comment
		cause error
	}

	Scheduler struct {
		ctx       context.Context
		store     Store
		gen       Generator
		timeout   time.Duration
		afterFunc AfterFunc

		m       sync.Mutex
		pending map[*Job]struct{}
		closed  bool
		wg      sync.WaitGroup
	}
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Fired:
		return "fired"
	case Suppressed:
		return "suppressed"
	}
	return "unknown"
}

func (j *Job) State() State {
	return State(j.state.Load())
}

// Done is closed once the job left the Scheduled state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Reply is the bot comment of a fired job. Valid after Done.
func (j *Job) Reply() *models.Comment {
	return j.reply
}

// Err is the reason a job was suppressed. Valid after Done.
func (j *Job) Err() error {
	return j.cause
}

// ReplyDelay converts fractional minutes to a delay truncated to whole seconds,
// saturating at MaxDelay.
func ReplyDelay(minutes float64) time.Duration {
	if minutes <= 0 {
		return 0
	}
	secs := minutes * 60
	if secs >= float64(MaxDelay/time.Second) {
		return MaxDelay
	}
	return time.Duration(int64(secs)) * time.Second
}

func timeAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func New(ctx context.Context, store Store, gen Generator, cfg *Config) (*Scheduler, func()) {
	af := cfg.AfterFunc
	if af == nil {
		af = timeAfterFunc
	}
	s := &Scheduler{
		ctx:       ctx,
		store:     store,
		gen:       gen,
		timeout:   cfg.Timeout,
		afterFunc: af,
		pending:   make(map[*Job]struct{}),
	}
	return s, s.Close
}

// Schedule arms an auto reply when comment is active and post has auto reply
// enabled with a delay. It never blocks on the reply itself.
func (s *Scheduler) Schedule(post *models.Post, comment *models.Comment) (*Job, bool) {
	if comment.Status != models.StatusActive || !post.AutoReplyEnabled || post.AutoReplyDelay == nil {
		return nil, false
	}
	j := &Job{
		PostID:    post.Id,
		CommentID: comment.Id,
		Delay:     ReplyDelay(*post.AutoReplyDelay),
		done:      make(chan struct{}),
	}

	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return nil, false
	}
	s.pending[j] = struct{}{}
	s.wg.Add(1)
	pendingJobs.Inc()
	j.timer = s.afterFunc(j.Delay, func() { s.fire(j) })
	log.Debug().Int64("post", j.PostID).Int64("comment", j.CommentID).Dur("delay", j.Delay).Msg("auto reply scheduled")
	return j, true
}

func (s *Scheduler) fire(j *Job) {
	s.m.Lock()
	if _, ok := s.pending[j]; !ok {
		s.m.Unlock()
		return
	}
	delete(s.pending, j)
	s.m.Unlock()
	pendingJobs.Dec()
	defer s.wg.Done()

	logger := log.With().Int64("post", j.PostID).Int64("comment", j.CommentID).Logger()

	post, err := s.store.GetPost(s.ctx, j.PostID)
	if err != nil {
		logger.Debug().Err(err).Msg("auto reply suppressed, post is gone")
		s.finish(j, Suppressed, nil, err)
		return
	}
	comment, err := s.store.GetComment(s.ctx, j.PostID, j.CommentID)
	if err != nil {
		logger.Debug().Err(err).Msg("auto reply suppressed, comment is gone")
		s.finish(j, Suppressed, nil, err)
		return
	}

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.gen.Generate(ctx, post.Content, comment.Content)
	if err != nil {
		logger.Error().Err(err).Msg("auto reply suppressed, can not generate reply")
		s.finish(j, Suppressed, nil, err)
		return
	}

	reply, err := s.store.CreateReply(s.ctx, j.PostID, j.CommentID, models.AutoReplyBot, text, models.StatusActive)
	if err != nil {
		logger.Debug().Err(err).Msg("auto reply suppressed, target vanished while generating")
		s.finish(j, Suppressed, nil, err)
		return
	}
	logger.Info().Int64("reply", reply.Id).Msg("auto reply posted")
	s.finish(j, Fired, reply, nil)
}

func (s *Scheduler) finish(j *Job, st State, reply *models.Comment, cause error) {
	j.reply = reply
	j.cause = cause
	j.state.Store(int32(st))
	jobOutcomes.WithLabelValues(st.String()).Inc()
	close(j.done)
}

// Wait blocks until no job is pending or firing.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close suppresses pending jobs and waits for the ones already firing.
func (s *Scheduler) Close() {
	s.m.Lock()
	s.closed = true
	for j := range s.pending {
		delete(s.pending, j)
		j.timer.Stop()
		pendingJobs.Dec()
		s.finish(j, Suppressed, nil, ErrClosed)
		s.wg.Done()
	}
	s.m.Unlock()
	s.wg.Wait()
	log.Debug().Msg("auto reply scheduler stopped")
}
