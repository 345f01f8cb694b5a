package models

import "time"

// AutoReplyBot is the reserved owner of comments written by the scheduler.
const (
	AutoReplyBot = "auto_reply_bot"
	// MaxAutoReplyDelay is one year, in minutes.
	MaxAutoReplyDelay = 525600
)

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

type (
	Status string

	Post struct {
		Id               int64     `json:"id"`
		Title            string    `json:"title"`
		Content          string    `json:"content"`
		Owner            string    `json:"owner"`
		CreatedAt        time.Time `json:"created_at" fake:"skip"`
		AutoReplyEnabled bool      `json:"auto_reply_enabled"`
		// AutoReplyDelay is in minutes, fractions allowed.
		AutoReplyDelay *float64 `json:"auto_reply_delay" fake:"skip"`
	}

	// PostUpdate carries a partial post update, nil fields are left as is.
	PostUpdate struct {
		Title   *string
		Content *string
	}

	Comment struct {
		Id        int64     `json:"id"`
		PostId    int64     `json:"post_id"`
		Content   string    `json:"content"`
		Owner     string    `json:"owner"`
		CreatedAt time.Time `json:"created_at" fake:"skip"`
		Status    Status    `json:"status"`
	}

	DailyBreakdown struct {
		Date         string `json:"date"`
		CreatedCount int    `json:"created_count"`
		BlockedCount int    `json:"blocked_count"`
	}

	User struct {
		Username     string
		Email        string
		PasswordHash []byte
	}
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusBlocked
}

func (p *Post) Clone() *Post {
	c := *p
	if p.AutoReplyDelay != nil {
		d := *p.AutoReplyDelay
		c.AutoReplyDelay = &d
	}
	return &c
}

func (c *Comment) Clone() *Comment {
	cc := *c
	return &cc
}
