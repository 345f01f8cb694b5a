package moderation

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/mi-raf/comment-moderation/internal/models"
)

const activeToken = "Active"

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_moderation_verdict_count",
	Help: "Number of moderation verdicts, by status and whether the oracle failed",
}, []string{"status", "oracle_failed"})

type (
	// Oracle is the language model behind moderation and auto replies.
	Oracle interface {
		Classify(ctx context.Context, text string) (string, error)
		Generate(ctx context.Context, postContent, commentContent string) (string, error)
	}

	Config struct {
		Timeout time.Duration
	}

	// Gate turns free text oracle answers into a comment status. It fails
	// closed: an unreachable oracle blocks.
	Gate struct {
		o       Oracle
		timeout time.Duration
	}
)

func NewGate(o Oracle, cfg *Config) *Gate {
	return &Gate{o: o, timeout: cfg.Timeout}
}

// ParseVerdict is active only if raw holds the exact token "Active".
func ParseVerdict(raw string) models.Status {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, t := range tokens {
		if t == activeToken {
			return models.StatusActive
		}
	}
	return models.StatusBlocked
}

func (g *Gate) Evaluate(ctx context.Context, text string) models.Status {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	raw, err := g.o.Classify(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("classification failed, blocking comment")
		verdictCount.WithLabelValues(string(models.StatusBlocked), "true").Inc()
		return models.StatusBlocked
	}
	status := ParseVerdict(raw)
	log.Debug().Str("raw", raw).Str("status", string(status)).Msg("comment classified")
	verdictCount.WithLabelValues(string(status), "false").Inc()
	return status
}
