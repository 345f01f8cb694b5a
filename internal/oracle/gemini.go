package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/mi-raf/comment-moderation/internal/models"
)

const (
	classifyPrompt = `Imagine that you are a filter of foul language and insults.
If there is something here that falls under bad words, please write 'Blocked', if not, write 'Active'.

Comment to check:
%s`

	replyPrompt = `Create and return only one comment, using context of post and previous user comment.

Post:
%s

Previous user comment:
%s
`
)

type (
	GeminiConfig struct {
		APIKey string
		Model  string
		// BaseURL overrides the API endpoint, empty means the public one.
		BaseURL    string
		HTTPClient *http.Client
	}

	GeminiOracle struct {
		client *genai.Client
		model  string
	}
)

func NewGeminiOracle(ctx context.Context, cfg *GeminiConfig) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiOracle{client: client, model: cfg.Model}, nil
}

func (o *GeminiOracle) Classify(ctx context.Context, text string) (string, error) {
	return o.ask(ctx, "classify", fmt.Sprintf(classifyPrompt, text))
}

func (o *GeminiOracle) Generate(ctx context.Context, postContent, commentContent string) (string, error) {
	return o.ask(ctx, "generate", fmt.Sprintf(replyPrompt, postContent, commentContent))
}

func (o *GeminiOracle) ask(ctx context.Context, op, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		oracleCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	result, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), nil)
	if err != nil {
		oracleCallCount.WithLabelValues(op, "error").Inc()
		log.Error().Err(err).Str("op", op).Str("model", o.model).Msg("oracle call failed")
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrOracleFailure, err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		oracleCallCount.WithLabelValues(op, "empty").Inc()
		return "", fmt.Errorf("%s: %w: empty response", op, models.ErrOracleFailure)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	oracleCallCount.WithLabelValues(op, "ok").Inc()
	return strings.TrimSpace(sb.String()), nil
}
