package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xlab/closer"

	"github.com/mi-raf/comment-moderation/internal/api"
	"github.com/mi-raf/comment-moderation/internal/auth"
	"github.com/mi-raf/comment-moderation/internal/database"
	"github.com/mi-raf/comment-moderation/internal/moderation"
	"github.com/mi-raf/comment-moderation/internal/oracle"
	"github.com/mi-raf/comment-moderation/internal/scheduler"
)

func main() {

	defer closer.Close()

	closer.Bind(func() {
		log.Info().Msg("shutdown")
	})

	cfg, err := initConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Can't init config")
	}

	if err := initLogger(cfg); err != nil {
		log.Fatal().Err(err).Msg("Can't init logger")
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	closer.Bind(cancelCtx)

	a, cleanup, err := initApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Can't init app")
	}
	closer.Bind(cleanup)
	closer.Bind(a.Close)
	if err := a.Start(); err != nil {
		log.Fatal().Err(err).Msg("Can't start app")
	}

}

func initLogger(c *config) error {
	log.Debug().Msg("init logger")
	logLvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(logLvl)
	switch c.LogFmt {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	case "json":
	default:
		return fmt.Errorf("unknown output format %s", c.LogFmt)

	}
	return nil
}

func initOracle(ctx context.Context, cfg *config) (moderation.Oracle, error) {
	switch cfg.OracleBackend {
	case "keyword":
		log.Info().Int("words", len(cfg.BadWords)).Msg("using keyword oracle")
		return oracle.NewKeywordOracle(cfg.BadWords), nil
	case "gemini":
		log.Info().Str("model", cfg.GeminiModel).Msg("using gemini oracle")
		return oracle.NewGeminiOracle(ctx, &oracle.GeminiConfig{
			APIKey:     cfg.GeminiApiKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: oracle.NewHTTPClient(cfg.OracleRetryMax, cfg.OracleTimeout),
		})
	default:
		return nil, fmt.Errorf("unknown oracle backend %s", cfg.OracleBackend)
	}
}

func initStore() *database.InMemoryStore {
	return database.NewInMemoryStore()
}

func initGenerator(o moderation.Oracle) scheduler.Generator {
	return o
}

func initGateConfig(cfg *config) *moderation.Config {
	return &moderation.Config{Timeout: cfg.OracleTimeout}
}

func initSchedulerConfig(cfg *config) *scheduler.Config {
	return &scheduler.Config{Timeout: cfg.OracleTimeout}
}

func initAuthConfig(cfg *config) *auth.Config {
	return &auth.Config{
		Secret:     []byte(cfg.JwtSecret),
		TokenTTL:   cfg.AccessTokenTTL,
		BcryptCost: cfg.BcryptCost,
	}
}

func initApiConfig(cfg *config) *api.Config {
	return &api.Config{Listen: cfg.Listen, ShutdownTimeout: cfg.ShutdownTimeout}
}
