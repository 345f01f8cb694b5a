//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/mi-raf/comment-moderation/internal/api"
	"github.com/mi-raf/comment-moderation/internal/auth"
	"github.com/mi-raf/comment-moderation/internal/database"
	"github.com/mi-raf/comment-moderation/internal/moderation"
	"github.com/mi-raf/comment-moderation/internal/scheduler"
	"github.com/mi-raf/comment-moderation/internal/service"
	"github.com/mi-raf/comment-moderation/internal/stats"
)

func initApp(ctx context.Context, cfg *config) (a *api.API, closer func(), err error) {
	wire.Build(
		initStore,
		wire.Bind(new(database.PostRepository), new(*database.InMemoryStore)),
		wire.Bind(new(database.CommentRepository), new(*database.InMemoryStore)),
		wire.Bind(new(scheduler.Store), new(*database.InMemoryStore)),
		wire.Bind(new(stats.CommentSource), new(*database.InMemoryStore)),
		database.NewInMemoryUserRepository,
		wire.Bind(new(database.UserRepository), new(*database.InMemoryUserRepository)),
		initOracle,
		initGenerator,
		initGateConfig,
		moderation.NewGate,
		wire.Bind(new(service.Moderator), new(*moderation.Gate)),
		initSchedulerConfig,
		scheduler.New,
		wire.Bind(new(service.AutoReplier), new(*scheduler.Scheduler)),
		initAuthConfig,
		auth.NewService,
		service.NewPostService,
		service.NewCommentService,
		stats.NewAggregator,
		api.NewResolver,
		initApiConfig,
		api.NewApi,
	)
	return nil, nil, nil
}
