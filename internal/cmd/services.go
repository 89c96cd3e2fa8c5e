package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"

	"github.com/chirpd/microblog/internal/auth"
	"github.com/chirpd/microblog/internal/posts"
	"github.com/chirpd/microblog/internal/social"
	"github.com/chirpd/microblog/internal/users"
)

type Services struct {
	Users  *users.Service
	Social *social.Service
	Posts  *posts.Service

	UsersApp *users.App
	Tokens   *auth.TokenService
}

func setupServices(database *sql.DB, clock clockwork.Clock, cfg *Config) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	tokens := auth.NewTokenService([]byte(cfg.Auth.TokenSecret), clock)

	// Users
	userRepo := users.NewRepository(database)
	userApp := users.NewApp(userRepo)
	userService := users.NewService(userApp, tokens)

	// Social graph
	socialRepo := social.NewRepository(database)
	socialApp := social.NewApp(socialRepo, userApp)
	socialService := social.NewService(socialApp)

	// Posts
	postRepo := posts.NewRepository(database)
	postApp := posts.NewApp(postRepo, clock)
	postService := posts.NewService(postApp)

	return &Services{
		Users:    userService,
		Social:   socialService,
		Posts:    postService,
		UsersApp: userApp,
		Tokens:   tokens,
	}
}
