package router

import (
	"github.com/shresth2708/edu-api/internal/application"
	"github.com/shresth2708/edu-api/internal/container"
	pginfra "github.com/shresth2708/edu-api/internal/infrastructure/postgres"
	handlers "github.com/shresth2708/edu-api/internal/interface/http"
	"github.com/shresth2708/edu-api/internal/router/modules"
)

// InitModules wires repositories, services and handlers from the container
// singletons and registers every feature module. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	users := pginfra.NewUserRepository(container.GetPGPool())
	tokens := pginfra.NewRefreshTokenRepository(container.GetPGPool())

	authSvc := &application.AuthService{
		Users:        users,
		Tokens:       tokens,
		Cache:        container.GetCache(),
		JWT:          container.GetJWT(),
		Logger:       container.GetLogger(),
		Pub:          container.GetRabbitPub(),
		MailEnabled:  cfg.MailSendEnabled,
		ES:           container.GetES(),
		ESUsersIndex: cfg.ESUsersIndex,
	}
	userSvc := &application.UserService{
		Users:        users,
		GCS:          container.GetGCS(),
		GCSBucket:    cfg.GCSBucket,
		Logger:       container.GetLogger(),
		ES:           container.GetES(),
		ESUsersIndex: cfg.ESUsersIndex,
	}

	authHandler := handlers.NewAuthHandler(authSvc, container.GetLogger())
	userHandler := handlers.NewUserHandler(userSvc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewUserModule(userHandler, authSvc))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
