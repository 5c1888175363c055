package http

import (
	"github.com/iams-api/internal/application/asset"
	"github.com/iams-api/internal/application/notification"
	"github.com/iams-api/internal/application/warranty"
	jwtinfra "github.com/iams-api/internal/infrastructure/jwt"
)

// TokenVerifier is the minimal interface the router requires from the JWT provider.
type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds the services the router wires into handlers.
type Deps struct {
	Notifications notification.Service
	Registry      *notification.Registry
	Assets        asset.Service
	Warranty      warranty.Service
	Tokens        TokenVerifier
}
