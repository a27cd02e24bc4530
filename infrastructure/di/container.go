// Package di wires the application dependencies with google/wire.
package di

import (
	"go.uber.org/zap"

	"familytree-backend/application/ports"
	"familytree-backend/application/services"
	"familytree-backend/infrastructure/config"
	"familytree-backend/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	TreeStore    ports.TreeStore
	TreeService  *services.TreeService
	JWTValidator *auth.JWTValidator
}
