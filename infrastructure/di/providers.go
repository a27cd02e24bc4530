package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"familytree-backend/application/ports"
	"familytree-backend/application/services"
	"familytree-backend/infrastructure/config"
	"familytree-backend/infrastructure/persistence/dynamodb"
	"familytree-backend/infrastructure/persistence/memory"
	"familytree-backend/pkg/auth"
)

// ProvideLogLevel creates the atomic log level shared between the logger and
// the config watcher.
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		level.SetLevel(lvl)
	}
	return level
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideTreeStore creates the snapshot store, in-memory when configured so
// for local development.
func ProvideTreeStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TreeStore {
	if cfg.UseMemoryStore {
		logger.Info("using in-memory tree store")
		return memory.NewTreeStore()
	}
	return dynamodb.NewTreeStore(client, cfg.DynamoDBTable, logger)
}

// ProvideTreeService creates the tree application service
func ProvideTreeService(store ports.TreeStore, cfg *config.Config, logger *zap.Logger) *services.TreeService {
	return services.NewTreeService(store, logger, cfg.SaveDelay)
}

// ProvideJWTValidator creates the JWT validator used by the auth middleware
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}
