package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/config"
	"activity-log-api/internal/database"
	"activity-log-api/internal/generation"
	"activity-log-api/internal/repositories"
	"activity-log-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *logrus.Logger
	ActivityService services.ActivityService
	InsightService  services.InsightService

	// Internal dependencies
	repo repositories.ActivityLogRepository
}

// NewContainer opens the configured store and wires the services on top of it
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger := config.NewLogger(cfg)

	repo, err := database.NewStoreFactory(logger).NewActivityLogRepository(ctx, cfg.RepositoryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	generator := generation.NewClient(cfg.GenerationClientConfig(), nil, logger)

	container, err := NewContainerWith(cfg, logger, repo, generator)
	if err != nil {
		repo.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"store_driver":     cfg.Store.Driver,
		"error_convention": cfg.ErrorConvention,
		"deployment_mode":  config.GetDeploymentMode(),
	}).Info("Container initialized")

	return container, nil
}

// NewContainerWith wires the services around an existing repository and generator
func NewContainerWith(cfg *config.Config, logger *logrus.Logger, repo repositories.ActivityLogRepository, generator services.TextGenerator) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	serviceContainer, err := services.NewServiceContainer(repo, generator, &services.ServiceConfig{
		UpdatableColumns: cfg.UpdatableColumns,
		StoreTimeout:     cfg.Store.Timeout,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	return &Container{
		Config:          cfg,
		Logger:          logger,
		ActivityService: serviceContainer.ActivityService,
		InsightService:  serviceContainer.InsightService,
		repo:            repo,
	}, nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
	}

	return nil
}
