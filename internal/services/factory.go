package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	ActivityService ActivityService
	InsightService  InsightService
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	// UpdatableColumns is the updateDay allow-list; empty means the defaults
	UpdatableColumns []string

	// StoreTimeout bounds each store call; zero leaves it to the caller's context
	StoreTimeout time.Duration

	Logger *logrus.Logger
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(repo repositories.ActivityLogRepository, generator TextGenerator, config *ServiceConfig) (*ServiceContainer, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity log repository cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("text generator cannot be nil")
	}

	if config == nil {
		config = &ServiceConfig{}
	}

	columns := models.DefaultColumnAllowList()
	if len(config.UpdatableColumns) > 0 {
		var err error
		columns, err = models.NewColumnAllowList(config.UpdatableColumns)
		if err != nil {
			return nil, fmt.Errorf("failed to build column allow-list: %w", err)
		}
	}

	if config.Logger != nil {
		config.Logger.WithField("columns", columns.Columns()).Debug("Updatable columns")
	}

	return &ServiceContainer{
		ActivityService: NewActivityService(repo, columns, config.StoreTimeout, config.Logger),
		InsightService:  NewInsightService(generator),
	}, nil
}
