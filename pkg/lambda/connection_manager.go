package lambda

import (
	"context"
	"sync"

	"activity-log-api/internal/config"
	"activity-log-api/pkg/server"
)

// ConnectionManager keeps one service container alive across warm Lambda invocations
type ConnectionManager struct {
	container *server.Container
	mu        sync.RWMutex
	initOnce  sync.Once
	initErr   error
	load      func() (*config.Config, error)
	build     func(context.Context, *config.Config) (*server.Container, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(config.GetOptimizedConfig, server.NewContainer)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager that builds its container lazily
func NewConnectionManager(load func() (*config.Config, error), build func(context.Context, *config.Config) (*server.Container, error)) *ConnectionManager {
	return &ConnectionManager{load: load, build: build}
}

// GetContainer returns the service container, building it on first use.
// A failed build is remembered; the function must be restarted to retry.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.initOnce.Do(func() {
		cfg, err := cm.load()
		if err != nil {
			cm.initErr = err
			return
		}

		container, err := cm.build(ctx, cfg)
		if err != nil {
			cm.initErr = err
			return
		}

		cm.mu.Lock()
		cm.container = container
		cm.mu.Unlock()
	})

	if cm.initErr != nil {
		return nil, cm.initErr
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.container, nil
}

// Cleanup closes the container's connections. Later calls to GetContainer
// return nil until the process restarts.
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		if err := cm.container.Close(); err != nil {
			return err
		}
		cm.container = nil
	}

	return nil
}
