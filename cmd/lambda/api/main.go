package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"activity-log-api/internal/handlers"
	"activity-log-api/pkg/lambda"
)

var (
	connections = lambda.GetConnectionManager()

	dispatcher     *handlers.Dispatcher
	dispatcherOnce sync.Once
)

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	container, err := connections.GetContainer(ctx)
	if err != nil || container == nil {
		logrus.WithError(err).Error("Failed to initialize container")
		return lambda.InternalError("Internal server error").ToAPIGateway(), nil
	}

	dispatcherOnce.Do(func() {
		dispatcher = handlers.NewDispatcherFromContainer(container)
	})

	resp, err := dispatcher.Handle(ctx, lambda.FromAPIGateway(event))
	if err != nil {
		resp = lambda.InternalError("Internal server error")
	}

	return resp.ToAPIGateway(), nil
}

func main() {
	// Release pooled store connections when the runtime shuts the sandbox down
	awslambda.StartWithOptions(handler, awslambda.WithEnableSIGTERM(func() {
		if err := connections.Cleanup(); err != nil {
			logrus.WithError(err).Warn("Failed to close store connections")
		}
	}))
}
