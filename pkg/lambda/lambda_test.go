package lambda

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"activity-log-api/internal/config"
	"activity-log-api/pkg/server"
)

func TestConnectionManager_BuildsOnce(t *testing.T) {
	loads, builds := 0, 0
	cm := NewConnectionManager(
		func() (*config.Config, error) {
			loads++
			return &config.Config{}, nil
		},
		func(ctx context.Context, cfg *config.Config) (*server.Container, error) {
			builds++
			return &server.Container{Config: cfg}, nil
		},
	)

	first, err := cm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	second, _ := cm.GetContainer(context.Background())

	if first != second {
		t.Error("expected the same container on warm invocations")
	}
	if loads != 1 || builds != 1 {
		t.Errorf("loads = %d, builds = %d, want 1 and 1", loads, builds)
	}
}

func TestConnectionManager_RemembersFailure(t *testing.T) {
	builds := 0
	cm := NewConnectionManager(
		func() (*config.Config, error) { return &config.Config{}, nil },
		func(ctx context.Context, cfg *config.Config) (*server.Container, error) {
			builds++
			return nil, errors.New("store unreachable")
		},
	)

	for i := 0; i < 2; i++ {
		if _, err := cm.GetContainer(context.Background()); err == nil {
			t.Fatal("expected an error")
		}
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
}

func TestConnectionManager_Cleanup(t *testing.T) {
	cm := NewConnectionManager(
		func() (*config.Config, error) { return &config.Config{}, nil },
		func(ctx context.Context, cfg *config.Config) (*server.Container, error) {
			return &server.Container{Config: cfg}, nil
		},
	)

	if _, err := cm.GetContainer(context.Background()); err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	if err := cm.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	container, err := cm.GetContainer(context.Background())
	if err != nil || container != nil {
		t.Errorf("after Cleanup got container = %v, err = %v", container, err)
	}
}

func TestFromAPIGateway(t *testing.T) {
	body := `{"action":"getData"}`

	tests := []struct {
		name  string
		event events.APIGatewayProxyRequest
	}{
		{
			name: "plain body",
			event: events.APIGatewayProxyRequest{
				HTTPMethod: "post",
				Path:       "/.netlify/functions/api",
				Headers:    map[string]string{"content-type": "application/json"},
				Body:       body,
			},
		},
		{
			name: "base64 body",
			event: events.APIGatewayProxyRequest{
				HTTPMethod:      "POST",
				Path:            "/.netlify/functions/api",
				Headers:         map[string]string{"Content-Type": "application/json"},
				Body:            base64.StdEncoding.EncodeToString([]byte(body)),
				IsBase64Encoded: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.RequestContext.RequestID = "req-1"

			req := FromAPIGateway(tt.event)

			if req.Method != http.MethodPost {
				t.Errorf("Method = %s", req.Method)
			}
			if string(req.Body) != body {
				t.Errorf("Body = %s", req.Body)
			}
			if req.RequestID != "req-1" {
				t.Errorf("RequestID = %s", req.RequestID)
			}
			if got := req.Header("Content-Type"); got != "application/json" {
				t.Errorf("Header(Content-Type) = %q", got)
			}
		})
	}
}

func TestInternalError(t *testing.T) {
	resp := InternalError("Internal server error").ToAPIGateway()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Body != `{"error":"Internal server error"}` {
		t.Errorf("Body = %s", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %s", resp.Headers["Content-Type"])
	}
}
