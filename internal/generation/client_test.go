package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestClient_GenerateContent(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Great week!"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL}, server.Client(), testLogger())

	result := client.GenerateContent(context.Background(), "How did I do?", "You are a coach.")

	if !result.OK() {
		t.Fatalf("Expected success, got %+v", result)
	}
	if result.Text != "Great week!" {
		t.Errorf("Text = %q, want %q", result.Text, "Great week!")
	}
	if gotPath != "/models/"+DefaultModel+":generateContent" {
		t.Errorf("Path = %s", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("key = %q, want secret", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "How did I do?" {
		t.Errorf("Unexpected contents: %+v", gotBody.Contents)
	}
	if gotBody.SystemInstruction.Parts[0].Text != "You are a coach." {
		t.Errorf("Unexpected system instruction: %+v", gotBody.SystemInstruction)
	}

	raw, _ := json.Marshal(result)
	if string(raw) != `{"text":"Great week!"}` {
		t.Errorf("JSON = %s", raw)
	}
}

func TestClient_ProviderStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL}, server.Client(), testLogger())
	result := client.GenerateContent(context.Background(), "p", "s")

	if result.Error != "Failed to call Gemini API. Status: 503" {
		t.Errorf("Error = %q", result.Error)
	}
	if result.Failure != FailureProvider {
		t.Errorf("Failure = %v, want FailureProvider", result.Failure)
	}

	raw, _ := json.Marshal(result)
	if string(raw) != `{"error":"Failed to call Gemini API. Status: 503"}` {
		t.Errorf("JSON = %s", raw)
	}
}

func TestClient_NoAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, server.Client(), testLogger())
	result := client.GenerateContent(context.Background(), "p", "s")

	if result.Error != MsgNotConfigured {
		t.Errorf("Error = %q, want %q", result.Error, MsgNotConfigured)
	}
	if result.Failure != FailureNotConfigured {
		t.Errorf("Failure = %v, want FailureNotConfigured", result.Failure)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("Expected zero network calls, got %d", n)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"no candidates", `{"candidates":[]}`, "candidates[0]"},
		{"no content", `{"candidates":[{}]}`, "candidates[0].content"},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`, "candidates[0].content.parts[0]"},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, "candidates[0].content.parts[0].text"},
		{"blocked prompt", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "candidates[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, server.Client(), testLogger())
			result := client.GenerateContent(context.Background(), "p", "s")

			if result.Error != MsgNoText {
				t.Errorf("Error = %q, want %q", result.Error, MsgNoText)
			}
			if result.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", result.Detail, tt.wantDetail)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Timeout: 50 * time.Millisecond}, server.Client(), testLogger())
	result := client.GenerateContent(context.Background(), "p", "s")

	if !strings.HasPrefix(result.Error, "Failed to call Gemini API: ") {
		t.Errorf("Error = %q", result.Error)
	}
	if strings.Contains(result.Error, "secret") {
		t.Errorf("Error leaks the API key: %q", result.Error)
	}
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText([]byte(`{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}},{"content":{"parts":[{"text":"c"}]}}]}`))
	if err != nil {
		t.Fatalf("ExtractText() failed: %v", err)
	}
	if text != "a" {
		t.Errorf("text = %q, want a", text)
	}

	_, err = ExtractText([]byte(`{"candidates":[{}]}`))
	if !errors.Is(err, ErrMissingPart) {
		t.Errorf("Expected ErrMissingPart, got %v", err)
	}

	_, err = ExtractText([]byte(`not json`))
	if err == nil || errors.Is(err, ErrMissingPart) {
		t.Errorf("Expected decode error, got %v", err)
	}
}
