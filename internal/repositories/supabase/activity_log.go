// Package supabase implements the activity log repository on top of the
// PostgREST API exposed by a hosted Supabase project.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"activity-log-api/internal/models"
	"activity-log-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// ActivityLogRepository talks to <url>/rest/v1/activity_log
type ActivityLogRepository struct {
	baseURL string
	key     string
	schema  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewActivityLogRepository creates a PostgREST-backed repository. An empty
// URL or key is accepted here and reported on first use.
func NewActivityLogRepository(cfg repositories.SupabaseConfig, client *http.Client, logger *logrus.Logger) *ActivityLogRepository {
	if logger == nil {
		logger = logrus.New()
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ActivityLogRepository{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		schema:  cfg.Schema,
		client:  client,
		logger:  logger,
	}
}

// SelectAllOrderedBy implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) SelectAllOrderedBy(ctx context.Context, field string, ascending bool) ([]*models.ActivityLogEntry, error) {
	if err := repositories.ValidateOrderField(field); err != nil {
		return nil, err
	}

	direction := "desc"
	if ascending {
		direction = "asc"
	}
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", field+"."+direction)

	body, err := r.do(ctx, "select", http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}

	var entries []*models.ActivityLogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, repositories.NewRepositoryError("select", models.ActivityLogTable, fmt.Errorf("decode response: %w", err))
	}
	if entries == nil {
		entries = []*models.ActivityLogEntry{}
	}
	return entries, nil
}

// UpdateWhere implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) UpdateWhere(ctx context.Context, match map[string]interface{}, changes map[string]interface{}) error {
	if err := repositories.ValidateMatch(match); err != nil {
		return err
	}
	if err := repositories.ValidateChanges(changes); err != nil {
		return err
	}

	query := url.Values{}
	for column, value := range match {
		query.Set(column, "eq."+fmt.Sprint(value))
	}

	_, err := r.do(ctx, "update", http.MethodPatch, query, changes)
	return err
}

// InsertMany implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) InsertMany(ctx context.Context, rows []*models.ActivityLogEntry) error {
	if len(rows) == 0 {
		return repositories.InvalidQueryError("insert", models.ActivityLogTable, "no rows")
	}

	_, err := r.do(ctx, "insert", http.MethodPost, nil, rows)
	return err
}

// Close implements repositories.ActivityLogRepository
func (r *ActivityLogRepository) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// postgrestError is the error body PostgREST returns on rejected requests
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (r *ActivityLogRepository) do(ctx context.Context, op, method string, query url.Values, payload interface{}) ([]byte, error) {
	if r.baseURL == "" {
		return nil, repositories.NotConfiguredError(op, models.ActivityLogTable, "SUPABASE_URL")
	}
	if r.key == "" {
		return nil, repositories.NotConfiguredError(op, models.ActivityLogTable, "SUPABASE_ANON_KEY")
	}

	endpoint := r.baseURL + "/rest/v1/" + models.ActivityLogTable
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, repositories.NewRepositoryError(op, models.ActivityLogTable, fmt.Errorf("encode payload: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, repositories.NewRepositoryError(op, models.ActivityLogTable, err)
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}
	if r.schema != "" {
		if method == http.MethodGet {
			req.Header.Set("Accept-Profile", r.schema)
		} else {
			req.Header.Set("Content-Profile", r.schema)
		}
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		r.logRequest(op, method, 0, duration, err)
		return nil, repositories.ConnectionError(op, models.ActivityLogTable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.logRequest(op, method, resp.StatusCode, duration, err)
		return nil, repositories.ConnectionError(op, models.ActivityLogTable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pgErr postgrestError
		_ = json.Unmarshal(body, &pgErr)
		remoteErr := repositories.RemoteError(op, models.ActivityLogTable, resp.StatusCode, pgErr.Message)
		r.logRequest(op, method, resp.StatusCode, duration, remoteErr)
		return nil, remoteErr
	}

	r.logRequest(op, method, resp.StatusCode, duration, nil)
	return body, nil
}

func (r *ActivityLogRepository) logRequest(op, method string, status int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation":   op,
		"table":       models.ActivityLogTable,
		"method":      method,
		"status_code": status,
		"duration":    duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Store request failed")
	} else {
		r.logger.WithFields(fields).Debug("Store request executed")
	}
}
