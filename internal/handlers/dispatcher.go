package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"activity-log-api/internal/models"
	"activity-log-api/internal/observability"
	"activity-log-api/internal/repositories"
	"activity-log-api/internal/services"
	"activity-log-api/pkg/lambda"
	"activity-log-api/pkg/server"
)

// Actions understood by the dispatcher
const (
	ActionGetData            = "getData"
	ActionUpdateDay          = "updateDay"
	ActionAddWeek            = "addWeek"
	ActionGetWeeklyInsights  = "getWeeklyInsights"
	ActionGetMonthlyInsights = "getMonthlyInsights"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Options configures a Dispatcher
type Options struct {
	// Strict switches malformed JSON to 400 and provider failures to 502/503
	Strict       bool
	MaxBodyBytes int64
	Logger       *logrus.Logger
}

// Dispatcher routes a single POST body to the action named in its "action" field
type Dispatcher struct {
	activity     services.ActivityService
	insight      services.InsightService
	strict       bool
	maxBodyBytes int64
	logger       *logrus.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(activity services.ActivityService, insight services.InsightService, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		activity:     activity,
		insight:      insight,
		strict:       opts.Strict,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logger,
	}
}

// NewDispatcherFromContainer wires a dispatcher to the container's services and settings
func NewDispatcherFromContainer(c *server.Container) *Dispatcher {
	return NewDispatcher(c.ActivityService, c.InsightService, Options{
		Strict:       c.Config.IsStrict(),
		MaxBodyBytes: c.Config.MaxBodyBytes,
		Logger:       c.Logger,
	})
}

// Handle answers one request. It never returns a Go error for request-level
// failures: every outcome, including a recovered panic, is a Response.
func (d *Dispatcher) Handle(ctx context.Context, req *lambda.Request) (resp *lambda.Response, err error) {
	start := time.Now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = req.Header("X-Request-ID")
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	var action string
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"action":     action,
				"panic":      fmt.Sprint(r),
			}).Error("Recovered from panic in action handler")
			resp = jsonError(http.StatusInternalServerError, msgInternal)
			err = nil
		}
		setCommonHeaders(resp, requestID)
		d.logRequest(requestID, action, resp.StatusCode, time.Since(start))
	}()

	return d.dispatch(ctx, req, &action), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req *lambda.Request, action *string) *lambda.Response {
	if req.Method == http.MethodOptions {
		return &lambda.Response{StatusCode: http.StatusNoContent, Headers: map[string]string{}}
	}
	if req.Method != http.MethodPost {
		return textResponse(http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
	if d.maxBodyBytes > 0 && int64(len(req.Body)) > d.maxBodyBytes {
		return jsonError(http.StatusRequestEntityTooLarge, msgBodyTooLarge)
	}

	var raw interface{}
	if err := json.Unmarshal(req.Body, &raw); err != nil {
		status := http.StatusInternalServerError
		if d.strict {
			status = http.StatusBadRequest
		}
		return jsonError(status, fmt.Sprintf("invalid JSON body: %v", err))
	}

	// A body that is not an object, or whose action is not a string, names no action
	if obj, ok := raw.(map[string]interface{}); ok {
		*action, _ = obj["action"].(string)
	}

	switch *action {
	case ActionGetData:
		return d.getData(ctx)
	case ActionUpdateDay:
		return d.updateDay(ctx, req.Body)
	case ActionAddWeek:
		return d.addWeek(ctx, req.Body)
	case ActionGetWeeklyInsights, ActionGetMonthlyInsights:
		return d.getInsights(ctx, req.Body)
	default:
		return textResponse(http.StatusBadRequest, msgUnknownAction)
	}
}

func (d *Dispatcher) getData(ctx context.Context) *lambda.Response {
	entries, err := d.activity.GetData(ctx)
	if err != nil {
		return d.errorResponse(err)
	}
	if entries == nil {
		entries = []*models.ActivityLogEntry{}
	}
	return jsonResponse(http.StatusOK, entries)
}

func (d *Dispatcher) updateDay(ctx context.Context, body []byte) *lambda.Response {
	var req services.UpdateDayRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return d.errorResponse(decodeError(err))
	}
	if err := d.activity.UpdateDay(ctx, &req); err != nil {
		return d.errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.SuccessStatus)
}

func (d *Dispatcher) addWeek(ctx context.Context, body []byte) *lambda.Response {
	var req services.AddWeekRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return d.errorResponse(decodeError(err))
	}
	if err := d.activity.AddWeek(ctx, &req); err != nil {
		return d.errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.SuccessStatus)
}

func (d *Dispatcher) getInsights(ctx context.Context, body []byte) *lambda.Response {
	var req services.InsightRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return d.errorResponse(decodeError(err))
	}
	result, err := d.insight.GetInsights(ctx, &req)
	if err != nil {
		return d.errorResponse(err)
	}
	return jsonResponse(generationStatus(result, d.strict), result)
}

func (d *Dispatcher) errorResponse(err error) *lambda.Response {
	status := errorStatus(err)
	switch {
	case status < http.StatusInternalServerError:
	case repositories.IsRemote(err):
		d.logger.WithError(err).Error("Store rejected request")
	default:
		d.logger.WithError(err).Error("Action failed")
	}
	return jsonError(status, err.Error())
}

func (d *Dispatcher) logRequest(requestID, action string, status int, latency time.Duration) {
	observability.RecordRequest(metricAction(action), status, latency)

	fields := logrus.Fields{
		"request_id":  requestID,
		"action":      action,
		"status_code": status,
		"latency_ms":  float64(latency.Nanoseconds()) / 1000000,
	}
	switch {
	case status >= 500:
		d.logger.WithFields(fields).Error("Request failed")
	case status >= 400:
		d.logger.WithFields(fields).Warn("Request rejected")
	default:
		d.logger.WithFields(fields).Info("Request completed")
	}
}

// metricAction keeps the metrics label set bounded
func metricAction(action string) string {
	switch action {
	case "", ActionGetData, ActionUpdateDay, ActionAddWeek, ActionGetWeeklyInsights, ActionGetMonthlyInsights:
		return action
	default:
		return "unknown"
	}
}

func jsonResponse(status int, payload interface{}) *lambda.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return lambda.InternalError(msgInternal)
	}
	return &lambda.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		Body:       body,
	}
}

func jsonError(status int, message string) *lambda.Response {
	return jsonResponse(status, models.ErrorBody{Error: message})
}

func textResponse(status int, message string) *lambda.Response {
	return &lambda.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeText},
		Body:       []byte(message),
	}
}

func setCommonHeaders(resp *lambda.Response, requestID string) {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if _, ok := resp.Headers["Content-Type"]; !ok {
		resp.Headers["Content-Type"] = contentTypeText
	}
	resp.Headers["Access-Control-Allow-Origin"] = "*"
	resp.Headers["Access-Control-Allow-Methods"] = "POST, OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Origin, Content-Type, Accept, Authorization, X-Request-ID"
	resp.Headers["X-Request-ID"] = requestID
}
