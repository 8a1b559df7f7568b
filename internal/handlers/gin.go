package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"activity-log-api/internal/middleware"
	"activity-log-api/internal/models"
	"activity-log-api/pkg/lambda"
)

// GinHandler adapts the dispatcher to a gin route
//
// @Summary Dispatch an action
// @Description Runs the action named in the body: getData, updateDay, addWeek, getWeeklyInsights or getMonthlyInsights.
// @Tags actions
// @Accept json
// @Produce json
// @Param body body object true "Action payload, e.g. {\"action\":\"getData\"}"
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorBody
// @Failure 405 {string} string "Method Not Allowed"
// @Failure 500 {object} models.ErrorBody
// @Router /api [post]
func (d *Dispatcher) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			// Answered from the method alone; the body is never read.
			d.respond(c, toRequest(c, nil))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusRequestEntityTooLarge, models.ErrorBody{Error: msgBodyTooLarge})
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorBody{Error: err.Error()})
			return
		}

		d.respond(c, toRequest(c, body))
	}
}

func (d *Dispatcher) respond(c *gin.Context, req *lambda.Request) {
	resp, err := d.Handle(c.Request.Context(), req)
	if err != nil {
		resp = lambda.InternalError(msgInternal)
	}

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
}

func toRequest(c *gin.Context, body []byte) *lambda.Request {
	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	query := c.Request.URL.Query()
	params := make(map[string]string, len(query))
	for k := range query {
		params[k] = query.Get(k)
	}

	return &lambda.Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Headers:     headers,
		QueryParams: params,
		Body:        body,
		RequestID:   c.GetString(middleware.RequestIDKey),
	}
}
