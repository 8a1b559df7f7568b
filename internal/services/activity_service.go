package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"activity-log-api/internal/models"
	"activity-log-api/internal/observability"
	"activity-log-api/internal/repositories"
)

// activityService implements the ActivityService interface
type activityService struct {
	repo      repositories.ActivityLogRepository
	columns   *models.ColumnAllowList
	timeout   time.Duration
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewActivityService creates a new activity service instance
func NewActivityService(repo repositories.ActivityLogRepository, columns *models.ColumnAllowList, timeout time.Duration, logger *logrus.Logger) ActivityService {
	if columns == nil {
		columns = models.DefaultColumnAllowList()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &activityService{
		repo:      repo,
		columns:   columns,
		timeout:   timeout,
		validator: newValidator(),
		logger:    logger,
	}
}

// GetData returns all entries ordered by week
func (s *activityService) GetData(ctx context.Context) ([]*models.ActivityLogEntry, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	start := time.Now()
	entries, err := s.repo.SelectAllOrderedBy(ctx, models.ColumnWeekNumber, true)
	observability.RecordStoreOperation("select", err, time.Since(start))
	if err != nil {
		// Store errors are returned unwrapped: callers surface their message as-is.
		return nil, err
	}

	return entries, nil
}

// UpdateDay sets req.Column to req.Value on the matching entry
func (s *activityService) UpdateDay(ctx context.Context, req *UpdateDayRequest) error {
	if req == nil {
		return fmt.Errorf("update day request cannot be nil")
	}

	if err := validateStruct(s.validator, req); err != nil {
		return err
	}
	if err := s.columns.Validate(req.Column); err != nil {
		return err
	}

	value, err := decodeValue(req.Value)
	if err != nil {
		return &models.ValidationError{Field: "value", Message: "value is invalid"}
	}

	match := map[string]interface{}{
		models.ColumnWeekNumber: *req.WeekNumber,
		models.ColumnDayOfWeek:  *req.DayOfWeek,
	}
	changes := map[string]interface{}{req.Column: value}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	start := time.Now()
	err = s.repo.UpdateWhere(ctx, match, changes)
	observability.RecordStoreOperation("update", err, time.Since(start))
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"week_number": *req.WeekNumber,
		"day_of_week": req.DayOfWeek.String(),
		"column":      req.Column,
	}).Info("Activity day updated")
	return nil
}

// AddWeek stamps every day of the plan with the new week number and inserts
// them in one call. Any week_number already in a day is discarded unparsed.
// Repeating it duplicates the week.
func (s *activityService) AddWeek(ctx context.Context, req *AddWeekRequest) error {
	if req == nil {
		return fmt.Errorf("add week request cannot be nil")
	}

	if err := validateStruct(s.validator, req); err != nil {
		return err
	}

	rows := make([]*models.ActivityLogEntry, 0, len(req.InitialPlan))
	for i, day := range req.InitialPlan {
		field := fmt.Sprintf("initialPlan[%d]", i)
		if day == nil {
			return models.MissingField(field)
		}
		entry, err := models.EntryFromColumns(day, models.ColumnWeekNumber)
		if err != nil {
			return &models.ValidationError{Field: field, Message: field + " is invalid"}
		}
		if !entry.HasDayOfWeek() {
			return models.MissingField(field + ".day_of_week")
		}
		rows = append(rows, entry.WithWeek(*req.NewWeekNumber))
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	start := time.Now()
	err := s.repo.InsertMany(ctx, rows)
	observability.RecordStoreOperation("insert", err, time.Since(start))
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"week_number": *req.NewWeekNumber,
		"days":        len(rows),
	}).Info("Activity week added")
	return nil
}

func (s *activityService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// decodeValue turns the raw update value into a plain Go value, keeping
// numbers as json.Number so they reach the store unchanged.
func decodeValue(raw json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
