package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"activity-log-api/internal/generation"
)

// insightService implements the InsightService interface
type insightService struct {
	generator TextGenerator
	validator *validator.Validate
}

// NewInsightService creates a new insight service instance
func NewInsightService(generator TextGenerator) InsightService {
	return &insightService{
		generator: generator,
		validator: newValidator(),
	}
}

// GetInsights forwards the prompt pair to the generator. Weekly and monthly
// insights are the same call; only the caller's prompt differs.
func (s *insightService) GetInsights(ctx context.Context, req *InsightRequest) (generation.Result, error) {
	if req == nil {
		return generation.Result{}, fmt.Errorf("insight request cannot be nil")
	}

	if err := validateStruct(s.validator, req); err != nil {
		return generation.Result{}, err
	}

	return s.generator.GenerateContent(ctx, *req.Prompt, *req.SystemPrompt), nil
}
