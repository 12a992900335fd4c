package analytics

import (
	"context"

	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
)

type AnalyticsService interface {
	// RecordEvent logs a product analytics event and counts it.
	RecordEvent(ctx context.Context, req *EventRequest) error

	// RecordWebVital logs a browser performance measurement and observes it.
	RecordWebVital(ctx context.Context, req *WebVitalRequest) error
}

type analyticsService struct {
	logger  *log.Logger
	metrics *Metrics
}

func NewAnalyticsService(logger *log.Logger, metrics *Metrics) AnalyticsService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &analyticsService{logger: logger, metrics: metrics}
}

func (s *analyticsService) RecordEvent(ctx context.Context, req *EventRequest) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil || req.Event == "" {
		return apperrors.NewInvalidRequestError("event is required", nil)
	}

	logger.Info("Analytics event",
		"event", req.Event,
		"url", req.URL,
		"referrer", req.Referrer,
		"client_timestamp", req.Timestamp,
		"properties", len(req.Properties),
	)
	s.metrics.RecordEvent(req.Event)

	return nil
}

func (s *analyticsService) RecordWebVital(ctx context.Context, req *WebVitalRequest) error {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil || req.Value == nil || *req.Value < 0 {
		return apperrors.NewInvalidRequestError("web vital value is required", nil)
	}

	logger.Info("Web vital",
		"name", req.Name,
		"value", *req.Value,
		"rating", req.Rating,
		"id", req.ID,
		"navigation_type", req.NavigationType,
		"url", req.URL,
	)
	s.metrics.ObserveWebVital(req.Name, req.Rating, *req.Value)

	return nil
}
