package service

import (
	"context"
	"fmt"
	"time"

	"order-reconciliation/internal/analytics"
	"order-reconciliation/internal/repository"
)

type AnalyticsService interface {
	Summary(ctx context.Context) (*analytics.Summary, error)
}

type analyticsServiceImpl struct {
	orderRepo repository.OrderRepository
	loc       *time.Location
	now       func() time.Time
}

func NewAnalyticsService(orderRepo repository.OrderRepository, loc *time.Location) AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsServiceImpl{
		orderRepo: orderRepo,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *analyticsServiceImpl) Summary(ctx context.Context) (*analytics.Summary, error) {
	items, err := s.orderRepo.GetLineItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}

	summary := analytics.Summarize(items, s.now(), s.loc)
	return &summary, nil
}
