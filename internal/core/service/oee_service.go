package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/core/domain"
	"github.com/warehub/stocktrack/internal/port"
)

const (
	minQuality = 80
	maxQuality = 100

	DefaultHistoryHours = 24
)

// QualityProvider supplies the quality sub-score for a SKU, in [80,100].
// The default is a fixed value so scores stay deterministic; a real
// measurement source can be plugged in without touching the engine.
type QualityProvider interface {
	Quality(ctx context.Context, sku string) float64
}

// StaticQuality returns a fixed quality input, clamped to the valid range.
type StaticQuality struct {
	Value float64
}

func (q StaticQuality) Quality(context.Context, string) float64 {
	switch {
	case q.Value < minQuality:
		return minQuality
	case q.Value > maxQuality:
		return maxQuality
	default:
		return q.Value
	}
}

// OEEService computes availability * performance * quality per SKU from
// the current record and the rolling sales aggregate. It reads state, never
// mutates it, and is independent of the mutation path.
type OEEService struct {
	repo                port.InventoryRepository
	sales               port.SalesRepository
	cache               port.ScoreCache
	quality             QualityProvider
	expectedHourlySales int64
	log                 *zap.Logger
}

func NewOEEService(
	repo port.InventoryRepository,
	sales port.SalesRepository,
	cache port.ScoreCache,
	quality QualityProvider,
	expectedHourlySales int64,
	log *zap.Logger,
) *OEEService {
	if expectedHourlySales <= 0 {
		expectedHourlySales = 5
	}
	return &OEEService{
		repo:                repo,
		sales:               sales,
		cache:               cache,
		quality:             quality,
		expectedHourlySales: expectedHourlySales,
		log:                 log,
	}
}

// Score returns the current efficiency score for one SKU, serving a
// cached value when fresh enough.
func (s *OEEService) Score(ctx context.Context, sku string) (*domain.EfficiencyScore, error) {
	if cached, err := s.cache.Get(ctx, sku); err == nil && cached != nil {
		return cached, nil
	}

	product, err := s.repo.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}

	score := s.scoreProduct(ctx, product, time.Now().UTC())
	if err := s.cache.Set(ctx, *score); err != nil {
		s.log.Warn("score cache write failed", zap.String("sku", sku), zap.Error(err))
	}
	return score, nil
}

// ScoreAll computes a fresh score for every known SKU.
func (s *OEEService) ScoreAll(ctx context.Context) ([]domain.ScoredProduct, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("score all: %w", err)
	}

	now := time.Now().UTC()
	scored := make([]domain.ScoredProduct, 0, len(products))
	for i := range products {
		score := s.scoreProduct(ctx, &products[i], now)
		if err := s.cache.Set(ctx, *score); err != nil {
			s.log.Warn("score cache write failed", zap.String("sku", products[i].SKU), zap.Error(err))
		}
		scored = append(scored, domain.ScoredProduct{Product: products[i], OEE: *score})
	}
	return scored, nil
}

// History returns exactly hours points in chronological order, one per
// hour bucket. Performance comes from that hour's sales bucket (zero once
// expired); availability and quality reflect the current record, so the
// series is fully deterministic.
func (s *OEEService) History(ctx context.Context, sku string, hours int) ([]domain.EfficiencyScore, error) {
	if hours <= 0 {
		hours = DefaultHistoryHours
	}

	product, err := s.repo.GetProduct(ctx, sku)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	points := make([]domain.EfficiencyScore, 0, hours)
	for i := hours - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * time.Hour)
		points = append(points, *s.scoreProduct(ctx, product, at))
	}
	return points, nil
}

func (s *OEEService) scoreProduct(ctx context.Context, p *domain.Product, at time.Time) *domain.EfficiencyScore {
	sold, err := s.sales.SalesForHour(ctx, p.SKU, at)
	if err != nil {
		s.log.Warn("sales read failed, assuming zero", zap.String("sku", p.SKU), zap.Error(err))
		sold = 0
	}

	var availability float64
	if p.MaxCapacity > 0 {
		availability = float64(p.Quantity) / float64(p.MaxCapacity) * 100
	}

	performance := float64(sold) / float64(s.expectedHourlySales) * 100
	if performance > 100 {
		performance = 100
	}

	quality := s.quality.Quality(ctx, p.SKU)
	overall := availability * performance * quality / 10000

	return &domain.EfficiencyScore{
		SKU:          p.SKU,
		Availability: round2(availability),
		Performance:  round2(performance),
		Quality:      round2(quality),
		Overall:      round2(overall),
		Timestamp:    at,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
