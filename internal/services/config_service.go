package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"stockmaster/internal/caching"
	"stockmaster/internal/models"
	"stockmaster/internal/repositories"
)

var ErrUnknownConfigKey = fmt.Errorf("unknown configuration key")

const pricingCacheTTL = 10 * time.Minute

// ConfigService serves runtime business configuration. Pricing reads are
// cached; any row missing from system_configs falls back to the seeded
// default so the pricing page never renders empty.
type ConfigService interface {
	Pricing(ctx context.Context) (*models.PricingConfig, error)
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, key, value string) error
}

type configService struct {
	repo  repositories.SystemConfigRepository
	cache caching.CacheService
}

func NewConfigService(repo repositories.SystemConfigRepository, cache caching.CacheService) ConfigService {
	return &configService{repo: repo, cache: cache}
}

func (s *configService) Pricing(ctx context.Context) (*models.PricingConfig, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetPricing(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load system configs: %w", err)
	}

	pricing := models.DefaultPricing()
	if v, ok := rows[models.ConfigPriceGrowthMonthly]; ok {
		pricing.GrowthMonthly = v
	}
	if v, ok := rows[models.ConfigPriceGrowthYearly]; ok {
		pricing.GrowthYearly = v
	}
	if v, ok := rows[models.ConfigPriceProMonthly]; ok {
		pricing.ProMonthly = v
	}
	if v, ok := rows[models.ConfigPriceProYearly]; ok {
		pricing.ProYearly = v
	}
	if v, ok := rows[models.ConfigMomoNumber]; ok {
		pricing.MomoNumber = v
	}
	if v, ok := rows[models.ConfigManualUSSDCode]; ok {
		pricing.USSDCode = v
	}

	if s.cache != nil {
		if err := s.cache.SetPricing(ctx, &pricing, pricingCacheTTL); err != nil {
			log.Printf("WARN: failed to cache pricing: %v", err)
		}
	}
	return &pricing, nil
}

func (s *configService) All(ctx context.Context) (map[string]string, error) {
	return s.repo.GetAll(ctx)
}

func (s *configService) Update(ctx context.Context, key, value string) error {
	switch key {
	case models.ConfigPriceGrowthMonthly, models.ConfigPriceGrowthYearly,
		models.ConfigPriceProMonthly, models.ConfigPriceProYearly,
		models.ConfigMomoNumber, models.ConfigManualUSSDCode:
	default:
		return ErrUnknownConfigKey
	}

	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("failed to update config %s: %w", key, err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePricing(ctx); err != nil {
			log.Printf("WARN: failed to invalidate pricing cache: %v", err)
		}
	}
	return nil
}
