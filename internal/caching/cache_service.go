package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockmaster/internal/models"
)

type CacheService interface {
	// Pricing configuration caching
	GetPricing(ctx context.Context) (*models.PricingConfig, error)
	SetPricing(ctx context.Context, pricing *models.PricingConfig, ttl time.Duration) error
	InvalidatePricing(ctx context.Context) error

	// Session snapshot caching (resolved user + company + entitlement)
	GetSessionSnapshot(ctx context.Context, userID string, dst interface{}) (bool, error)
	SetSessionSnapshot(ctx context.Context, userID string, snapshot interface{}, ttl time.Duration) error
	DeleteSessionSnapshot(ctx context.Context, userID string) error

	// Tenant-level invalidation
	InvalidateCompany(ctx context.Context, companyID string) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port URLs as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetPricing(ctx context.Context) (*models.PricingConfig, error) {
	data, err := r.client.Get(ctx, "stockmaster:pricing").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var pricing models.PricingConfig
	if err := json.Unmarshal(data, &pricing); err != nil {
		return nil, err
	}
	return &pricing, nil
}

func (r *redisCacheService) SetPricing(ctx context.Context, pricing *models.PricingConfig, ttl time.Duration) error {
	data, err := json.Marshal(pricing)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "stockmaster:pricing", data, ttl).Err()
}

func (r *redisCacheService) InvalidatePricing(ctx context.Context) error {
	return r.client.Del(ctx, "stockmaster:pricing").Err()
}

func (r *redisCacheService) GetSessionSnapshot(ctx context.Context, userID string, dst interface{}) (bool, error) {
	key := fmt.Sprintf("stockmaster:session:%s", userID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetSessionSnapshot(ctx context.Context, userID string, snapshot interface{}, ttl time.Duration) error {
	key := fmt.Sprintf("stockmaster:session:%s", userID)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteSessionSnapshot(ctx context.Context, userID string) error {
	key := fmt.Sprintf("stockmaster:session:%s", userID)
	return r.client.Del(ctx, key).Err()
}

// InvalidateCompany drops every cached session snapshot belonging to the
// tenant. Per-tenant data volumes are small enough that refetching
// everything is cheaper than tracking what changed.
func (r *redisCacheService) InvalidateCompany(ctx context.Context, companyID string) error {
	pattern := "stockmaster:session:*"
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	// Snapshots embed the company id; rather than parse each payload we drop
	// them all. Sessions repopulate on their next resolve.
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
