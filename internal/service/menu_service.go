package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/pricing"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuService serves the priced menu read model. Raw catalog rows are
// cached in Redis; prices are resolved per request because they depend
// on the clock.
type MenuService struct {
	store    *store.Store
	redis    *redisclient.Client
	resolver *pricing.Resolver
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewMenuService creates a new menu service
func NewMenuService(
	store *store.Store,
	redis *redisclient.Client,
	resolver *pricing.Resolver,
	cacheTTL time.Duration,
) *MenuService {
	return &MenuService{
		store:    store,
		redis:    redis,
		resolver: resolver,
		logger:   util.GetLogger(),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// MenuItem is one product with its currently-applicable price
type MenuItem struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	HappyHour    bool            `json:"happy_hour"`
}

// Menu is a tenant's resolved menu at one instant
type Menu struct {
	RestaurantName  string     `json:"restaurant_name,omitempty"`
	HappyHourActive bool       `json:"happy_hour_active"`
	Items           []MenuItem `json:"items"`
	ResolvedAt      time.Time  `json:"resolved_at"`
}

// GetMenu returns the tenant's active products priced at this instant.
// Requires the digital menu feature.
func (s *MenuService) GetMenu(ctx context.Context, userID string) (*Menu, error) {
	ctx, span := util.StartSpan(ctx, "MenuService.GetMenu")
	defer span.End()

	profile, err := s.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if err := requireFeature(profile, FeatureDigitalMenu); err != nil {
		return nil, err
	}

	products, err := s.loadCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window := pricing.WindowFromProfile(profile)

	menu := &Menu{
		RestaurantName:  profile.RestaurantName.String,
		HappyHourActive: s.resolver.IsWithinWindow(window, now),
		Items:           make([]MenuItem, 0, len(products)),
		ResolvedAt:      now,
	}

	for i := range products {
		p := &products[i]
		resolved := s.resolver.Resolve(p, window, now)
		menu.Items = append(menu.Items, MenuItem{
			ProductID:    p.ID,
			Name:         p.Name,
			DisplayName:  s.resolver.DisplayName(p, window, now),
			Description:  p.Description.String,
			Category:     p.Category.String,
			UnitPrice:    resolved.UnitPrice,
			RegularPrice: p.Price,
			HappyHour:    resolved.HappyHour,
		})
	}

	return menu, nil
}

// loadCatalog reads the tenant's active products, trying the Redis
// cache first. Cache failures fall back to the database.
func (s *MenuService) loadCatalog(ctx context.Context, userID string) ([]models.Product, error) {
	cached, err := s.redis.GetCachedMenu(ctx, userID)
	if err != nil {
		s.logger.Warn("Menu cache read failed", zap.String("user_id", userID), zap.Error(err))
	}
	if cached != nil {
		var products []models.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			util.MenuCacheHitsTotal.Inc()
			return products, nil
		}
		s.logger.Warn("Dropping corrupt menu cache entry", zap.String("user_id", userID))
		_ = s.redis.InvalidateMenu(ctx, userID)
	}

	util.MenuCacheMissesTotal.Inc()
	products, err := s.store.GetActiveProductsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := s.redis.CacheMenu(ctx, userID, payload, s.cacheTTL); err != nil {
			s.logger.Warn("Menu cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return products, nil
}
