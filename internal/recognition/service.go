// Package recognition orchestrates the logo identification pipeline:
// throttle check, budget check, cache lookup, provider fallback chain,
// and write-through caching of successful results.
//
// Concurrent requests for the same uncached image are not deduplicated;
// each racer calls a provider and is charged. The cache only deduplicates
// across time, which is where nearly all the savings are.
package recognition

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/4ier/logodeth/internal/cost"
	"github.com/4ier/logodeth/internal/fingerprint"
	"github.com/4ier/logodeth/internal/provider"
	"github.com/4ier/logodeth/pkg/models"
)

// ResultCache is the slice of the cache the service depends on.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (*models.CacheEntry, bool)
	Set(ctx context.Context, fingerprint string, result models.RecognitionResult, params map[string]string) bool
	ClearAll(ctx context.Context) int
	Stats(ctx context.Context) models.CacheStats
	HealthCheck(ctx context.Context) bool
}

// RateLimiter admits or rejects a request for an identifier.
type RateLimiter interface {
	Check(identifier string) (allowed bool, retryAfter int)
}

// CostTracker records spend and enforces budget ceilings.
type CostTracker interface {
	Record(model, identifier string)
	Usage(identifier string) cost.Usage
	WithinBudget(identifier string, dailyLimit, monthlyLimit float64) (bool, string)
}

// Service composes the recognition pipeline.
type Service struct {
	cache        ResultCache
	limiter      RateLimiter
	tracker      CostTracker
	providers    []provider.Client
	dailyLimit   float64
	monthlyLimit float64
	now          func() time.Time
}

// NewService creates the recognition orchestrator. Providers are tried in
// the given order; unconfigured ones are skipped.
func NewService(cache ResultCache, limiter RateLimiter, tracker CostTracker, providers []provider.Client, dailyLimit, monthlyLimit float64) *Service {
	return &Service{
		cache:        cache,
		limiter:      limiter,
		tracker:      tracker,
		providers:    providers,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		now:          time.Now,
	}
}

// Identify runs the full pipeline for one uploaded image. It returns a
// typed rejection (*ThrottledError, *BudgetExceededError), the cached or
// freshly computed result, ErrNoProviderAvailable when the chain is
// effectively empty, or the last provider error when all attempts failed.
func (s *Service) Identify(ctx context.Context, data []byte, filename, clientID string) (*models.RecognitionResult, error) {
	if allowed, retryAfter := s.limiter.Check(clientID); !allowed {
		return nil, &ThrottledError{RetryAfter: retryAfter}
	}

	if ok, reason := s.tracker.WithinBudget(clientID, s.dailyLimit, s.monthlyLimit); !ok {
		return nil, &BudgetExceededError{Reason: reason}
	}

	fp := fingerprint.Compute(data)

	if entry, ok := s.cache.Get(ctx, fp); ok {
		log.Printf("recognition: cache hit for %s (%s)", fp, filename)
		result := entry.Result
		result.Cached = true
		return &result, nil
	}
	log.Printf("recognition: cache miss for %s (%s), calling providers", fp, filename)

	base64Image := base64.StdEncoding.EncodeToString(data)

	var lastErr error
	for _, p := range s.providers {
		if !p.Configured() {
			log.Printf("recognition: provider %s not configured, skipping", p.Name())
			continue
		}

		log.Printf("recognition: attempting %s (%s)", p.Name(), p.ModelID())
		id, err := p.Identify(ctx, base64Image)
		if err != nil {
			log.Printf("recognition: provider %s failed: %v", p.Name(), err)
			lastErr = err
			continue
		}

		result := &models.RecognitionResult{
			BandName:    id.BandName,
			Confidence:  id.Confidence,
			Genre:       id.Genre,
			Description: id.Description,
			AIModel:     p.ModelID(),
			Cached:      false,
			Timestamp:   s.now(),
		}
		result.ClampConfidence()

		s.tracker.Record(p.ModelID(), clientID)
		s.cache.Set(ctx, fp, *result, nil)
		return result, nil
	}

	if lastErr == nil {
		return nil, ErrNoProviderAvailable
	}
	return nil, fmt.Errorf("recognition: all providers failed: %w", lastErr)
}

// LookupCached returns a previously cached result by fingerprint.
func (s *Service) LookupCached(ctx context.Context, fp string) (*models.RecognitionResult, bool) {
	entry, ok := s.cache.Get(ctx, fp)
	if !ok {
		return nil, false
	}
	result := entry.Result
	result.Cached = true
	return &result, true
}

// UsageStats reports current spend for an identifier.
func (s *Service) UsageStats(identifier string) models.UsageStats {
	u := s.tracker.Usage(identifier)
	return models.UsageStats{
		DailyCost:        u.DailyCost,
		MonthlyCost:      u.MonthlyCost,
		DailyRequests:    u.DailyRequests,
		ProjectedMonthly: u.ProjectedMonthly,
	}
}

// ClearCache drops every cached recognition entry and returns the count.
func (s *Service) ClearCache(ctx context.Context) int {
	return s.cache.ClearAll(ctx)
}

// CacheStats returns a best-effort cache summary.
func (s *Service) CacheStats(ctx context.Context) models.CacheStats {
	return s.cache.Stats(ctx)
}

// CacheHealthy reports backing-store reachability for health checks.
func (s *Service) CacheHealthy(ctx context.Context) bool {
	return s.cache.HealthCheck(ctx)
}

// Providers describes the configured fallback chain for health reporting.
func (s *Service) Providers() []models.ProviderInfo {
	infos := make([]models.ProviderInfo, 0, len(s.providers))
	for _, p := range s.providers {
		infos = append(infos, models.ProviderInfo{
			Name:       p.Name(),
			Model:      p.ModelID(),
			Configured: p.Configured(),
		})
	}
	return infos
}
