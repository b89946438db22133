// Package models defines the core data structures used across LOGODETH.
package models

import "time"

// RecognitionResult is the identification produced for an uploaded logo.
// Cached is set by the recognition service, never by a provider: results
// coming straight from a provider always carry Cached=false.
type RecognitionResult struct {
	BandName       string    `json:"band_name"`
	Confidence     float64   `json:"confidence"` // 0-100
	Genre          string    `json:"genre,omitempty"`
	Description    string    `json:"description,omitempty"`
	AIModel        string    `json:"ai_model"`
	Cached         bool      `json:"cached"`
	ProcessingTime float64   `json:"processing_time"` // seconds
	Timestamp      time.Time `json:"timestamp"`
}

// ClampConfidence forces Confidence into the [0,100] range.
func (r *RecognitionResult) ClampConfidence() {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 100 {
		r.Confidence = 100
	}
}

// CacheEntry wraps a RecognitionResult with cache metadata. Entries are
// written once per fingerprint after a successful provider call and expire
// via the store's TTL, not application logic.
type CacheEntry struct {
	Fingerprint string            `json:"fingerprint"`
	Result      RecognitionResult `json:"result"`
	CachedAt    time.Time         `json:"cached_at"`
	TTLSeconds  int               `json:"ttl_seconds"`
	Params      map[string]string `json:"params,omitempty"`
}

// UsageStats summarizes an identifier's spend for the current periods.
// ProjectedMonthly is a linear daily*30 projection, not a forecast.
type UsageStats struct {
	DailyCost        float64 `json:"daily_cost"`
	MonthlyCost      float64 `json:"monthly_cost"`
	DailyRequests    int     `json:"daily_requests"`
	ProjectedMonthly float64 `json:"projected_monthly"`
}

// CacheStats is a best-effort summary of the cache namespace.
type CacheStats struct {
	TotalKeys    int   `json:"total_keys"`
	OldestAgeSec int64 `json:"oldest_age_seconds"`
	NewestAgeSec int64 `json:"newest_age_seconds"`
}

// ProviderInfo describes a configured provider for health reporting.
type ProviderInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}
