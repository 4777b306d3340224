// Package metrics defines the Prometheus collectors exported by the vault.
// Collectors are registered on the default registry and served via promhttp
// on the configured metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssued counts token derivations that resulted in a store upsert,
	// labeled by PII category. Includes upserts that were no-ops because the
	// token already existed (the store does not report which).
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "tokens_issued_total",
		Help:      "Token derivations upserted into the token store, by PII category.",
	}, []string{"category"})

	// DetokenizeLookups counts tokens submitted to the store for resolution.
	DetokenizeLookups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "detokenize_lookups_total",
		Help:      "Tokens looked up during detokenization.",
	})

	// DetokenizeMisses counts looked-up tokens with no stored mapping.
	// Unknown tokens are left verbatim, so a miss is not an error.
	DetokenizeMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "detokenize_misses_total",
		Help:      "Detokenization lookups that found no stored mapping.",
	})

	// RelayRequests counts secure relay executions by outcome
	// (ok, tokenize_error, provider_error, detokenize_error).
	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "relay_requests_total",
		Help:      "Secure relay pipeline executions by outcome.",
	}, []string{"outcome"})

	// RelayDuration observes end-to-end relay latency. The external
	// completion call dominates, so buckets reach into the tens of seconds.
	RelayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vaultgate",
		Name:      "relay_duration_seconds",
		Help:      "End-to-end secure relay duration.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	// TokenCacheHits and TokenCacheMisses track the read-through token cache.
	TokenCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "token_cache_hits_total",
		Help:      "Token resolutions served from the cache.",
	})

	TokenCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vaultgate",
		Name:      "token_cache_misses_total",
		Help:      "Token resolutions that fell through to the store.",
	})
)
