// Package rates looks up currency exchange rates with a session memory
// cache backed by a durable cache entry valid for 24 hours.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable means the rates could not be fetched and no valid cached
// entry exists. Callers degrade to unconverted amounts.
var ErrUnavailable = errors.New("exchange rates unavailable")

const cacheTTL = 24 * time.Hour

// Cache is the durable backing for rate entries.
type Cache interface {
	Get(key string, out any) (bool, error)
	Set(key string, v any) error
}

type cachedRates struct {
	Date  time.Time          `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Service resolves base-currency → multiplier tables.
type Service struct {
	baseURL string
	client  *http.Client
	cache   Cache
	now     func() time.Time

	mu  sync.Mutex
	mem map[string]map[string]float64
}

func NewService(baseURL string, cache Cache) *Service {
	return &Service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		now:     time.Now,
		mem:     make(map[string]map[string]float64),
	}
}

// Rates returns the multiplier table for base. Lookup order: session
// memory, durable cache (valid 24h from its stamp), network.
func (s *Service) Rates(ctx context.Context, base string) (map[string]float64, error) {
	s.mu.Lock()
	if rates, ok := s.mem[base]; ok {
		s.mu.Unlock()
		return rates, nil
	}
	s.mu.Unlock()

	key := "rates_" + base

	var cached cachedRates

	found, err := s.cache.Get(key, &cached)
	if err != nil {
		slog.Error("reading cached rates", "base", base, "error", err)
	} else if found && s.now().Sub(cached.Date) < cacheTTL {
		s.remember(base, cached.Rates)
		return cached.Rates, nil
	}

	fresh, err := s.fetch(ctx, base)
	if err != nil {
		slog.Error("exchange rate fetch failed", "base", base, "error", err)
		return nil, ErrUnavailable
	}

	s.remember(base, fresh)

	if err := s.cache.Set(key, cachedRates{Date: s.now(), Rates: fresh}); err != nil {
		slog.Error("caching rates", "base", base, "error", err)
	}

	return fresh, nil
}

func (s *Service) remember(base string, rates map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem[base] = rates
}

func (s *Service) fetch(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/latest/%s", s.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	if len(body.Rates) == 0 {
		return nil, errors.New("rates response contained no rates")
	}

	return body.Rates, nil
}
