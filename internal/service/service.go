package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Dan9191/outbreak-estimator/internal/config"
	"github.com/Dan9191/outbreak-estimator/internal/metrics"
	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/Dan9191/outbreak-estimator/internal/repository"
	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

const (
	cacheKeyPrefix = "estimate:"
	alertQueueSize = 64
)

// Notifier delivers capacity alerts
type Notifier interface {
	SendCapacityAlert(to, region string, deficit int64, days int) error
}

type capacityAlert struct {
	region  string
	deficit int64
	days    int
}

// Service handles business logic
type Service struct {
	cache    repository.Cache
	notifier Notifier
	alerts   chan capacityAlert
	metrics  *metrics.Registry
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service. cache and notifier may be nil.
// Capacity alerts are only delivered while RunAlerts is running.
func NewService(cache repository.Cache, notifier Notifier, m *metrics.Registry, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		cache:    cache,
		notifier: notifier,
		alerts:   make(chan capacityAlert, alertQueueSize),
		metrics:  m,
		log:      log,
		config:   cfg,
	}
}

// Estimate runs the estimation for input, serving repeated inputs from the cache
// when one is configured. A failing cache never fails the estimation.
func (s *Service) Estimate(ctx context.Context, input *models.EstimationInput) (*models.EstimationResult, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}

	key, err := cacheKey(input)
	if err != nil {
		return nil, err
	}

	if result, ok := s.cached(ctx, key); ok {
		return result, nil
	}

	result, err := Estimate(input)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, result)
	s.alertOnDeficit(result)

	return result, nil
}

func (s *Service) cached(ctx context.Context, key string) (*models.EstimationResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok := s.cache.Get(ctx, key)
	s.metrics.IncCacheLookup(ok)
	if !ok {
		return nil, false
	}

	var result models.EstimationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.log.Warnf("Discarding unreadable cache entry %s: %v", key, err)
		return nil, false
	}
	return &result, true
}

func (s *Service) store(ctx context.Context, key string, result *models.EstimationResult) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Warnf("Failed to encode result for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.config.CacheTTL); err != nil {
		s.log.Warnf("Failed to cache estimate %s: %v", key, err)
	}
}

// alertOnDeficit queues a capacity alert when the severe projection runs out of
// hospital beds. Alerts are dropped while the queue is full.
func (s *Service) alertOnDeficit(result *models.EstimationResult) {
	deficit := result.SevereImpact.HospitalBedsByRequestedTime
	if s.notifier == nil || !s.config.AlertsEnabled() || deficit >= 0 {
		return
	}

	var region string
	if result.Data.Region != nil {
		region = result.Data.Region.Name
	}
	alert := capacityAlert{
		region:  region,
		deficit: deficit,
		days:    DaysElapsed(result.Data.PeriodType, *result.Data.TimeToElapse),
	}

	select {
	case s.alerts <- alert:
	default:
		s.log.Warnf("Alert queue full, dropping capacity alert for %q", region)
	}
}

// RunAlerts delivers queued capacity alerts one at a time until ctx is cancelled,
// then sends whatever is still queued and returns.
func (s *Service) RunAlerts(ctx context.Context) error {
	for {
		select {
		case alert := <-s.alerts:
			s.deliver(alert)
		case <-ctx.Done():
			for {
				select {
				case alert := <-s.alerts:
					s.deliver(alert)
				default:
					return nil
				}
			}
		}
	}
}

func (s *Service) deliver(alert capacityAlert) {
	if err := s.notifier.SendCapacityAlert(s.config.AlertEmail, alert.region, alert.deficit, alert.days); err != nil {
		s.log.Errorf("Capacity alert for %q not delivered: %v", alert.region, err)
	}
}

// cacheKey hashes the canonical JSON encoding of input
func cacheKey(input *models.EstimationInput) (string, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode input: %w", err)
	}
	return cacheKeyPrefix + strconv.FormatUint(xxhash.Sum64(raw), 16), nil
}
