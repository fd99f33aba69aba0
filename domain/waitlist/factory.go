package waitlist

import (
	"github.com/akeren/waitlist-intake/config/router"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/factory"
	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController(route string) *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	store    WaitlistStore
	db       *gorm.DB
	logger   *log.Logger
	registry prometheus.Registerer
	limiters factory.RateLimiterFactory
	service  WaitlistService
}

// NewWaitlistServiceFactory builds the waitlist wiring. db may be nil, in
// which case submissions are only written to the CSV store.
func NewWaitlistServiceFactory(
	store WaitlistStore,
	db *gorm.DB,
	logger *log.Logger,
	registry prometheus.Registerer,
	limiters factory.RateLimiterFactory,
) *DefaultWaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		store:    store,
		db:       db,
		logger:   logger,
		registry: registry,
		limiters: limiters,
	}
}

// CreateService returns the same service on every call so the metrics and
// circuit breaker are shared.
func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	if f.service == nil {
		f.service = NewWaitlistService(f.logger, f.store, NewWaitlistMirror(f.db), f.registry)
	}
	return f.service
}

func (f *DefaultWaitlistServiceFactory) CreateController(route string) *router.RESTController {
	var limiter ratelimit.RateLimiter
	if f.limiters != nil {
		limiter = f.limiters.CreateRateLimiter()
	}
	return NewWaitlistController(route, f.CreateService(), limiter)
}
