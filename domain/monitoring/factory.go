package monitoring

import (
	"github.com/akeren/waitlist-intake/config/router"
	"github.com/akeren/waitlist-intake/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db      *gorm.DB
	logger  *log.Logger
	cache   Cache
	storage Storage
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache, storage Storage) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:      db,
		logger:  logger,
		cache:   cache,
		storage: storage,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.storage)
}
