package waitlist

import (
	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/factory"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateControllers() []*router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db       *gorm.DB
	logger   *log.Logger
	limiters factory.RateLimiterFactory
	options  ControllerOptions
}

func NewWaitlistServiceFactory(
	db *gorm.DB,
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
	options ControllerOptions,
) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:       db,
		logger:   logger,
		limiters: limiters,
		options:  options,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return f.newService("")
}

// CreateControllers writes both routes to the same database. The test route tags
// its rows with the "test" source by default.
func (f *DefaultWaitlistServiceFactory) CreateControllers() []*router.RESTController {
	return []*router.RESTController{
		NewWaitlistController(f.CreateService(), f.limiters),
		NewWaitlistTestController(f.newService(testSource), f.limiters, f.options.EnableTestRoutes),
	}
}

func (f *DefaultWaitlistServiceFactory) newService(defaultSource string) WaitlistService {
	var repository WaitlistRepository
	if f.db != nil {
		repository = NewWaitlistRepository(f.db)
	}

	return NewWaitlistService(f.logger, repository, ServiceOptions{
		Production:    f.options.Production,
		DefaultSource: defaultSource,
	})
}
