package blog

import (
	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/factory"
)

type BlogServiceFactory interface {
	CreateService() BlogService
	CreateControllers() []*router.RESTController
}

type DefaultBlogServiceFactory struct {
	logger   *log.Logger
	limiters factory.RateLimiterFactory
	options  ControllerOptions
}

func NewBlogServiceFactory(logger *log.Logger, limiters factory.RateLimiterFactory, options ControllerOptions) BlogServiceFactory {
	return &DefaultBlogServiceFactory{
		logger:   logger,
		limiters: limiters,
		options:  options,
	}
}

func (f *DefaultBlogServiceFactory) CreateService() BlogService {
	return newService(f.logger, f.options)
}

func (f *DefaultBlogServiceFactory) CreateControllers() []*router.RESTController {
	return []*router.RESTController{
		NewBlogController(f.logger, f.limiters, f.options),
		NewBlogPagesController(f.logger, f.limiters, f.options),
	}
}
