package music

import (
	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/factory"
)

type MusicControllerFactory interface {
	CreateControllers() []*router.RESTController
}

type DefaultMusicControllerFactory struct {
	logger   *log.Logger
	limiters factory.RateLimiterFactory
	options  ServiceOptions
}

func NewMusicControllerFactory(logger *log.Logger, limiters factory.RateLimiterFactory, options ServiceOptions) MusicControllerFactory {
	return &DefaultMusicControllerFactory{
		logger:   logger,
		limiters: limiters,
		options:  options,
	}
}

func (f *DefaultMusicControllerFactory) CreateControllers() []*router.RESTController {
	return []*router.RESTController{
		NewMusicController(f.logger, f.limiters, f.options),
		NewMusicFilesController(f.logger, f.options),
	}
}
