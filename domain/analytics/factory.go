package analytics

import (
	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
)

type AnalyticsControllerFactory interface {
	CreateControllers() []*router.RESTController
}

type DefaultAnalyticsControllerFactory struct {
	logger      *log.Logger
	proxyConfig ProxyConfig
}

func NewAnalyticsControllerFactory(logger *log.Logger, proxyConfig ProxyConfig) AnalyticsControllerFactory {
	return &DefaultAnalyticsControllerFactory{
		logger:      logger,
		proxyConfig: proxyConfig,
	}
}

func (f *DefaultAnalyticsControllerFactory) CreateControllers() []*router.RESTController {
	return []*router.RESTController{
		NewAnalyticsController(f.logger),
		NewProxyController(f.logger, f.proxyConfig),
	}
}
