package domain

import (
	"github.com/akeren/lingo-site/config"
	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/domain/analytics"
	"github.com/akeren/lingo-site/domain/blog"
	"github.com/akeren/lingo-site/domain/monitoring"
	"github.com/akeren/lingo-site/domain/music"
	"github.com/akeren/lingo-site/domain/waitlist"
	"github.com/akeren/lingo-site/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	rs := appConfig.RouterService
	logger := appConfig.Logger

	appCfg := appConfig.Config
	if appCfg == nil {
		appCfg = config.NewAppConfig()
	}
	site := appCfg.Site

	container := factory.NewFactoryContainer(rs.GetRedisClient(), logger)
	limiters := container.RateLimiterFactory

	// Avoid handing monitoring a typed nil when Redis is not configured.
	var cache monitoring.Cache
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	rs.MountController(monitoring.NewMonitoringController(appConfig.DB, cache, limiters))

	mountAll(rs, waitlist.NewWaitlistServiceFactory(appConfig.DB, logger, limiters, waitlist.ControllerOptions{
		Production:       appCfg.IsProduction(),
		EnableTestRoutes: site.EnableTestRoutes,
	}).CreateControllers())

	mountAll(rs, blog.NewBlogServiceFactory(logger, limiters, blog.ControllerOptions{
		ContentDir: site.BlogContentDir,
		ShowDrafts: site.BlogShowDrafts,
	}).CreateControllers())

	mountAll(rs, analytics.NewAnalyticsControllerFactory(logger, analytics.ProxyConfig{
		APIHost:    site.AnalyticsAPIHost,
		AssetsHost: site.AnalyticsAssetsHost,
		Timeout:    site.AnalyticsProxyTimeout,
	}).CreateControllers())

	mountAll(rs, music.NewMusicControllerFactory(logger, limiters, music.ServiceOptions{
		Dir:        site.MusicDir,
		PublicPath: site.MusicPublicPath,
	}).CreateControllers())
}

func mountAll(rs *router.RouterService, controllers []*router.RESTController) {
	for _, controller := range controllers {
		rs.MountController(controller)
	}
}
