package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/constants"
	"github.com/akeren/lingo-site/pkg/factory"
	"gorm.io/gorm"
)

const (
	monitoringRequestsPerMinute = 10
	dependencyCheckTimeout      = 2 * time.Second

	statusHealthy       = 1
	statusUnhealthy     = 0
	statusNotConfigured = -1
)

type Cache interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	// Database is 1 when healthy, 0 when unreachable, -1 when not configured.
	Database int `json:"database"`
	// Cache is 1 when healthy, 0 otherwise. Running without Redis is normal.
	Cache  int `json:"cache"`
	Uptime int `json:"uptime"`
}

type LivenessStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    int    `json:"uptime"`
}

// probe pings one dependency. A nil ping means the dependency is not configured.
type probe struct {
	name        string
	ping        func(ctx context.Context) error
	unavailable int
	result      *int
}

type MonitoringController struct {
	db        *gorm.DB
	cache     Cache
	startTime time.Time
}

// NewMonitoringController accepts a nil db or cache for deployments that run without them.
func NewMonitoringController(db *gorm.DB, cache Cache, limiters factory.RateLimiterFactory) *router.RESTController {
	ctrl := &MonitoringController{db: db, cache: cache, startTime: time.Now()}

	return router.NewRESTController("MonitoringController", "/", func(rs *router.RouterService, c *router.RESTController) {
		limiter := limiters.CreateRateLimiter("monitoring", monitoringRequestsPerMinute, time.Minute)

		rs.AddGetHandler(c, limiter, "health", ctrl.healthCheck)
		rs.AddGetHandler(c, limiter, "api/health", ctrl.liveness)
	})
}

func (ctrl *MonitoringController) uptime() int {
	return int(time.Since(ctrl.startTime).Seconds())
}

func (ctrl *MonitoringController) liveness(*router.RequestContext) *router.ServiceResult {
	return router.OKResult(LivenessStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(constants.RFC3339DateTimeFormat),
		Uptime:    ctrl.uptime(),
	}, "Service is running")
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dependencyCheckTimeout)
	defer cancel()

	status := HealthStatus{Uptime: ctrl.uptime()}
	runProbes(ctx, router.GetLogger(c), ctrl.probes(&status))

	return router.OKResult(status, "lingo-site health check completed")
}

func (ctrl *MonitoringController) probes(status *HealthStatus) []probe {
	db := probe{name: "database", unavailable: statusNotConfigured, result: &status.Database}
	if ctrl.db != nil {
		db.ping = func(ctx context.Context) error {
			sqlDB, err := ctrl.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	cache := probe{name: "cache", unavailable: statusUnhealthy, result: &status.Cache}
	if ctrl.cache != nil {
		cache.ping = ctrl.cache.Ping
	}

	return []probe{db, cache}
}

// runProbes pings every configured dependency concurrently so one slow
// dependency does not delay the others past the check timeout.
func runProbes(ctx context.Context, logger *log.Logger, probes []probe) {
	var wg sync.WaitGroup
	for _, p := range probes {
		if p.ping == nil {
			*p.result = p.unavailable
			logger.Debug("Health check skipped, dependency not configured", "dependency", p.name)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.ping(ctx); err != nil {
				*p.result = statusUnhealthy
				logger.Error("Health check failed", "dependency", p.name, "error", err)
				return
			}
			*p.result = statusHealthy
		}()
	}
	wg.Wait()
}
