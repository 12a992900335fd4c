package waitlist

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/internal/models"
	"github.com/akeren/lingo-site/pkg/constants"
	"github.com/akeren/lingo-site/pkg/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.WaitlistSignup{}))
	return db
}

func TestWaitlistServiceFactory_CreateService(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()
	limiters := factory.NewDefaultRateLimiterFactory(nil, nil)

	t.Run("stores signups with the default source", func(t *testing.T) {
		db := newSQLiteDB(t)
		service := NewWaitlistServiceFactory(db, logger, limiters, ControllerOptions{Production: true}).CreateService()

		result := service.Join(context.Background(), &JoinRequest{Email: "Jane@Example.com"})
		require.True(t, result.OK)

		var signup models.WaitlistSignup
		require.NoError(t, db.First(&signup).Error)
		assert.Equal(t, "jane@example.com", signup.Email)
		assert.Equal(t, constants.DefaultWaitlistSource, signup.Source)
	})

	t.Run("production without database is unavailable", func(t *testing.T) {
		service := NewWaitlistServiceFactory(nil, logger, limiters, ControllerOptions{Production: true}).CreateService()

		result := service.Join(context.Background(), &JoinRequest{Email: "jane@example.com"})

		assert.False(t, result.OK)
		assert.Equal(t, ErrorCodeServiceUnavailable, result.Error)
	})
}

func TestWaitlistServiceFactory_ControllersShareDatabase(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	db := newSQLiteDB(t)
	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	limiters := factory.NewDefaultRateLimiterFactory(nil, nil)
	options := ControllerOptions{EnableTestRoutes: true}
	for _, c := range NewWaitlistServiceFactory(db, logger, limiters, options).CreateControllers() {
		rs.MountController(c)
	}

	code, _ := doJoin(t, rs, "/v1/waitlist", "application/json", `{"email":"public@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = doJoin(t, rs, "/api/test/waitlist", "application/json", `{"email":"e2e@example.com"}`)
	require.Equal(t, http.StatusOK, code)

	sources := map[string]string{}
	var signups []models.WaitlistSignup
	require.NoError(t, db.Find(&signups).Error)
	for _, s := range signups {
		sources[s.Email] = s.Source
	}

	assert.Equal(t, map[string]string{
		"public@example.com": constants.DefaultWaitlistSource,
		"e2e@example.com":    testSource,
	}, sources)
}
