package domain

import (
	"github.com/akeren/waitlist-intake/config"
	"github.com/akeren/waitlist-intake/domain/monitoring"
	"github.com/akeren/waitlist-intake/domain/waitlist"
	"github.com/akeren/waitlist-intake/pkg/constants"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/akeren/waitlist-intake/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	if appConfig.Config == nil {
		appConfig.Config = config.NewAppConfig()
	}
	if appConfig.Store == nil {
		appConfig.Store = csvstore.New(appConfig.Config.WaitlistCSVPath)
	}

	var monitoringCache monitoring.Cache
	if appConfig.Cache != nil {
		monitoringCache = appConfig.Cache
	}

	appConfig.RouterService.MountController(
		monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, monitoringCache, appConfig.Store).CreateController(),
	)

	requests := appConfig.Config.WaitlistRateLimitRequests
	if requests <= 0 {
		requests = constants.DefaultWaitlistRateLimitRequests
	}

	var limiterCache factory.Cache
	if appConfig.Cache != nil {
		limiterCache = appConfig.Cache
	}

	waitlistFactory := waitlist.NewWaitlistServiceFactory(
		appConfig.Store,
		appConfig.DB,
		appConfig.Logger,
		appConfig.RouterService.MetricsRegisterer(),
		factory.NewDefaultRateLimiterFactory(requests, appConfig.Config.RateLimitWindow, limiterCache, appConfig.Logger, factory.WithKeyPrefix("waitlist:")),
	)

	route := appConfig.Config.WaitlistRoute
	if route == "" {
		route = constants.DefaultWaitlistRoute
	}
	appConfig.RouterService.MountController(waitlistFactory.CreateController(route))

	startStatsRefresher(appConfig)
}

func startStatsRefresher(appConfig *config.ApplicationConfig) {
	schedule := appConfig.Config.WaitlistStatsSchedule
	if schedule == "" {
		schedule = constants.DefaultWaitlistStatsSchedule
	}

	refresher := waitlist.NewStatsRefresher(appConfig.Store, appConfig.Logger, appConfig.RouterService.MetricsRegisterer())
	if err := refresher.Start(schedule); err != nil {
		appConfig.Logger.Error("Invalid WAITLIST_STATS_SCHEDULE; stats refresher disabled", "schedule", schedule, "error", err)
		return
	}
	appConfig.OnCleanup(refresher.Stop)
}
