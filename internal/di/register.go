package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Cache (depends on Config)
// 4. Monitor (depends on Config, Logger)
// 5. LinkClient (depends on Config, Logger, Monitor)
// 6. Enricher (depends on Config, Logger, Cache, LinkClient)
// 7. Reporter (depends on all above)
// 8. Server (depends on Config, Reporter, Enricher).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewCache)
	do.Provide(i, NewMonitor)
	do.Provide(i, NewLinkClient)
	do.Provide(i, NewEnricher)
	do.Provide(i, NewReporter)
	do.Provide(i, NewHTTPServer)
}
