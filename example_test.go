package telemetry_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Schera-ole/telemetry/internal/audit"
	"github.com/Schera-ole/telemetry/internal/counter"
	models "github.com/Schera-ole/telemetry/internal/model"
	"github.com/Schera-ole/telemetry/internal/repository"
	"github.com/Schera-ole/telemetry/internal/stats"
	"github.com/Schera-ole/telemetry/internal/tasks"
)

// Example of recording events and reading the consolidated dashboard metrics
func Example_dashboard() {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	// Create the in-memory stores
	kv := repository.NewMemKV()
	events := repository.NewMemEventLog()

	dispatcher := audit.NewDispatcher(audit.NewWriter(events), counter.NewCache(kv), tasks.NewRegistry(logger), logger)

	// Handle waits for the event to be stored; Log would return immediately
	for i := 0; i < 3; i++ {
		dispatcher.Handle(ctx, models.AuditEvent{
			Action:     models.ActionAPIRequest,
			IP:         "1.1.1.1",
			Country:    "BR",
			Status:     models.StatusSuccess,
			IsCacheHit: i == 0,
		})
	}

	stats.NewConsolidator(kv, logger).ComputeGlobalStats(ctx)
	metrics := stats.NewReader(kv, logger).GetDashboardMetrics(ctx)

	fmt.Printf("requests: %d\n", metrics.NetworkRequests)
	fmt.Printf("users: %d\n", metrics.GlobalUsers)
	fmt.Printf("cache ratio: %s\n", metrics.CacheRatio)
	fmt.Printf("top country: %s %d\n", metrics.Countries[0].Country, metrics.Countries[0].Count)
	fmt.Printf("price: %s\n", metrics.Market.Price)
	fmt.Printf("stored records: %d\n", events.Len())
	// Output:
	// requests: 3
	// users: 1
	// cache ratio: 33.3%
	// top country: Brazil 3
	// price: 0.0000
	// stored records: 3
}

// Example of the ratio format used by the dashboard
func Example_cacheRatio() {
	fmt.Println(stats.CacheRatio(0, 0))
	fmt.Println(stats.CacheRatio(2, 3))
	// Output:
	// 0.0%
	// 66.7%
}
