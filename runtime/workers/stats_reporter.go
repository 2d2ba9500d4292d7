package workers

import (
	"collab-chat/contract"
	"collab-chat/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*StatsReporterWorker)(nil)

// StatsReporterWorker refreshes the monitoring snapshot and logs it every interval.
type StatsReporterWorker struct {
	log        *slog.Logger
	interval   time.Duration
	monitoring *observability.MonitoringManager
}

func NewStatsReporterWorker(log *slog.Logger, interval time.Duration,
	monitoring *observability.MonitoringManager) *StatsReporterWorker {
	return &StatsReporterWorker{log: log, interval: interval, monitoring: monitoring}
}

func (w *StatsReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats reporter")
			return nil
		case <-ticker.C:
			stats := w.monitoring.Refresh()
			w.log.Info("Gateway stats",
				"rooms", stats.Rooms,
				"connections", stats.Connections,
				"human_messages", stats.HumanMessages,
				"assistant_messages", stats.AssistantMessages,
				"system_messages", stats.SystemMessages,
				"messages_per_second", stats.MessagesPerSecond,
				"rss_mb", stats.ProcessRSSMb,
				"cpu", stats.ProcessCPU)
		}
	}
}
