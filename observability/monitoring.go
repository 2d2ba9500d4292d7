package observability

import (
	"collab-chat/contract"
	"collab-chat/domain"
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

const maxRecentEnvelopes = 20

var _ contract.EventSink = (*MonitoringManager)(nil)

// RecentEnvelope is the metadata of a delivered envelope, never its body.
type RecentEnvelope struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	Sender    string `json:"sender"`
	Length    int    `json:"length"`
	Timestamp string `json:"timestamp"`
}

// MonitoringStats aggregates the gateway metrics served by the debug server.
type MonitoringStats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`

	HumanMessages     uint64  `json:"human_messages"`
	AssistantMessages uint64  `json:"assistant_messages"`
	SystemMessages    uint64  `json:"system_messages"`
	MessagesPerSecond float64 `json:"messages_per_second"`

	ProcessRSSMb  uint64  `json:"process_rss_mb"`
	ProcessCPU    float64 `json:"process_cpu"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	NumGoroutines int     `json:"num_goroutines"`

	RecentEnvelopes []RecentEnvelope `json:"recent_envelopes"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MembershipStats is implemented by the room manager.
type MembershipStats interface {
	Stats() contract.RegistryStats
}

// MonitoringManager is a permanent sink of the fanout: it counts every
// delivered envelope per sender variant and keeps the latest stats snapshot.
type MonitoringManager struct {
	log        *slog.Logger
	membership MembershipStats
	mu         sync.RWMutex
	latest     MonitoringStats
	recent     []RecentEnvelope

	human     uint64
	assistant uint64
	system    uint64
	lastTotal uint64
	lastCheck time.Time
}

func NewMonitoringManager(log *slog.Logger, membership MembershipStats) *MonitoringManager {
	return &MonitoringManager{
		log:        log,
		membership: membership,
		lastCheck:  time.Now(),
		recent:     make([]RecentEnvelope, 0, maxRecentEnvelopes),
	}
}

// Consume counts the envelope, it never fails.
func (mm *MonitoringManager) Consume(_ context.Context, e domain.Envelope) error {
	switch e.Sender.(type) {
	case domain.Human:
		atomic.AddUint64(&mm.human, 1)
	case domain.Assistant:
		atomic.AddUint64(&mm.assistant, 1)
	case domain.System:
		atomic.AddUint64(&mm.system, 1)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.recent = append([]RecentEnvelope{{
		ID:        e.ID.String(),
		Room:      e.Room.String(),
		Sender:    e.Sender.Tag(),
		Length:    len(e.Body),
		Timestamp: e.At.Format("15:04:05"),
	}}, mm.recent...)
	if len(mm.recent) > maxRecentEnvelopes {
		mm.recent = mm.recent[:maxRecentEnvelopes]
	}
	return nil
}

// Refresh recomputes the snapshot: membership, counters, throughput and process usage.
func (mm *MonitoringManager) Refresh() MonitoringStats {
	human := atomic.LoadUint64(&mm.human)
	assistant := atomic.LoadUint64(&mm.assistant)
	system := atomic.LoadUint64(&mm.system)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	rss, cpu := mm.processUsage()

	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	total := human + assistant + system
	stats := MonitoringStats{
		HumanMessages:     human,
		AssistantMessages: assistant,
		SystemMessages:    system,
		ProcessRSSMb:      rss / 1024 / 1024,
		ProcessCPU:        cpu,
		AllocMemMb:        m.Alloc / 1024 / 1024,
		NumGC:             m.NumGC,
		NumGoroutines:     runtime.NumGoroutine(),
		RecentEnvelopes:   append([]RecentEnvelope(nil), mm.recent...),
		UpdatedAt:         now,
	}
	if elapsed := now.Sub(mm.lastCheck).Seconds(); elapsed > 0 {
		stats.MessagesPerSecond = float64(total-mm.lastTotal) / elapsed
	}
	if mm.membership != nil {
		membership := mm.membership.Stats()
		stats.Rooms = membership.Rooms
		stats.Connections = membership.Connections
	}
	mm.lastTotal = total
	mm.lastCheck = now
	mm.latest = stats
	return stats
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}

func (mm *MonitoringManager) processUsage() (uint64, float64) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		mm.log.Debug("Error while retrieving process", "error", err)
		return 0, 0
	}
	var rss uint64
	if mem, err := p.MemoryInfo(); err == nil {
		rss = mem.RSS
	} else {
		mm.log.Debug("Error while finding process ram usage", "error", err)
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		mm.log.Debug("Error while finding process cpu usage", "error", err)
	}
	return rss, cpu
}
