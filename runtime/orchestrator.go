// Package runtime owns the live gateway state: connections, room membership,
// broadcast delivery and the asynchronous AI assistant.
// It orchestrates the system without containing business rules about users or projects.
package runtime

import (
	"collab-chat/contract"
	"collab-chat/observability"
	"collab-chat/runtime/workers"
	"collab-chat/trigger"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type OrchestratorConfig struct {
	NumberOfAIWorkers int
	BufferSize        int
	AIQueueSize       int
	MaxMessageLength  int
	AITimeout         time.Duration
	SinkTimeout       time.Duration
	StatsInterval     time.Duration
	Triggers          []string
}

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	config         OrchestratorConfig
	supervisor     contract.ISupervisor
	generator      contract.Generator
	rooms          *RoomManager
	router         *Router
	monitoring     *observability.MonitoringManager
	permanentSinks []contract.EventSink
	deliveries     chan contract.Delivery
	jobs           chan contract.AssistantJob
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	generator contract.Generator, config OrchestratorConfig) (*Orchestrator, error) {
	detector, err := trigger.NewDetector(config.Triggers...)
	if err != nil {
		return nil, err
	}
	log.Info(fmt.Sprintf("%d AI trigger markers loaded [%s]", len(config.Triggers), strings.Join(config.Triggers, ",")))

	deliveries := make(chan contract.Delivery, config.BufferSize)
	jobs := make(chan contract.AssistantJob, config.AIQueueSize)
	rooms := NewRoomManager(log, registry, deliveries)

	return &Orchestrator{
		log:        log,
		config:     config,
		supervisor: supervisor,
		generator:  generator,
		rooms:      rooms,
		router:     NewRouter(log, rooms, detector, jobs, config.MaxMessageLength),
		monitoring: observability.NewMonitoringManager(log, rooms),
		deliveries: deliveries,
		jobs:       jobs,
	}, nil
}

// Add registers permanent sinks receiving every broadcast. Call it before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

func (o *Orchestrator) Join(conn *Connection) error {
	return o.rooms.Join(conn)
}

func (o *Orchestrator) Leave(conn *Connection) {
	o.rooms.Leave(conn.ID)
	conn.Close()
}

func (o *Orchestrator) OnMessage(ctx context.Context, conn *Connection, body string) error {
	return o.router.OnMessage(ctx, conn, body)
}

// Stats counts the rooms and joined connections.
func (o *Orchestrator) Stats() contract.RegistryStats {
	return o.rooms.Stats()
}

func (o *Orchestrator) Monitoring() *observability.MonitoringManager {
	return o.monitoring
}

// Start prepares the fanout, the assistant pool and the stats reporter,
// then blocks in the supervisor until ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	assistants := o.prepareAssistantWorkers()

	o.mu.Lock()
	sinks := append([]contract.EventSink{o.monitoring}, o.permanentSinks...)
	o.supervisor.Add(workers.NewEventFanoutWorker(o.log, o.deliveries, o.config.SinkTimeout, sinks...))
	o.supervisor.Add(assistants...)
	if o.config.StatsInterval > 0 {
		o.supervisor.Add(workers.NewStatsReporterWorker(o.log, o.config.StatsInterval, o.monitoring))
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "ai_workers", len(assistants))
	o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) prepareAssistantWorkers() []contract.Worker {
	var res []contract.Worker
	for i := 0; i < o.config.NumberOfAIWorkers; i++ {
		res = append(res, workers.NewAssistantWorker(o.jobs, o.generator, o.rooms, o.config.AITimeout, o.log))
	}
	return res
}

// Stop cancels the supervised context, every worker returns.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
