package runtime

import (
	"context"
	"log/slog"
	"time"

	"voice-lab/contract"
	"voice-lab/domain"
	"voice-lab/domain/event"
	"voice-lab/observability"
	"voice-lab/runtime/workers"
	"voice-lab/storage"
)

// Orchestrator is the composition root of the runtime: it owns the event
// channels, builds the registry, router, and broadcaster around them, and
// supervises the pipeline workers.
type Orchestrator struct {
	log            *slog.Logger
	supervisor     *workers.Supervisor
	registry       *SessionRegistry
	router         *MessageRouter
	broadcaster    *Broadcaster
	pool           *storage.SlotPool
	monitor        *observability.Monitor
	domainEvents   chan event.DomainEvent
	telemetry      chan event.Event
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	metricInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, ledger contract.Ledger, monitor *observability.Monitor,
	bufferSize int, sinkTimeout, metricInterval time.Duration) *Orchestrator {

	domainEvents := make(chan event.DomainEvent, bufferSize)
	telemetry := make(chan event.Event, bufferSize)
	registry := NewSessionRegistry(log, domainEvents)
	pool := storage.NewSlotPool(domain.SlotCapacity)
	router := NewMessageRouter(log, registry, pool, ledger, domainEvents, telemetry)

	return &Orchestrator{
		log:            log,
		supervisor:     workers.NewSupervisor(log),
		registry:       registry,
		router:         router,
		broadcaster:    NewBroadcaster(log, router, domainEvents),
		pool:           pool,
		monitor:        monitor,
		domainEvents:   domainEvents,
		telemetry:      telemetry,
		sinkTimeout:    sinkTimeout,
		metricInterval: metricInterval,
	}
}

func (o *Orchestrator) Registry() *SessionRegistry       { return o.registry }
func (o *Orchestrator) Router() *MessageRouter           { return o.router }
func (o *Orchestrator) Broadcaster() *Broadcaster        { return o.broadcaster }
func (o *Orchestrator) Pool() *storage.SlotPool          { return o.pool }
func (o *Orchestrator) Telemetry() chan<- event.Event    { return o.telemetry }
func (o *Orchestrator) Events() chan<- event.DomainEvent { return o.domainEvents }

// AddSinks registers permanent sinks fed by the fan-out worker.
func (o *Orchestrator) AddSinks(sinks ...contract.EventSink) {
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Start launches the pipeline workers under supervision. It returns
// immediately; Stop shuts the pipeline down and waits for it.
func (o *Orchestrator) Start(ctx context.Context) {
	fanout := workers.NewEventFanout(o.log, o.domainEvents, o.sinkTimeout)
	fanout.Add(o.permanentSinks...)
	if o.monitor != nil {
		fanout.Add(o.monitor)
	}

	o.supervisor.Add(
		fanout,
		workers.NewTelemetryWorker(o.log, o.telemetry, o.monitor),
		workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
			{Name: "domain_events", Channel: o.domainEvents},
			{Name: "telemetry_events", Channel: o.telemetry},
		}, o.telemetry, o.metricInterval),
		workers.NewHealthWorker(o.log, o.telemetry, o.metricInterval),
	)
	go o.supervisor.Run(ctx)
}

// Stop cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.supervisor.Stop()
}
