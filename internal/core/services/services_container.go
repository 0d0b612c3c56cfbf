package services

import (
	portsrepo "github.com/SscSPs/rate_ingestor/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/platform/config"
)

// Collaborators are the adapters the pipeline talks to. Publisher and Transport may be
// nil when no cache or broker is configured.
type Collaborators struct {
	Sources    []portssvc.RateSource
	Publisher  portssvc.RatePublisher
	Transport  portssvc.EventTransport
	Dispatcher portssvc.TaskDispatcher
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Collaborators) *portssvc.ServiceContainer {
	history := NewHistoryStore(repos, cfg.BatchChunkSize, cfg.BatchChunkPause)

	var events portssvc.EventEmitter
	if deps.Transport != nil && deps.Dispatcher != nil {
		events = NewNotifier(deps.Transport, deps.Dispatcher)
	}

	return &portssvc.ServiceContainer{
		Collector: NewCollector(deps.Sources...),
		Processor: NewProcessor(
			NewSampleValidator(),
			NewDeduplicator(history, cfg.DedupWindow, cfg.DedupTolerance),
			history,
			deps.Publisher,
			events,
			deps.Dispatcher,
		),
		Maintenance: NewMaintenanceService(history),
		History:     history,
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.HistoryStoreSvc      = (*historyStore)(nil)
	_ portssvc.ProcessorSvc         = (*processor)(nil)
	_ portssvc.CollectorSvc         = (*collector)(nil)
	_ portssvc.MaintenanceSvcFacade = (*maintenanceService)(nil)
	_ portssvc.EventEmitter         = (*Notifier)(nil)
	_ portssvc.TaskDispatcher       = (*Dispatcher)(nil)
)
