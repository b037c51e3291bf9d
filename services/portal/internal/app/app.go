package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leilaoai/pkg/agent"
	"leilaoai/pkg/ai"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/market"
	"leilaoai/pkg/pdftext"
	"leilaoai/pkg/storage"
	"leilaoai/pkg/store"
)

// MarketSearcher fetches comparable listings for a lot.
type MarketSearcher interface {
	Search(ctx context.Context, q market.Query) ([]market.Listing, error)
}

// Config holds runtime configuration for the core application. Store,
// Objects, Market and Events are optional overrides; when nil they are
// built from the remaining fields.
type Config struct {
	DatabaseURL string
	Store       store.Store

	Minio   storage.MinioConfig
	Objects storage.ObjectStore

	// Generator is the LLM backend; nil leaves the AI stages unconfigured.
	Generator         ai.JSONGenerator
	ExtractionWorkers int
	PdftotextPath     string

	OLXBaseURL string
	Market     MarketSearcher

	Events events.Bus
	Logger *slog.Logger
}

// App is the core application service wiring together storage, the
// extraction pipeline and the market search.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	agent         *agent.Agent
	extractor     pdftext.Extractor
	market        MarketSearcher
	events        events.Bus
	logger        *slog.Logger
	now           func() time.Time
	presignExpiry time.Duration
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	objects := cfg.Objects
	if objects == nil {
		minioStore, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		objects = minioStore
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		dataStore = gormStore
	}
	searcher := cfg.Market
	if searcher == nil {
		searcher = market.NewClient(cfg.OLXBaseURL)
	}
	bus := cfg.Events
	if bus == nil {
		bus = events.NewLocalBus()
	}
	return &App{
		store:         dataStore,
		objects:       objects,
		agent:         agent.New(cfg.Generator, agent.WithLogger(logger), agent.WithConcurrency(cfg.ExtractionWorkers)),
		extractor:     pdftext.Extractor{PdftotextPath: cfg.PdftotextPath},
		market:        searcher,
		events:        bus,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		presignExpiry: 15 * time.Minute,
	}, nil
}

// AIConfigured reports whether an LLM backend is available.
func (a *App) AIConfigured() bool {
	return a.agent.Configured()
}

// Events exposes the refresh bus to the HTTP layer.
func (a *App) Events() events.Bus {
	return a.events
}

// Dashboard summarizes every project and lot.
func (a *App) Dashboard() (domain.Dashboard, error) {
	projects, err := a.store.ListProjects()
	if err != nil {
		return domain.Dashboard{}, err
	}
	lots, err := a.store.ListLots()
	if err != nil {
		return domain.Dashboard{}, err
	}
	out := domain.Dashboard{
		Projects: len(projects),
		Lots:     len(lots),
		ByRisk: map[domain.RiskLevel]int{
			domain.RiskHigh:   0,
			domain.RiskMedium: 0,
			domain.RiskLow:    0,
		},
	}
	for _, lot := range lots {
		if lot.Favorite {
			out.Favorites++
		}
		if lot.Details.RiskLevel != "" {
			out.ByRisk[lot.Details.RiskLevel]++
		}
	}
	return out, nil
}

// publish notifies subscribers; failures are logged only.
func (a *App) publish(ctx context.Context, typ, projectID, lotID string) {
	ev := events.Event{Type: typ, ProjectID: projectID, LotID: lotID, At: a.now()}
	if err := a.events.Publish(ctx, ev); err != nil {
		a.logger.Warn("publish event failed", "type", typ, "error", err)
	}
}

func (a *App) getProject(id string) (domain.Project, error) {
	p, ok, err := a.store.GetProject(id)
	if err != nil {
		return domain.Project{}, err
	}
	if !ok {
		return domain.Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (a *App) getLot(id string) (domain.Lot, error) {
	l, ok, err := a.store.GetLot(id)
	if err != nil {
		return domain.Lot{}, err
	}
	if !ok {
		return domain.Lot{}, ErrLotNotFound
	}
	return l, nil
}
