package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/billkeeper/internal/adapter"
	"github.com/ykarpov/billkeeper/internal/config"
	"github.com/ykarpov/billkeeper/internal/localstore"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/queue"
	"github.com/ykarpov/billkeeper/internal/syncer"
	"github.com/ykarpov/billkeeper/internal/utils"
	"github.com/ykarpov/billkeeper/models"
)

// App is the client application: the durable local store, the mutation
// queue, and the sync orchestrator wired together. All write paths go
// through the queue so that every local change eventually reaches the
// server, regardless of connectivity at the moment of the write.
type App struct {
	cfg *config.ClientConfig

	store        localstore.LocalStore
	queue        *queue.MutationQueue
	orchestrator *syncer.Orchestrator
	job          *syncer.PeriodicJob

	ids    *utils.UUIDGenerator
	now    func() time.Time
	userID int64

	logger *logger.Logger
}

// NewApp assembles the client from the merged configuration. The bearer
// token for the sync server is taken from the BILLKEEPER_TOKEN environment
// variable; an empty token leaves the client in offline-only mode until a
// token is supplied.
func NewApp() (*App, error) {
	cfg, err := config.GetClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}

	log := logger.NewLogger("client")

	store, err := localstore.NewSQLiteStore(cfg.Storage.Path, log)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	cached := localstore.WithCache(store, cfg.Storage.CacheTTL)

	mutationQueue := queue.New(cached, log)

	// The account service hands over a long-lived token out of band. The
	// subject claim tells the client its own user id, so records created
	// here carry the right owner without a server round trip.
	token := os.Getenv("BILLKEEPER_TOKEN")
	var userID int64
	if token != "" {
		if userID, err = utils.ParseUserIDFromJWT(token); err != nil {
			log.Warn().Err(err).Msg("could not read user id from bearer token")
		}
	}

	serverAdapter := adapter.NewHTTPServerAdapter(adapter.HTTPClientConfig{
		BaseURL:    cfg.Adapter.BaseURL,
		Timeout:    cfg.Adapter.RequestTimeout,
		DeviceID:   cfg.App.DeviceID,
		DeviceType: cfg.App.DeviceType,
		AppVersion: cfg.App.Version,
	}, adapter.StaticTokenProvider(token), log)

	orchestrator := syncer.New(mutationQueue, cached, serverAdapter, syncer.Config{
		BatchSize:          cfg.Sync.BatchSize,
		MaxAttempts:        cfg.Sync.MaxAttempts,
		BaseDelay:          cfg.Sync.BaseDelay,
		StalenessThreshold: cfg.Sync.StalenessThreshold,
	}, log)

	return &App{
		cfg:          cfg,
		store:        cached,
		queue:        mutationQueue,
		orchestrator: orchestrator,
		job:          syncer.NewPeriodicJob(orchestrator),
		ids:          utils.NewUUIDGenerator(),
		now:          time.Now,
		userID:       userID,
		logger:       log,
	}, nil
}

// StartSync kicks off an initial foreground sync and launches the periodic
// trigger job. It returns immediately; syncing happens in the background.
func (a *App) StartSync(ctx context.Context) {
	a.orchestrator.NotifyForeground(ctx)
	a.job.Start(ctx, a.cfg.Sync.Interval)
}

// Close stops the periodic job and releases the local store.
func (a *App) Close() error {
	a.job.Stop()
	return a.store.Close()
}

// Run starts the headless client lifecycle: an initial foreground sync, the
// periodic trigger job, and then blocks until an interrupt signal arrives.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	a.StartSync(ctx)

	<-ctx.Done()

	a.logger.Info().Msg("client shutting down")
	return a.Close()
}

// ─────────────────────────────────────────────
// Write paths
// ─────────────────────────────────────────────

// RecordBill stores a new bill locally and enqueues it for upload.
func (a *App) RecordBill(ctx context.Context, name, category string, amount decimal.Decimal, dueDay int) (models.Entity, error) {
	now := a.now().UTC()
	entity := models.Entity{
		ID:        a.ids.Generate(),
		Kind:      models.KindBill,
		OwnerID:   a.userID,
		Name:      name,
		Category:  category,
		Amount:    amount,
		DueDay:    &dueDay,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return entity, a.applyLocal(ctx, models.ActionCreate, entity)
}

// RecordBudget stores a new monthly budget locally and enqueues it for
// upload. month uses the "YYYY-MM" form.
func (a *App) RecordBudget(ctx context.Context, name, category string, amount decimal.Decimal, month string) (models.Entity, error) {
	now := a.now().UTC()
	entity := models.Entity{
		ID:        a.ids.Generate(),
		Kind:      models.KindBudget,
		OwnerID:   a.userID,
		Name:      name,
		Category:  category,
		Amount:    amount,
		Month:     &month,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return entity, a.applyLocal(ctx, models.ActionCreate, entity)
}

// UpdateEntity overwrites the local copy of entity and enqueues the change.
// The entity's UpdatedAt is stamped here; callers pass the desired state.
func (a *App) UpdateEntity(ctx context.Context, entity models.Entity) (models.Entity, error) {
	entity.UpdatedAt = a.now().UTC()
	return entity, a.applyLocal(ctx, models.ActionUpdate, entity)
}

// DeleteEntity removes the entity from the local collection and enqueues a
// tombstone so the deletion propagates to every device.
func (a *App) DeleteEntity(ctx context.Context, id string) error {
	entities, err := a.loadEntities(ctx)
	if err != nil {
		return err
	}

	for i, entity := range entities {
		if entity.ID != id {
			continue
		}

		tombstone := entity.Tombstone(a.now().UTC())

		entities = append(entities[:i], entities[i+1:]...)
		if err = localstore.SetJSON(ctx, a.store, localstore.KeyEntities, entities); err != nil {
			return err
		}

		if _, err = a.queue.Enqueue(ctx, models.ActionDelete, tombstone); err != nil {
			return err
		}
		return nil
	}

	return fmt.Errorf("entity %s: %w", id, ErrEntityNotFoundLocally)
}

// ─────────────────────────────────────────────
// Read paths
// ─────────────────────────────────────────────

// Bills returns the local bill collection.
func (a *App) Bills(ctx context.Context) ([]models.Entity, error) {
	return a.entitiesOfKind(ctx, models.KindBill)
}

// Budgets returns the local budget collection.
func (a *App) Budgets(ctx context.Context) ([]models.Entity, error) {
	return a.entitiesOfKind(ctx, models.KindBudget)
}

// ─────────────────────────────────────────────
// Sync controls
// ─────────────────────────────────────────────

// SyncNow triggers a manual sync pass.
func (a *App) SyncNow(ctx context.Context) error {
	return a.orchestrator.Sync(ctx)
}

// SetOnline feeds a connectivity change into the orchestrator.
func (a *App) SetOnline(ctx context.Context, online bool) {
	a.orchestrator.SetOnline(ctx, online)
}

// SyncState returns a snapshot of the current sync state.
func (a *App) SyncState() models.SyncState {
	return a.orchestrator.State()
}

// OnSyncStateChange registers fn to be called on every sync state change.
func (a *App) OnSyncStateChange(fn func(models.SyncState)) {
	a.orchestrator.Subscribe(fn)
}

// ─────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────

func (a *App) applyLocal(ctx context.Context, action models.MutationAction, entity models.Entity) error {
	entities, err := a.loadEntities(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range entities {
		if entities[i].ID == entity.ID {
			entities[i] = entity
			replaced = true
			break
		}
	}
	if !replaced {
		entities = append(entities, entity)
	}

	if err = localstore.SetJSON(ctx, a.store, localstore.KeyEntities, entities); err != nil {
		return err
	}

	_, err = a.queue.Enqueue(ctx, action, entity)
	return err
}

func (a *App) loadEntities(ctx context.Context) ([]models.Entity, error) {
	var entities []models.Entity
	if _, err := localstore.GetJSON(ctx, a.store, localstore.KeyEntities, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func (a *App) entitiesOfKind(ctx context.Context, kind models.EntityKind) ([]models.Entity, error) {
	entities, err := a.loadEntities(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.Kind == kind && !entity.Deleted {
			filtered = append(filtered, entity)
		}
	}

	return filtered, nil
}
