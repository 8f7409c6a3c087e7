package retention

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/storage"
)

// DefaultTimeout bounds each remote call of a run
const DefaultTimeout = 60 * time.Second

// Options configures an Engine
type Options struct {
	// Prefix restricts the catalog to names starting with it
	Prefix string
	Policy Policy
	// Timeout bounds the list call and the delete call separately
	Timeout time.Duration
	DryRun  bool
	// Now overrides the clock, mostly for tests
	Now func() time.Time
	// Confirm, when set, is asked before a non-empty delete set is removed.
	// It is not consulted in dry runs.
	Confirm ConfirmFunc
}

// ConfirmFunc approves or declines a decision before anything is deleted
type ConfirmFunc func(ctx context.Context, decision Decision) (bool, error)

// Engine runs retention passes against one store
type Engine struct {
	store   storage.Store
	options Options
	logger  *logging.Logger
}

// NewEngine creates a new Engine. A nil policy keeps everything.
func NewEngine(store storage.Store, options Options, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if options.Policy == nil {
		options.Policy = ForeverPolicy{}
	}
	if options.Prefix == "" {
		options.Prefix = DefaultPrefix
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Engine{
		store:   store,
		options: options,
		logger:  logger,
	}
}

// Catalog lists the store and builds the catalog under the list timeout
func (e *Engine) Catalog(ctx context.Context) (*Catalog, error) {
	return e.catalog(ctx, e.logger)
}

func (e *Engine) catalog(ctx context.Context, logger *logging.Logger) (*Catalog, error) {
	listCtx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	return BuildCatalog(listCtx, e.store, e.store.String(), e.options.Prefix, logger)
}

// Plan builds the catalog and applies the policy without deleting anything
func (e *Engine) Plan(ctx context.Context) (*Catalog, Decision, error) {
	catalog, err := e.catalog(ctx, e.logger)
	decision := Decide(e.options.Policy, catalog.Artifacts, e.options.Now())
	return catalog, decision, err
}

// Run performs one retention pass: list, decide, delete. Listing and
// deletion failures are recorded in the result and returned; the caller
// decides whether they affect the exit status. Neither ever causes more
// than the computed subset to be deleted.
func (e *Engine) Run(ctx context.Context) (*RetentionResult, error) {
	began := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With(map[string]interface{}{
		"run_id":    runID,
		"component": "retention",
	})

	result := &RetentionResult{
		RunID:     runID,
		Location:  e.store.String(),
		Mode:      e.options.Policy.Mode(),
		Policy:    e.options.Policy.Describe(),
		StartedAt: e.options.Now(),
		DryRun:    e.options.DryRun,
	}
	defer func() {
		result.ProcessingTime = time.Since(began)
	}()

	logger.Info("--- Starting Retention Check ---")
	defer logger.Info("--- End Retention Check ---")

	catalog, err := e.catalog(ctx, logger)
	result.ObjectsListed = catalog.Listed
	result.SkippedUndated = len(catalog.SkippedUndated)
	if err != nil {
		result.addError(err)
		logger.Info("Skipping retention check (no files found).")
		return result, err
	}

	if catalog.Len() == 0 {
		logger.Info("Skipping retention check (no files found).")
		return result, nil
	}

	result.ArtifactsProcessed = catalog.Len()
	logger.Infof("Mode: %s | Total Files: %d", e.options.Policy.Mode(), catalog.Len())
	logger.Infof("Strategy: %s", e.options.Policy.Describe())

	decision := Decide(e.options.Policy, catalog.Artifacts, e.options.Now())
	result.applyDecision(decision)
	if len(decision.Delete) > 0 {
		logger.Infof("  -> Found %d redundant files.", len(decision.Delete))
	}

	if len(decision.Delete) > 0 && !e.options.DryRun && e.options.Confirm != nil {
		approved, err := e.options.Confirm(ctx, decision)
		if err != nil {
			err = NewDeletionFailure("deletion was not confirmed", err).
				WithContext("location", e.store.String())
			result.addError(err)
			result.discardDeletions()
			return result, err
		}
		if !approved {
			logger.Info("Deletion declined, nothing was removed.")
			result.Declined = true
			result.discardDeletions()
			return result, nil
		}
	}

	deleter := NewDeleter(e.store, e.store.String(), e.options.Timeout, logger)
	if err := deleter.Delete(ctx, decision.Delete, e.options.DryRun); err != nil {
		result.addError(err)
		result.ArtifactsDeleted = 0
		result.BytesReclaimed = 0
		return result, err
	}

	return result, nil
}
