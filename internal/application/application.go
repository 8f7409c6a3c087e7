package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vaultwarden-retention/internal/config"
	"vaultwarden-retention/internal/display"
	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/metrics"
	"vaultwarden-retention/internal/notify"
	"vaultwarden-retention/internal/retention"
	"vaultwarden-retention/internal/storage"
)

// Application wires the configured store, policy, notifier and metrics
// around a retention engine
type Application struct {
	config   *config.Config
	logger   *logging.Logger
	store    storage.Store
	engine   *retention.Engine
	notifier *notify.Notifier
	now      func() time.Time
	errOut   io.Writer
	confirm  retention.ConfirmFunc
}

// Option customizes an Application
type Option func(*Application)

// WithStore uses store instead of resolving one from the remote location
func WithStore(store storage.Store) Option {
	return func(app *Application) {
		app.store = store
	}
}

// WithClock overrides the clock used for retention decisions
func WithClock(now func() time.Time) Option {
	return func(app *Application) {
		app.now = now
	}
}

// WithErrorOutput sets where troubleshooting hints are written
func WithErrorOutput(w io.Writer) Option {
	return func(app *Application) {
		app.errOut = w
	}
}

// WithConfirm asks confirm before each deletion
func WithConfirm(confirm retention.ConfirmFunc) Option {
	return func(app *Application) {
		app.confirm = confirm
	}
}

// NewApplication creates a new application instance
func NewApplication(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, retention.NewConfigurationError("configuration is required", nil)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	app := &Application{
		config: cfg,
		logger: logger,
		now:    time.Now,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.store == nil {
		if !cfg.HasRemote() {
			return nil, retention.NewConfigurationError("remote location is not configured", nil)
		}
		store, err := storage.NewFactory(cfg.Storage).Create(ctx, cfg.Remote)
		if err != nil {
			return nil, retention.NewConfigurationError("failed to create storage backend", err).
				WithContext("remote", cfg.Remote)
		}
		app.store = store
	}

	policy := retention.NewPolicy(cfg.PolicySettings(), logger)
	app.engine = retention.NewEngine(app.store, retention.Options{
		Prefix:  cfg.Prefix,
		Policy:  policy,
		Timeout: cfg.Timeout,
		DryRun:  cfg.DryRun,
		Now:     app.now,
		Confirm: app.confirm,
	}, logger)
	app.notifier = notify.NewNotifier(logger, cfg.Notify)

	return app, nil
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM. A cancelled
// run stops before its delete call, or aborts the delete call in flight.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Close releases the store's resources, for backends that hold a client
func (app *Application) Close() error {
	if closer, ok := app.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Location returns the store location as shown in logs
func (app *Application) Location() string {
	return app.store.String()
}

// Run executes one retention pass, then writes metrics and sends
// notifications. Neither of those can change the returned outcome.
func (app *Application) Run(ctx context.Context) (*retention.RetentionResult, error) {
	result, err := app.engine.Run(ctx)

	app.recordMetrics(result, err)
	app.notify(ctx, result)

	if err != nil {
		app.handleExecutionError(err)
	}
	return result, err
}

// Plan computes the keep and delete sets without deleting anything
func (app *Application) Plan(ctx context.Context) (display.PlanView, error) {
	catalog, decision, err := app.engine.Plan(ctx)
	if err != nil {
		app.handleExecutionError(err)
		return display.PlanView{}, err
	}
	return display.NewPlanView(app.Location(), catalog, decision, app.now()), nil
}

// List returns the backup artifacts at the location
func (app *Application) List(ctx context.Context) (display.CatalogView, error) {
	catalog, err := app.engine.Catalog(ctx)
	if err != nil {
		app.handleExecutionError(err)
		return display.CatalogView{}, err
	}
	return display.NewCatalogView(app.Location(), catalog), nil
}

func (app *Application) recordMetrics(result *retention.RetentionResult, err error) {
	if app.config.MetricsFile == "" || result == nil {
		return
	}

	m := metrics.NewRunMetrics()
	m.Record(result, err)
	if werr := m.WriteToTextfile(app.config.MetricsFile); werr != nil {
		app.logger.WithField("metrics_file", app.config.MetricsFile).Warnf("Failed to write metrics: %v", werr)
	}
}

func (app *Application) notify(ctx context.Context, result *retention.RetentionResult) {
	if result == nil || !app.notifier.Enabled() {
		return
	}
	// The run context may already be cancelled; a summary is still worth sending
	if err := app.notifier.Notify(context.WithoutCancel(ctx), result); err != nil {
		app.logger.Warnf("Failed to send notification: %v", err)
	}
}

// handleExecutionError logs err with its context and prints hints for the operator
func (app *Application) handleExecutionError(err error) {
	var retErr *retention.RetentionError
	if !errors.As(err, &retErr) {
		return
	}

	app.logger.WithFields(map[string]interface{}{
		"error_type": string(retErr.Type),
		"fatal":      retention.IsFatal(err),
		"context":    retErr.Context,
	}).Debug("Retention run failed")

	app.provideTroubleshootingHints(retErr)
}

// provideTroubleshootingHints provides helpful troubleshooting information
func (app *Application) provideTroubleshootingHints(retErr *retention.RetentionError) {
	if app.errOut == nil {
		return
	}

	switch retErr.Type {
	case retention.ErrorTypeListing:
		fmt.Fprintf(app.errOut, "\nTroubleshooting hints:\n")
		fmt.Fprintf(app.errOut, "- Check that the remote %s exists and is reachable\n", app.Location())
		fmt.Fprintf(app.errOut, "- Verify the storage credentials or the rclone config\n")
		fmt.Fprintf(app.errOut, "- Nothing was deleted; the next scheduled run will retry\n")

	case retention.ErrorTypeDeletion:
		fmt.Fprintf(app.errOut, "\nTroubleshooting hints:\n")
		fmt.Fprintf(app.errOut, "- Check that the credentials allow deleting objects\n")
		fmt.Fprintf(app.errOut, "- Some files may have been removed; the next run recomputes the set\n")
	}
}
