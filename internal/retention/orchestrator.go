package retention

import (
	"context"
	"time"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/storage"
)

// Deleter turns a deletion subset into one batch delete against the store
type Deleter struct {
	store    storage.BatchDeleter
	location string
	timeout  time.Duration
	logger   *logging.Logger
}

// NewDeleter creates a Deleter. A zero timeout leaves the call bounded only
// by ctx.
func NewDeleter(store storage.BatchDeleter, location string, timeout time.Duration, logger *logging.Logger) *Deleter {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Deleter{
		store:    store,
		location: location,
		timeout:  timeout,
		logger:   logger,
	}
}

// Delete writes one audit line per artifact and then removes all of them
// with a single BatchDelete call. Nothing is sent for an empty subset or in
// dry run mode. The call is not retried; a failure is returned as a
// DeletionFailure.
func (d *Deleter) Delete(ctx context.Context, artifacts []Artifact, dryRun bool) error {
	if len(artifacts) == 0 {
		d.logger.Info("No files marked for deletion.")
		return nil
	}

	d.logger.Infof("Executing delete for %d files...", len(artifacts))

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		d.logger.LogArtifactScheduled(a.Name, a.Path, a.Size, a.ParsedDate)
		paths = append(paths, a.Path)
	}

	if dryRun {
		d.logger.Infof("Dry run: %d files would be deleted, remote left untouched", len(paths))
		return nil
	}

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	finish := d.logger.LogOperationStart("remote_delete", map[string]interface{}{
		"location": d.location,
		"count":    len(paths),
	})
	err := d.store.BatchDelete(callCtx, paths)
	d.logger.LogDeletion(d.location, len(paths), finish(err), err)
	if err != nil {
		return NewDeletionFailure("batch delete failed", err).
			WithContext("location", d.location).
			WithContext("count", len(paths))
	}
	return nil
}
