package retention

import (
	"context"
	"sort"
	"strings"
	"time"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/storage"
)

// DefaultPrefix is the artifact name prefix used when none is configured
const DefaultPrefix = "vaultwarden"

// IsArchiveName reports whether name has a recognized archive suffix:
// any tarball (.tar.gz, .tar.xz, ...) or a zip file.
func IsArchiveName(name string) bool {
	return strings.Contains(name, ".tar.") || strings.HasSuffix(name, ".zip")
}

// Admits reports whether an object name is in scope for retention under prefix
func Admits(prefix, name string) bool {
	return strings.HasPrefix(name, prefix) && IsArchiveName(name)
}

// BuildCatalog lists the store and returns the dated artifacts that carry the
// prefix, newest first. When the listing fails the returned catalog is empty
// and the error is a ListingFailure; callers should proceed with the empty
// catalog.
func BuildCatalog(ctx context.Context, lister storage.Lister, location, prefix string, logger *logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	finish := logger.LogOperationStart("remote_list", map[string]interface{}{"location": location})
	objects, err := lister.List(ctx)
	elapsed := finish(err)
	if err != nil {
		logger.LogListing(location, 0, 0, elapsed, err)
		return &Catalog{}, NewListingFailure("failed to list remote location", err).
			WithContext("location", location)
	}

	catalog := NewCatalog(objects, prefix, time.Local)
	logger.LogListing(location, catalog.Listed, catalog.Len(), elapsed, nil)

	for _, name := range catalog.SkippedUndated {
		logger.WithField("artifact", name).Debug("Skipping artifact without a parsable date")
	}

	return catalog, nil
}

// NewCatalog filters and orders a raw listing. Dates are read in loc.
func NewCatalog(objects []storage.Object, prefix string, loc *time.Location) *Catalog {
	catalog := &Catalog{
		Artifacts: make([]Artifact, 0, len(objects)),
		Listed:    len(objects),
	}

	for _, obj := range objects {
		if !Admits(prefix, obj.Name) {
			continue
		}

		parsed, ok := extractDateIn(obj.Name, loc)
		if !ok {
			catalog.SkippedUndated = append(catalog.SkippedUndated, obj.Name)
			continue
		}

		path := obj.Path
		if path == "" {
			path = obj.Name
		}

		catalog.Artifacts = append(catalog.Artifacts, Artifact{
			Name:       obj.Name,
			Path:       path,
			Size:       obj.Size,
			ModTime:    obj.ModTime,
			ParsedDate: parsed,
		})
	}

	// Newest first; equal dates fall back to the path so the order, and with
	// it every policy decision, does not depend on listing order.
	sort.SliceStable(catalog.Artifacts, func(i, j int) bool {
		a, b := catalog.Artifacts[i], catalog.Artifacts[j]
		if !a.ParsedDate.Equal(b.ParsedDate) {
			return a.ParsedDate.After(b.ParsedDate)
		}
		return a.Path > b.Path
	})

	return catalog
}
