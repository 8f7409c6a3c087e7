package retention

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/storage"
	"vaultwarden-retention/internal/storage/storagetest"
)

func object(name string) storage.Object {
	return storage.Object{Name: name, Path: name, Size: 100}
}

func TestAdmits(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"vaultwarden-20240101-020000.tar.gz", true},
		{"vaultwarden-20240101-020000.tar.xz", true},
		{"vaultwarden-20240101-020000.zip", true},
		{"vaultwarden-20240101-020000.tar", false},
		{"vaultwarden-20240101-020000.sql.gz", false},
		{"other-20240101-020000.tar.gz", false},
		{"backup-vaultwarden-20240101-020000.tar.gz", false},
		{"vaultwarden.zip.partial", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Admits("vaultwarden", tt.name))
		})
	}
}

func TestNewCatalog(t *testing.T) {
	objects := []storage.Object{
		object("vaultwarden-20240102-020000.tar.gz"),
		object("vaultwarden-20240110-020000.zip"),
		object("random.tar.gz"),
		object("vaultwarden-latest.tar.gz"),
		object("vaultwarden-20240105-020000.tar.gz"),
		object("vaultwarden-20240106-020000.log"),
		object("notes.txt"),
	}

	catalog := NewCatalog(objects, "vaultwarden", time.UTC)

	assert.Equal(t, 7, catalog.Listed)
	require.Equal(t, 3, catalog.Len())
	assert.Equal(t, "vaultwarden-20240110-020000.zip", catalog.Artifacts[0].Name)
	assert.Equal(t, "vaultwarden-20240105-020000.tar.gz", catalog.Artifacts[1].Name)
	assert.Equal(t, "vaultwarden-20240102-020000.tar.gz", catalog.Artifacts[2].Name)
	assert.Equal(t, time.Date(2024, 1, 10, 2, 0, 0, 0, time.UTC), catalog.Artifacts[0].ParsedDate)
	assert.Equal(t, []string{"vaultwarden-latest.tar.gz"}, catalog.SkippedUndated)

	newest, ok := catalog.Newest()
	require.True(t, ok)
	assert.Equal(t, catalog.Artifacts[0], newest)
}

func TestNewCatalog_OrderIndependentOfListing(t *testing.T) {
	a := storage.Object{Name: "vaultwarden-20240101-020000.tar.gz", Path: "a/vaultwarden-20240101-020000.tar.gz"}
	b := storage.Object{Name: "vaultwarden-20240101-020000.tar.gz", Path: "b/vaultwarden-20240101-020000.tar.gz"}

	first := NewCatalog([]storage.Object{a, b}, "vaultwarden", time.UTC)
	second := NewCatalog([]storage.Object{b, a}, "vaultwarden", time.UTC)

	assert.Equal(t, first.Artifacts, second.Artifacts)
}

func TestNewCatalog_PathDefaultsToName(t *testing.T) {
	catalog := NewCatalog([]storage.Object{{Name: "vaultwarden-20240101-020000.zip"}}, "vaultwarden", time.UTC)
	require.Equal(t, 1, catalog.Len())
	assert.Equal(t, "vaultwarden-20240101-020000.zip", catalog.Artifacts[0].Path)
}

func TestCatalog_Empty(t *testing.T) {
	var catalog *Catalog
	assert.Equal(t, 0, catalog.Len())

	_, ok := (&Catalog{}).Newest()
	assert.False(t, ok)
}

func TestBuildCatalog(t *testing.T) {
	store := storagetest.NewMemoryStore(
		object("vaultwarden-20240101-020000.tar.gz"),
		object("vaultwarden-20240102-020000.tar.gz"),
		object("vaultwarden-backup.tar.gz"),
	)

	var buf bytes.Buffer
	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelDebug, Output: &buf, Format: "text"})
	require.NoError(t, err)

	catalog, err := BuildCatalog(context.Background(), store, "memory:", "vaultwarden", logger)
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, "vaultwarden-20240102-020000.tar.gz", catalog.Artifacts[0].Name)
	assert.Equal(t, 1, store.ListCalls)
	assert.Contains(t, buf.String(), "Remote listing completed")
	assert.Contains(t, buf.String(), "operation=remote_list status=started")
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "Skipping artifact without a parsable date")
	assert.Contains(t, buf.String(), "vaultwarden-backup.tar.gz")
}

func TestBuildCatalog_ListingFailure(t *testing.T) {
	store := &storagetest.MockStore{}
	store.On("List", mock.Anything).Return(nil, errors.New("connection reset"))

	catalog, err := BuildCatalog(context.Background(), store, "drive:backups", "vaultwarden", logging.NewNopLogger())

	require.Error(t, err)
	assert.True(t, IsListingFailure(err))
	assert.Contains(t, err.Error(), "connection reset")
	require.NotNil(t, catalog)
	assert.Equal(t, 0, catalog.Len())
	store.AssertExpectations(t)
}
