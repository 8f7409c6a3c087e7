package display

import (
	"time"

	"vaultwarden-retention/internal/retention"
)

// Action is what a plan does with an artifact
type Action string

const (
	ActionKeep   Action = "keep"
	ActionDelete Action = "delete"
)

// ArtifactView is one catalog entry as shown to the operator
type ArtifactView struct {
	Name   string    `json:"name" yaml:"name"`
	Path   string    `json:"path" yaml:"path"`
	Date   time.Time `json:"date" yaml:"date"`
	Size   int64     `json:"size" yaml:"size"`
	Action Action    `json:"action,omitempty" yaml:"action,omitempty"`
}

// PlanView is a retention decision rendered without touching the remote
type PlanView struct {
	Location         string         `json:"location" yaml:"location"`
	Mode             retention.Mode `json:"mode" yaml:"mode"`
	Policy           string         `json:"policy" yaml:"policy"`
	GeneratedAt      time.Time      `json:"generated_at" yaml:"generated_at"`
	Listed           int            `json:"listed" yaml:"listed"`
	Total            int            `json:"total" yaml:"total"`
	KeepCount        int            `json:"keep_count" yaml:"keep_count"`
	DeleteCount      int            `json:"delete_count" yaml:"delete_count"`
	BytesReclaimable int64          `json:"bytes_reclaimable" yaml:"bytes_reclaimable"`
	Artifacts        []ArtifactView `json:"artifacts" yaml:"artifacts"`
	SkippedUndated   []string       `json:"skipped_undated,omitempty" yaml:"skipped_undated,omitempty"`
}

// NewPlanView merges a decision back into catalog order
func NewPlanView(location string, catalog *retention.Catalog, decision retention.Decision, now time.Time) PlanView {
	view := PlanView{
		Location:         location,
		Mode:             decision.Mode,
		Policy:           decision.Policy,
		GeneratedAt:      now,
		KeepCount:        len(decision.Keep),
		DeleteCount:      len(decision.Delete),
		BytesReclaimable: retention.TotalSize(decision.Delete),
	}
	if catalog == nil {
		return view
	}

	deleted := make(map[string]bool, len(decision.Delete))
	for _, a := range decision.Delete {
		deleted[a.Path] = true
	}

	view.Listed = catalog.Listed
	view.Total = catalog.Len()
	view.SkippedUndated = catalog.SkippedUndated
	view.Artifacts = make([]ArtifactView, 0, catalog.Len())
	for _, a := range catalog.Artifacts {
		action := ActionKeep
		if deleted[a.Path] {
			action = ActionDelete
		}
		view.Artifacts = append(view.Artifacts, newArtifactView(a, action))
	}
	return view
}

// CatalogView lists the artifacts at a location
type CatalogView struct {
	Location       string         `json:"location" yaml:"location"`
	Listed         int            `json:"listed" yaml:"listed"`
	Total          int            `json:"total" yaml:"total"`
	TotalSize      int64          `json:"total_size" yaml:"total_size"`
	Artifacts      []ArtifactView `json:"artifacts" yaml:"artifacts"`
	SkippedUndated []string       `json:"skipped_undated,omitempty" yaml:"skipped_undated,omitempty"`
}

// NewCatalogView builds the listing view of a catalog
func NewCatalogView(location string, catalog *retention.Catalog) CatalogView {
	view := CatalogView{Location: location}
	if catalog == nil {
		return view
	}

	view.Listed = catalog.Listed
	view.Total = catalog.Len()
	view.TotalSize = retention.TotalSize(catalog.Artifacts)
	view.SkippedUndated = catalog.SkippedUndated
	view.Artifacts = make([]ArtifactView, 0, catalog.Len())
	for _, a := range catalog.Artifacts {
		view.Artifacts = append(view.Artifacts, newArtifactView(a, ""))
	}
	return view
}

func newArtifactView(a retention.Artifact, action Action) ArtifactView {
	return ArtifactView{
		Name:   a.Name,
		Path:   a.Path,
		Date:   a.ParsedDate,
		Size:   a.Size,
		Action: action,
	}
}
