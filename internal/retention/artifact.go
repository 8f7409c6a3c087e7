package retention

import (
	"time"
)

// Artifact is one backup archive admitted to the catalog. Values are never
// modified once the catalog is built.
type Artifact struct {
	Name       string    `json:"name" yaml:"name"`
	Path       string    `json:"path" yaml:"path"`
	Size       int64     `json:"size" yaml:"size"`
	ModTime    time.Time `json:"mod_time" yaml:"mod_time"`
	ParsedDate time.Time `json:"parsed_date" yaml:"parsed_date"`
}

// Catalog is the set of artifacts at a location, ordered by ParsedDate
// descending. Index 0 is the newest artifact.
type Catalog struct {
	Artifacts []Artifact `json:"artifacts" yaml:"artifacts"`
	// Listed is the number of entries the remote store returned.
	Listed int `json:"listed" yaml:"listed"`
	// SkippedUndated are names that matched prefix and suffix but carry no
	// parsable date. They are retained by omission.
	SkippedUndated []string `json:"skipped_undated,omitempty" yaml:"skipped_undated,omitempty"`
}

// Len returns the number of artifacts in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Artifacts)
}

// Newest returns the most recent artifact
func (c *Catalog) Newest() (Artifact, bool) {
	if c.Len() == 0 {
		return Artifact{}, false
	}
	return c.Artifacts[0], true
}

// TotalSize returns the summed size of the artifacts
func TotalSize(artifacts []Artifact) int64 {
	var total int64
	for _, a := range artifacts {
		total += a.Size
	}
	return total
}
