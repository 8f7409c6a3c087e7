package retention

import (
	"time"
)

// RetentionResult represents the result of one retention run
type RetentionResult struct {
	RunID              string        `json:"run_id" yaml:"run_id"`
	Location           string        `json:"location" yaml:"location"`
	Mode               Mode          `json:"mode" yaml:"mode"`
	Policy             string        `json:"policy" yaml:"policy"`
	ObjectsListed      int           `json:"objects_listed" yaml:"objects_listed"`
	ArtifactsProcessed int           `json:"artifacts_processed" yaml:"artifacts_processed"`
	ArtifactsKept      int           `json:"artifacts_kept" yaml:"artifacts_kept"`
	ArtifactsDeleted   int           `json:"artifacts_deleted" yaml:"artifacts_deleted"`
	SkippedUndated     int           `json:"skipped_undated" yaml:"skipped_undated"`
	BytesReclaimed     int64         `json:"bytes_reclaimed" yaml:"bytes_reclaimed"`
	DeletedArtifacts   []Artifact    `json:"deleted_artifacts" yaml:"deleted_artifacts"`
	KeptArtifacts      []Artifact    `json:"kept_artifacts" yaml:"kept_artifacts"`
	Errors             []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
	StartedAt          time.Time     `json:"started_at" yaml:"started_at"`
	ProcessingTime     time.Duration `json:"processing_time" yaml:"processing_time"`
	DryRun             bool          `json:"dry_run" yaml:"dry_run"`
	// Declined is set when an interactive run was not approved
	Declined bool `json:"declined,omitempty" yaml:"declined,omitempty"`
}

// Success reports whether the run finished without a listing or deletion failure
func (r *RetentionResult) Success() bool {
	return len(r.Errors) == 0
}

func (r *RetentionResult) addError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// applyDecision copies the policy outcome into the result
func (r *RetentionResult) applyDecision(decision Decision) {
	r.Mode = decision.Mode
	r.Policy = decision.Policy
	r.ArtifactsKept = len(decision.Keep)
	r.ArtifactsDeleted = len(decision.Delete)
	r.KeptArtifacts = decision.Keep
	r.DeletedArtifacts = decision.Delete
	r.BytesReclaimed = TotalSize(decision.Delete)
}

// discardDeletions records that the planned deletions did not happen
func (r *RetentionResult) discardDeletions() {
	r.ArtifactsDeleted = 0
	r.BytesReclaimed = 0
	r.DeletedArtifacts = nil
}
