package retention

import (
	"fmt"
	"strings"
	"time"

	"vaultwarden-retention/internal/logging"
)

// Mode names a retention strategy
type Mode string

const (
	ModeForever Mode = "forever"
	ModeCount   Mode = "count"
	ModeDays    Mode = "days"
	ModeSmart   Mode = "smart"
)

const (
	DefaultKeepDays  = 14
	DefaultKeepCount = 30

	smartDailyBuckets   = 7
	smartWeeklyBuckets  = 4
	smartMonthlyBuckets = 12
)

// Modes returns every supported mode
func Modes() []Mode {
	return []Mode{ModeDays, ModeCount, ModeSmart, ModeForever}
}

// ParseMode resolves a configured mode name. It reports false for names that
// are not a known mode.
func ParseMode(name string) (Mode, bool) {
	mode := Mode(strings.ToLower(strings.TrimSpace(name)))
	switch mode {
	case ModeForever, ModeCount, ModeDays, ModeSmart:
		return mode, true
	}
	return "", false
}

// Policy decides which artifacts of a catalog are deleted. Implementations
// are pure: the input is neither modified nor reordered, and the result
// preserves catalog order.
type Policy interface {
	Mode() Mode
	// Describe returns the human readable strategy line
	Describe() string
	// Select returns the artifacts to delete. artifacts must be ordered
	// newest first.
	Select(artifacts []Artifact, now time.Time) []Artifact
}

// Settings selects and parameterizes a policy
type Settings struct {
	Mode      string `mapstructure:"mode" yaml:"mode"`
	KeepDays  int    `mapstructure:"keep_days" yaml:"keep_days"`
	KeepCount int    `mapstructure:"keep_count" yaml:"keep_count"`
}

// NewPolicy builds the policy named by settings. An unknown mode falls back
// to the days policy and is logged as a warning.
func NewPolicy(settings Settings, logger *logging.Logger) Policy {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	mode, ok := ParseMode(settings.Mode)
	if !ok {
		logger.WithField("mode", settings.Mode).
			Warnf("Unknown retention mode %q, falling back to %s", settings.Mode, ModeDays)
		mode = ModeDays
	}

	switch mode {
	case ModeForever:
		return ForeverPolicy{}
	case ModeCount:
		return NewCountPolicy(settings.KeepCount)
	case ModeSmart:
		return NewSmartPolicy()
	default:
		return NewDaysPolicy(settings.KeepDays)
	}
}

// ForeverPolicy never deletes anything
type ForeverPolicy struct{}

func (ForeverPolicy) Mode() Mode { return ModeForever }

func (ForeverPolicy) Describe() string { return "Forever (Do nothing)" }

func (ForeverPolicy) Select(artifacts []Artifact, now time.Time) []Artifact {
	return nil
}

// CountPolicy keeps the Keep most recent artifacts
type CountPolicy struct {
	Keep int
}

// NewCountPolicy creates a CountPolicy. A non-positive keep falls back to
// DefaultKeepCount.
func NewCountPolicy(keep int) CountPolicy {
	if keep <= 0 {
		keep = DefaultKeepCount
	}
	return CountPolicy{Keep: keep}
}

func (p CountPolicy) Mode() Mode { return ModeCount }

func (p CountPolicy) Describe() string {
	return fmt.Sprintf("Keep latest %d files", p.Keep)
}

func (p CountPolicy) Select(artifacts []Artifact, now time.Time) []Artifact {
	if p.Keep <= 0 || len(artifacts) <= p.Keep {
		return nil
	}
	return cloneArtifacts(artifacts[p.Keep:])
}

// DaysPolicy keeps artifacts dated within the last Keep days
type DaysPolicy struct {
	Keep int
}

// NewDaysPolicy creates a DaysPolicy. A non-positive keep falls back to
// DefaultKeepDays.
func NewDaysPolicy(keep int) DaysPolicy {
	if keep <= 0 {
		keep = DefaultKeepDays
	}
	return DaysPolicy{Keep: keep}
}

func (p DaysPolicy) Mode() Mode { return ModeDays }

func (p DaysPolicy) Describe() string {
	return fmt.Sprintf("Keep files within %d days", p.Keep)
}

// Cutoff returns the oldest instant that is still retained. It steps back
// calendar days, so a DST change inside the window does not move it.
func (p DaysPolicy) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Keep)
}

func (p DaysPolicy) Select(artifacts []Artifact, now time.Time) []Artifact {
	if p.Keep <= 0 {
		return nil
	}
	cutoff := p.Cutoff(now)

	var out []Artifact
	for _, a := range artifacts {
		if a.ParsedDate.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// SmartPolicy is a grandfather-father-son rotation. It keeps the newest
// artifact, plus the newest artifact of each of the last Daily calendar
// days, Weekly weeks and Monthly months.
type SmartPolicy struct {
	Daily   int
	Weekly  int
	Monthly int
}

// NewSmartPolicy creates a SmartPolicy with 7 daily, 4 weekly and 12
// monthly buckets
func NewSmartPolicy() SmartPolicy {
	return SmartPolicy{
		Daily:   smartDailyBuckets,
		Weekly:  smartWeeklyBuckets,
		Monthly: smartMonthlyBuckets,
	}
}

func (p SmartPolicy) Mode() Mode { return ModeSmart }

func (p SmartPolicy) Describe() string { return "Smart (GFS)" }

func (p SmartPolicy) Select(artifacts []Artifact, now time.Time) []Artifact {
	if len(artifacts) == 0 {
		return nil
	}

	keep := p.KeepSet(artifacts, now)

	var out []Artifact
	for _, a := range artifacts {
		if !keep[a.Path] {
			out = append(out, a)
		}
	}
	return out
}

// KeepSet returns the paths retained by the rotation
func (p SmartPolicy) KeepSet(artifacts []Artifact, now time.Time) map[string]bool {
	keep := make(map[string]bool)
	if len(artifacts) == 0 {
		return keep
	}

	keep[artifacts[0].Path] = true

	// Bucket keys are calendar based, so now is read in the same zone as
	// the artifact dates.
	now = now.In(artifacts[0].ParsedDate.Location())

	for i := 0; i < p.Daily; i++ {
		keepFirstInBucket(artifacts, keep, DayKey, DayKey(now.AddDate(0, 0, -i)))
	}
	for i := 0; i < p.Weekly; i++ {
		keepFirstInBucket(artifacts, keep, WeekKey, WeekKey(now.AddDate(0, 0, -7*i)))
	}
	for i := 0; i < p.Monthly; i++ {
		keepFirstInBucket(artifacts, keep, MonthKey, monthKeyBefore(now, i))
	}

	return keep
}

// keepFirstInBucket marks the first artifact whose bucket matches key. The
// catalog is newest first, so that is the newest one in the bucket.
func keepFirstInBucket(artifacts []Artifact, keep map[string]bool, bucket func(time.Time) string, key string) {
	for _, a := range artifacts {
		if bucket(a.ParsedDate) == key {
			keep[a.Path] = true
			return
		}
	}
}

func cloneArtifacts(artifacts []Artifact) []Artifact {
	out := make([]Artifact, len(artifacts))
	copy(out, artifacts)
	return out
}

// Decision is the outcome of applying a policy to a catalog
type Decision struct {
	Mode   Mode       `json:"mode" yaml:"mode"`
	Policy string     `json:"policy" yaml:"policy"`
	Keep   []Artifact `json:"keep" yaml:"keep"`
	Delete []Artifact `json:"delete" yaml:"delete"`
}

// Decide applies policy to the artifacts and splits them into kept and
// deleted, both in catalog order.
func Decide(policy Policy, artifacts []Artifact, now time.Time) Decision {
	toDelete := policy.Select(artifacts, now)

	deleted := make(map[string]bool, len(toDelete))
	for _, a := range toDelete {
		deleted[a.Path] = true
	}

	keep := make([]Artifact, 0, len(artifacts)-len(toDelete))
	for _, a := range artifacts {
		if !deleted[a.Path] {
			keep = append(keep, a)
		}
	}

	return Decision{
		Mode:   policy.Mode(),
		Policy: policy.Describe(),
		Keep:   keep,
		Delete: toDelete,
	}
}
