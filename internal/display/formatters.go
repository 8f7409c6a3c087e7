package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"vaultwarden-retention/internal/retention"
)

// OutputFormat represents different output format options
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// OutputFormats lists the accepted format names
func OutputFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}
}

// ParseOutputFormat maps a user supplied name to an OutputFormat
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected one of %s)", name, strings.Join(OutputFormats(), ", "))
}

// Renderer writes plans, listings and run results in one output format
type Renderer struct {
	out     io.Writer
	format  OutputFormat
	palette *Palette
}

// NewRenderer creates a renderer. Table output is colored when out is a terminal.
func NewRenderer(out io.Writer, format OutputFormat) *Renderer {
	return &Renderer{
		out:     out,
		format:  format,
		palette: NewPalette(out),
	}
}

// SetPalette replaces the palette used for table output
func (r *Renderer) SetPalette(palette *Palette) {
	r.palette = palette
}

// Format returns the output format
func (r *Renderer) Format() OutputFormat {
	return r.format
}

// Plan renders a retention plan
func (r *Renderer) Plan(view PlanView) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(view)
	case FormatYAML:
		return r.writeYAML(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", view.Location)
	fmt.Fprintf(&b, "Mode: %s | Total Files: %d\n", view.Mode, view.Total)
	fmt.Fprintf(&b, "Strategy: %s\n", view.Policy)

	if len(view.Artifacts) == 0 {
		b.WriteString(r.palette.Sprint(RoleMuted, "No backup files found."))
		b.WriteString("\n")
		return r.write(b.String())
	}

	table := NewTable(r.palette, "ACTION", "DATE", "AGE", "SIZE", "NAME")
	table.SetColumnAlignment(3, AlignRight)
	for _, a := range view.Artifacts {
		role := RoleKeep
		if a.Action == ActionDelete {
			role = RoleDelete
		}
		table.AddCells(
			Cell{Text: string(a.Action), Role: role},
			Cell{Text: a.Date.Format("2006-01-02 15:04:05")},
			Cell{Text: humanize.RelTime(a.Date, view.GeneratedAt, "ago", "from now"), Role: RoleMuted},
			Cell{Text: humanize.Bytes(uint64(a.Size))},
			Cell{Text: a.Name},
		)
	}
	b.WriteString(table.Render())

	if view.DeleteCount == 0 {
		b.WriteString("No files marked for deletion.\n")
	} else {
		b.WriteString(r.palette.Sprintf(RoleDelete, "%d of %d files would be deleted, reclaiming %s",
			view.DeleteCount, view.Total, humanize.Bytes(uint64(view.BytesReclaimable))))
		b.WriteString("\n")
	}
	r.writeSkipped(&b, view.SkippedUndated)

	return r.write(b.String())
}

// Catalog renders the artifacts at a location
func (r *Renderer) Catalog(view CatalogView) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(view)
	case FormatYAML:
		return r.writeYAML(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", view.Location)

	if len(view.Artifacts) == 0 {
		b.WriteString(r.palette.Sprint(RoleMuted, "No backup files found."))
		b.WriteString("\n")
		r.writeSkipped(&b, view.SkippedUndated)
		return r.write(b.String())
	}

	table := NewTable(r.palette, "DATE", "SIZE", "NAME")
	table.SetColumnAlignment(1, AlignRight)
	for _, a := range view.Artifacts {
		table.AddRow(a.Date.Format("2006-01-02 15:04:05"), humanize.Bytes(uint64(a.Size)), a.Name)
	}
	b.WriteString(table.Render())
	fmt.Fprintf(&b, "%d files, %s\n", view.Total, humanize.Bytes(uint64(view.TotalSize)))
	r.writeSkipped(&b, view.SkippedUndated)

	return r.write(b.String())
}

// Result renders the outcome of a run
func (r *Renderer) Result(result *retention.RetentionResult) error {
	if result == nil {
		return nil
	}
	switch r.format {
	case FormatJSON:
		return r.writeJSON(result)
	case FormatYAML:
		return r.writeYAML(result)
	}

	status := r.palette.Sprint(RoleKeep, "completed")
	if !result.Success() {
		status = r.palette.Sprint(RoleError, "failed")
	} else if result.DryRun {
		status = r.palette.Sprint(RoleWarning, "dry run")
	} else if result.Declined {
		status = r.palette.Sprint(RoleWarning, "declined")
	}

	table := NewTable(r.palette)
	table.SetBorder(NoBorderStyle)
	table.AddRow("Status:", status)
	table.AddRow("Location:", result.Location)
	table.AddRow("Mode:", string(result.Mode))
	table.AddRow("Files:", fmt.Sprintf("%d kept, %d deleted", result.ArtifactsKept, result.ArtifactsDeleted))
	table.AddRow("Reclaimed:", humanize.Bytes(uint64(result.BytesReclaimed)))
	table.AddRow("Duration:", result.ProcessingTime.Round(time.Millisecond).String())
	for _, e := range result.Errors {
		table.AddCells(Cell{Text: "Error:"}, Cell{Text: e, Role: RoleError})
	}

	return r.write(table.Render())
}

func (r *Renderer) writeSkipped(b *strings.Builder, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	noun := "files"
	if len(skipped) == 1 {
		noun = "file"
	}
	b.WriteString(r.palette.Sprintf(RoleWarning, "%d %s without a parsable date left untouched", len(skipped), noun))
	b.WriteString("\n")
}

func (r *Renderer) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	return r.write(string(data) + "\n")
}

func (r *Renderer) writeYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output to YAML: %w", err)
	}
	return r.write(string(data))
}

func (r *Renderer) write(s string) error {
	_, err := io.WriteString(r.out, s)
	return err
}
