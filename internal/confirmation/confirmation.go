package confirmation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"vaultwarden-retention/internal/display"
	"vaultwarden-retention/internal/retention"
)

// previewLimit is how many archives the summary lists before asking for "d"
const previewLimit = 10

// answer is a parsed reply to the deletion prompt
type answer int

const (
	answerNo answer = iota
	answerYes
	answerDetails
	answerInvalid
)

// Prompter asks an operator to approve a deletion set before it is removed
type Prompter struct {
	reader  *bufio.Reader
	out     io.Writer
	palette *display.Palette
}

// NewPrompter creates a Prompter reading answers from in and writing to out
func NewPrompter(in io.Reader, out io.Writer, palette *display.Palette) *Prompter {
	if palette == nil {
		palette = display.NewPlainPalette()
	}
	return &Prompter{
		reader:  bufio.NewReader(in),
		out:     out,
		palette: palette,
	}
}

// Confirm shows the deletion summary and waits for an answer. An empty
// answer declines. A cancelled context declines with the context's error.
func (p *Prompter) Confirm(ctx context.Context, decision retention.Decision) (bool, error) {
	if len(decision.Delete) == 0 {
		return false, nil
	}

	p.DisplaySummary(decision)

	for {
		input, err := p.prompt(ctx)
		if err != nil {
			return false, err
		}

		switch parseAnswer(input) {
		case answerYes:
			return true, nil
		case answerNo:
			fmt.Fprintln(p.out, p.palette.Sprint(display.RoleKeep, "Deletion cancelled, nothing was removed."))
			return false, nil
		case answerDetails:
			p.displayDetails(decision.Delete)
		default:
			fmt.Fprintf(p.out, "Invalid input '%s'. Please enter 'y' for yes, 'n' for no, or 'd' for details.\n", input)
		}
	}
}

// DisplaySummary prints what the decision would delete and keep
func (p *Prompter) DisplaySummary(decision retention.Decision) {
	fmt.Fprintln(p.out, p.palette.Sprint(display.RoleHeader, "Retention Summary"))
	fmt.Fprintln(p.out, strings.Repeat("-", 30))
	fmt.Fprintf(p.out, "Strategy: %s\n", decision.Policy)
	fmt.Fprintf(p.out, "Archives kept: %d\n", len(decision.Keep))
	fmt.Fprintln(p.out, p.palette.Sprintf(display.RoleDelete, "Archives to delete: %d (%s)",
		len(decision.Delete), humanize.Bytes(uint64(retention.TotalSize(decision.Delete)))))
	fmt.Fprintln(p.out)

	for i, a := range decision.Delete {
		if i == previewLimit {
			fmt.Fprintf(p.out, "  ... and %d more\n", len(decision.Delete)-previewLimit)
			break
		}
		fmt.Fprintf(p.out, "  %s\n", a.Name)
	}
	fmt.Fprintln(p.out)
}

func (p *Prompter) displayDetails(artifacts []retention.Artifact) {
	table := display.NewTable(p.palette, "DATE", "SIZE", "NAME")
	table.SetColumnAlignment(1, display.AlignRight)
	for _, a := range artifacts {
		table.AddRow(a.ParsedDate.Format("2006-01-02 15:04:05"), humanize.Bytes(uint64(a.Size)), a.Name)
	}
	fmt.Fprintln(p.out)
	_ = table.RenderTo(p.out)
	fmt.Fprintln(p.out)
}

// prompt reads one line, giving up when ctx is done
func (p *Prompter) prompt(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, p.palette.Sprint(display.RoleWarning, "Delete these archives? [y/N/d]: "))

	type reply struct {
		line string
		err  error
	}
	replies := make(chan reply, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		replies <- reply{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, p.palette.Sprint(display.RoleWarning, "Operation cancelled by user"))
		return "", ctx.Err()
	case r := <-replies:
		if r.err != nil {
			return "", fmt.Errorf("failed to read answer: %w", r.err)
		}
		return r.line, nil
	}
}

func parseAnswer(input string) answer {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return answerYes
	case "n", "no", "":
		return answerNo
	case "d", "details":
		return answerDetails
	default:
		return answerInvalid
	}
}
