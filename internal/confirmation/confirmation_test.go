package confirmation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultwarden-retention/internal/retention"
)

func testDecision(deleteCount int) retention.Decision {
	decision := retention.Decision{
		Mode:   retention.ModeCount,
		Policy: "Keep latest 1 files",
		Keep:   []retention.Artifact{{Name: "vaultwarden-20240201-020000.tar.gz"}},
	}
	for i := 1; i <= deleteCount; i++ {
		date := time.Date(2024, 1, i, 2, 0, 0, 0, time.Local)
		decision.Delete = append(decision.Delete, retention.Artifact{
			Name:       fmt.Sprintf("vaultwarden-%s.tar.gz", date.Format("20060102-150405")),
			Size:       1000,
			ParsedDate: date,
		})
	}
	return decision
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		input    string
		expected answer
	}{
		{"y", answerYes},
		{"YES", answerYes},
		{" yes ", answerYes},
		{"n", answerNo},
		{"No", answerNo},
		{"", answerNo},
		{"d", answerDetails},
		{"details", answerDetails},
		{"maybe", answerInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseAnswer(tt.input))
		})
	}
}

func TestConfirm_Answers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		approved bool
		contains string
	}{
		{name: "yes", input: "y\n", approved: true},
		{name: "no", input: "n\n", contains: "Deletion cancelled"},
		{name: "empty declines", input: "\n", contains: "Deletion cancelled"},
		{name: "no trailing newline", input: "yes", approved: true},
		{name: "invalid then yes", input: "maybe\ny\n", approved: true, contains: "Invalid input 'maybe'"},
		{name: "details then no", input: "d\nn\n", contains: "SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out, nil)

			approved, err := p.Confirm(context.Background(), testDecision(2))
			require.NoError(t, err)
			assert.Equal(t, tt.approved, approved)
			assert.Contains(t, out.String(), "Delete these archives? [y/N/d]: ")
			if tt.contains != "" {
				assert.Contains(t, out.String(), tt.contains)
			}
		})
	}
}

func TestConfirm_NothingToDelete(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out, nil)

	approved, err := p.Confirm(context.Background(), testDecision(0))
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Empty(t, out.String())
}

func TestConfirm_ClosedInput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out, nil)

	approved, err := p.Confirm(context.Background(), testDecision(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, approved)
}

func TestConfirm_Cancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	approved, err := NewPrompter(reader, &out, nil).Confirm(ctx, testDecision(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, approved)
	assert.Contains(t, out.String(), "Operation cancelled by user")
}

func TestDisplaySummary(t *testing.T) {
	var out bytes.Buffer
	NewPrompter(strings.NewReader(""), &out, nil).DisplaySummary(testDecision(12))

	text := out.String()
	assert.Contains(t, text, "Strategy: Keep latest 1 files")
	assert.Contains(t, text, "Archives kept: 1")
	assert.Contains(t, text, "Archives to delete: 12 (12 kB)")
	assert.Contains(t, text, "vaultwarden-20240110-020000.tar.gz")
	assert.NotContains(t, text, "vaultwarden-20240111-020000.tar.gz")
	assert.Contains(t, text, "... and 2 more")
}
