package display

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Alignment represents column alignment options
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// BorderStyle defines table border characters
type BorderStyle struct {
	Corner     string
	Horizontal string
	Vertical   string
}

// Border styles
var (
	ASCIIBorderStyle = BorderStyle{Corner: "+", Horizontal: "-", Vertical: "|"}
	NoBorderStyle    = BorderStyle{}
)

// Cell is a table cell. Role colors the cell after padding so escape codes
// never count towards the column width.
type Cell struct {
	Text string
	Role Role
}

// Table renders rows as an aligned text table
type Table struct {
	headers    []string
	rows       [][]Cell
	alignments map[int]Alignment
	border     BorderStyle
	padding    int
	maxWidth   int
	palette    *Palette
}

// NewTable creates a table with an ASCII border sized to the terminal
func NewTable(palette *Palette, headers ...string) *Table {
	if palette == nil {
		palette = NewPlainPalette()
	}
	return &Table{
		headers:    headers,
		alignments: make(map[int]Alignment),
		border:     ASCIIBorderStyle,
		padding:    1,
		maxWidth:   getTerminalWidth(),
		palette:    palette,
	}
}

// SetBorder changes the border style
func (t *Table) SetBorder(border BorderStyle) {
	t.border = border
}

// SetMaxWidth limits the rendered width. Zero disables the limit.
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

// SetColumnAlignment sets the alignment of a column
func (t *Table) SetColumnAlignment(column int, alignment Alignment) {
	t.alignments[column] = alignment
}

// AddRow appends an uncolored row
func (t *Table) AddRow(values ...string) {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = Cell{Text: v}
	}
	t.rows = append(t.rows, row)
}

// AddCells appends a row of cells
func (t *Table) AddCells(cells ...Cell) {
	t.rows = append(t.rows, cells)
}

// Render returns the table as text
func (t *Table) Render() string {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return ""
	}

	var b strings.Builder
	rule := t.rule(widths)

	writeLine := func(line string) {
		if line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	writeLine(rule)
	if len(t.headers) > 0 {
		header := make([]Cell, len(t.headers))
		for i, h := range t.headers {
			header[i] = Cell{Text: h, Role: RoleHeader}
		}
		writeLine(t.renderRow(header, widths))
		writeLine(rule)
	}
	for _, row := range t.rows {
		writeLine(t.renderRow(row, widths))
	}
	writeLine(rule)

	return b.String()
}

// RenderTo writes the table to w
func (t *Table) RenderTo(w io.Writer) error {
	_, err := io.WriteString(w, t.Render())
	return err
}

func (t *Table) columnCount() int {
	count := len(t.headers)
	for _, row := range t.rows {
		if len(row) > count {
			count = len(row)
		}
	}
	return count
}

// columnWidths returns the content width of each column, shrinking the
// widest column when the table would exceed the maximum width
func (t *Table) columnWidths() []int {
	widths := make([]int, t.columnCount())
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell.Text); w > widths[i] {
				widths[i] = w
			}
		}
	}

	if t.maxWidth <= 0 {
		return widths
	}

	for t.totalWidth(widths) > t.maxWidth {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 8 {
			break
		}
		widths[widest]--
	}
	return widths
}

func (t *Table) totalWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + t.padding*2
	}
	if t.border.Vertical != "" {
		total += len(widths) + 1
	}
	return total
}

func (t *Table) rule(widths []int) string {
	if t.border.Horizontal == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.border.Corner)
	for _, w := range widths {
		b.WriteString(strings.Repeat(t.border.Horizontal, w+t.padding*2))
		b.WriteString(t.border.Corner)
	}
	return b.String()
}

func (t *Table) renderRow(row []Cell, widths []int) string {
	var b strings.Builder
	b.WriteString(t.border.Vertical)

	for i, width := range widths {
		var cell Cell
		if i < len(row) {
			cell = row[i]
		}
		b.WriteString(t.formatCell(cell, width, t.alignments[i]))
		if t.border.Vertical != "" {
			b.WriteString(t.border.Vertical)
		} else if i < len(widths)-1 {
			b.WriteString(" ")
		}
	}

	if t.border.Vertical == "" {
		return strings.TrimRight(b.String(), " ")
	}
	return b.String()
}

// formatCell truncates, pads and colors one cell
func (t *Table) formatCell(cell Cell, width int, alignment Alignment) string {
	content := cell.Text
	if utf8.RuneCountInString(content) > width {
		runes := []rune(content)
		if width > 3 {
			content = string(runes[:width-3]) + "..."
		} else {
			content = string(runes[:width])
		}
	}

	fill := strings.Repeat(" ", width-utf8.RuneCountInString(content))
	pad := strings.Repeat(" ", t.padding)
	colored := t.palette.Sprint(cell.Role, content)

	if alignment == AlignRight {
		return pad + fill + colored + pad
	}
	return pad + colored + fill + pad
}

// getTerminalWidth returns the width of the terminal on stdout, or zero when
// stdout is not a terminal
func getTerminalWidth() int {
	width, _, err := term.GetSize(1)
	if err != nil {
		return 0
	}
	return width
}
