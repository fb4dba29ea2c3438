// Package output prints status messages for the patclust CLI.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	faint   lipgloss.Style
}

// New creates a new output Writer. Colors are applied only when color is true.
func New(out io.Writer, color bool) *Writer {
	return &Writer{
		out:      out,
		useColor: color,
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		faint:    lipgloss.NewStyle().Faint(true),
	}
}

func (w *Writer) paint(style lipgloss.Style, s string) string {
	if !w.useColor {
		return s
	}
	return style.Render(s)
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.paint(w.success, "✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.paint(w.warning, "!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.paint(w.failure, "✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Hint prints a dimmed, indented line.
func (w *Writer) Hint(msg string) {
	w.Status("", w.paint(w.faint, msg))
}

// Table prints rows as aligned columns. The first row is the header.
func (w *Writer) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	for i, row := range rows {
		line := strings.Join(row, "\t")
		if i == 0 {
			line = strings.ToUpper(line)
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
