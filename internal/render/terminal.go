package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Aman-CERP/patclust/internal/clustering"
)

// Palette returns the terminal equivalent of Colors: n hex colors.
func Palette(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = colorful.Hsl(float64(hue(i, n)), 0.8, 0.4).Hex()
	}
	return out
}

// Terminal writes clustering results as text, colored by cluster when
// enabled.
type Terminal struct {
	out    io.Writer
	color  bool
	header lipgloss.Style
	dim    lipgloss.Style
}

// NewTerminal creates a Terminal writing to w.
func NewTerminal(w io.Writer, color bool) *Terminal {
	t := &Terminal{out: w, color: color, header: lipgloss.NewStyle(), dim: lipgloss.NewStyle()}
	if color {
		t.header = t.header.Bold(true)
		t.dim = t.dim.Faint(true)
	}
	return t
}

func (t *Terminal) styles(clusters []int) map[int]lipgloss.Style {
	ids, _ := ClusterColors(clusters)
	palette := Palette(len(ids))
	out := make(map[int]lipgloss.Style, len(ids))
	for i, id := range ids {
		s := lipgloss.NewStyle()
		if t.color {
			s = s.Foreground(lipgloss.Color(palette[i]))
		}
		out[id] = s
	}
	return out
}

// Lines writes "row cluster: line" for each line.
func (t *Terminal) Lines(lines []string, clusters []int) error {
	styles := t.styles(clusters)
	for row, line := range lines {
		label := fmt.Sprintf("%3d", row)
		if row < len(clusters) {
			label = styles[clusters[row]].Render(fmt.Sprintf("%3d [%d]", row, clusters[row]))
		}
		if _, err := fmt.Fprintf(t.out, "%s: %s\n", label, line); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes one block per cluster: size, template and representative.
func (t *Terminal) Summary(summaries []clustering.Summary) error {
	var clusters []int
	for _, s := range summaries {
		clusters = append(clusters, s.ID)
	}
	styles := t.styles(clusters)

	var sb strings.Builder
	sb.WriteString(t.header.Render(fmt.Sprintf("%d clusters", len(summaries))))
	sb.WriteByte('\n')
	for _, s := range summaries {
		fmt.Fprintf(&sb, "%s %s\n",
			styles[s.ID].Render(fmt.Sprintf("cluster %d", s.ID)),
			t.dim.Render(fmt.Sprintf("(%d lines)", s.Size)))
		fmt.Fprintf(&sb, "  template: %s\n", s.Template)
		fmt.Fprintf(&sb, "  example:  %s\n", s.Representative)
	}
	_, err := io.WriteString(t.out, sb.String())
	return err
}

// WriteJSON writes the cluster assignment list, e.g. [0,0,2].
func WriteJSON(w io.Writer, clusters []int) error {
	if clusters == nil {
		clusters = []int{}
	}
	data, err := json.Marshal(clusters)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// WriteSummaryJSON writes the cluster summaries as indented JSON.
func WriteSummaryJSON(w io.Writer, summaries []clustering.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
