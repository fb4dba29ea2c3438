// Package render exports clustering results as HTML, colored terminal text
// or JSON.
package render

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Colors returns n evenly spaced CSS hsl() colors.
func Colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("hsl(%d, 80%%, 40%%)", hue(i, n))
	}
	return out
}

func hue(i, n int) int {
	return 360 * i / n
}

// ColorsToHTML renders one colored label per color.
func ColorsToHTML(colors []string, label func(i int) string) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		parts[i] = fmt.Sprintf("<font style='color:%s'>%s</font>", c, html.EscapeString(label(i)))
	}
	return strings.Join(parts, "&nbsp;")
}

// LinesToHTML renders lines in a <pre> block. skip may be nil; lineHTML
// defaults to "row: escaped line".
func LinesToHTML(lines []string, skip func(row int, line string) bool, lineHTML func(row int, line string) string) string {
	if lineHTML == nil {
		lineHTML = func(row int, line string) string {
			return fmt.Sprintf("%3d: %s", row, html.EscapeString(line))
		}
	}
	rows := make([]string, 0, len(lines))
	for row, line := range lines {
		if skip != nil && skip(row, line) {
			continue
		}
		rows = append(rows, lineHTML(row, line))
	}
	return "<pre>" + strings.Join(rows, "<br/>") + "</pre>"
}

// HTMLOptions tunes ClusteredLinesToHTML.
type HTMLOptions struct {
	// HideCaption drops the cluster legend.
	HideCaption bool
	// ClusterNames overrides the legend labels, keyed by cluster identifier.
	ClusterNames map[int]string
	// Skip hides some lines.
	Skip func(row int, line string) bool
}

// ClusterColors maps each distinct cluster identifier to a color, in
// ascending identifier order.
func ClusterColors(clusters []int) (ids []int, colors map[int]string) {
	seen := make(map[int]bool)
	for _, c := range clusters {
		if !seen[c] {
			seen[c] = true
			ids = append(ids, c)
		}
	}
	sort.Ints(ids)
	palette := Colors(len(ids))
	colors = make(map[int]string, len(ids))
	for i, id := range ids {
		colors[id] = palette[i]
	}
	return ids, colors
}

// ClusteredLinesToHTML renders lines with their row number colored by
// cluster, preceded by a legend.
func ClusteredLinesToHTML(lines []string, clusters []int, opts HTMLOptions) string {
	ids, colors := ClusterColors(clusters)

	var sb strings.Builder
	if !opts.HideCaption {
		legend := make([]string, len(ids))
		for i, id := range ids {
			legend[i] = colors[id]
		}
		sb.WriteString(ColorsToHTML(legend, func(i int) string {
			if name, ok := opts.ClusterNames[ids[i]]; ok {
				return name
			}
			return fmt.Sprintf("Cluster %d", i)
		}))
	}
	sb.WriteString(LinesToHTML(lines, opts.Skip, func(row int, line string) string {
		label := fmt.Sprintf("%3d", row)
		if row < len(clusters) {
			label = fmt.Sprintf("<font style='color:%s'>%s</font>", colors[clusters[row]], label)
		}
		return label + ": " + html.EscapeString(line)
	}))
	return sb.String()
}

// Page renders a standalone HTML document of the clustering.
func Page(lines []string, clusters []int) string {
	return PageWithOptions(lines, clusters, HTMLOptions{})
}

// PageWithOptions is Page with a tuned rendering.
func PageWithOptions(lines []string, clusters []int, opts HTMLOptions) string {
	return "<html><body>" + ClusteredLinesToHTML(lines, clusters, opts) + "</body></html>\n"
}
