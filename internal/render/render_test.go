package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/clustering"
)

func TestColors(t *testing.T) {
	for n := 1; n < 5; n++ {
		assert.Len(t, Colors(n), n)
	}
	assert.Equal(t, []string{"hsl(0, 80%, 40%)", "hsl(120, 80%, 40%)", "hsl(240, 80%, 40%)"}, Colors(3))
	assert.Empty(t, Colors(0))
}

func TestPalette(t *testing.T) {
	p := Palette(3)

	require.Len(t, p, 3)
	for _, c := range p {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, c)
	}
	assert.NotEqual(t, p[0], p[1])
}

func TestColorsToHTML(t *testing.T) {
	out := ColorsToHTML(Colors(2), func(i int) string { return []string{"a<b", "c"}[i] })

	assert.Equal(t,
		"<font style='color:hsl(0, 80%, 40%)'>a&lt;b</font>&nbsp;<font style='color:hsl(180, 80%, 40%)'>c</font>",
		out)
}

func TestLinesToHTML(t *testing.T) {
	out := LinesToHTML([]string{"x", "<y>", "z"}, func(row int, _ string) bool { return row == 2 }, nil)

	assert.Equal(t, "<pre>  0: x<br/>  1: &lt;y&gt;</pre>", out)
}

func TestClusteredLinesToHTML(t *testing.T) {
	// Given: five lines in two clusters
	lines := []string{"line0", "line1", "line2", "line3", "line4"}
	clusters := []int{0, 1, 0, 1, 0}

	// When
	out := ClusteredLinesToHTML(lines, clusters, HTMLOptions{
		ClusterNames: map[int]string{0: "cluster 0", 1: "cluster 1"},
	})

	// Then: the legend precedes the colored rows
	assert.True(t, strings.HasPrefix(out, "<font style='color:hsl(0, 80%, 40%)'>cluster 0</font>&nbsp;"))
	assert.Contains(t, out, "<font style='color:hsl(180, 80%, 40%)'>  1</font>: line1")
	assert.Contains(t, out, "<font style='color:hsl(0, 80%, 40%)'>  4</font>: line4")
	assert.Equal(t, 4, strings.Count(out, "<br/>"))
}

func TestClusteredLinesToHTML_DefaultNamesAndNoCaption(t *testing.T) {
	lines := []string{"a", "b"}
	clusters := []int{0, 1}

	assert.Contains(t, ClusteredLinesToHTML(lines, clusters, HTMLOptions{}), ">Cluster 1</font>")

	out := ClusteredLinesToHTML(lines, clusters, HTMLOptions{HideCaption: true})
	assert.True(t, strings.HasPrefix(out, "<pre>"))
}

func TestPage(t *testing.T) {
	out := Page([]string{"a"}, []int{0})

	assert.True(t, strings.HasPrefix(out, "<html><body>"))
	assert.True(t, strings.HasSuffix(out, "</body></html>\n"))
}

func TestClusterColors(t *testing.T) {
	ids, colors := ClusterColors([]int{4, 0, 4, 2})

	assert.Equal(t, []int{0, 2, 4}, ids)
	assert.Equal(t, "hsl(0, 80%, 40%)", colors[0])
	assert.Equal(t, "hsl(240, 80%, 40%)", colors[4])
}

func TestTerminal_PlainLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	require.NoError(t, term.Lines([]string{"a", "b"}, []int{0, 0}))

	assert.Equal(t, "  0 [0]: a\n  1 [0]: b\n", buf.String())
}

func TestTerminal_ColoredLinesKeepText(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	require.NoError(t, term.Lines([]string{"a", "b"}, []int{0, 1}))

	assert.Contains(t, buf.String(), "a\n")
	assert.Contains(t, buf.String(), "[1]")
}

func TestTerminal_Summary(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	err := term.Summary([]clustering.Summary{
		{ID: 0, Size: 2, Members: []int{0, 1}, Representative: "1.2.3.4", Template: "<ipv4>"},
	})

	require.NoError(t, err)
	assert.Equal(t, "1 clusters\ncluster 0 (2 lines)\n  template: <ipv4>\n  example:  1.2.3.4\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteJSON(&buf, []int{0, 0, 2}))
	assert.Equal(t, "[0,0,2]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSummaryJSON(&buf, []clustering.Summary{{ID: 3, Size: 1, Members: []int{3}}}))

	assert.Contains(t, buf.String(), `"id": 3`)
	assert.Contains(t, buf.String(), `"members": [`)
}
