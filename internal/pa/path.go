package pa

import (
	"math"
	"strings"

	"github.com/Aman-CERP/patclust/internal/automaton"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

// ShortestPath returns the path from Initial to Final minimizing the sum of
// the label densities, and its weight. It is the most informative
// decomposition of the line into patterns. densities is indexed like Labels;
// a missing density counts as 1.
//
// Arcs always move forward in the line, so vertices are relaxed in position
// order.
func (a *Automaton) ShortestPath(densities []float64) ([]Edge, float64) {
	if a.Final() == a.Initial() {
		return nil, 0
	}
	dist := make(map[int]float64, len(a.vertices))
	pred := make(map[int]Edge, len(a.vertices))
	for _, v := range a.vertices {
		dist[v] = math.Inf(1)
	}
	dist[a.Initial()] = 0

	for _, u := range a.vertices {
		du := dist[u]
		if math.IsInf(du, 1) {
			continue
		}
		for k, label := range a.labels {
			v := a.DeltaIndex(u, k)
			if v == automaton.Bottom {
				continue
			}
			w := 1.0
			if k < len(densities) {
				w = densities[k]
			}
			if du+w < dist[v] {
				dist[v] = du + w
				pred[v] = Edge{Source: u, Target: v, Label: label}
			}
		}
	}

	final := a.Final()
	if math.IsInf(dist[final], 1) {
		return nil, dist[final]
	}
	var path []Edge
	for v := final; v != a.Initial(); {
		e := pred[v]
		path = append(path, e)
		v = e.Source
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[final]
}

// Template renders a path as a line template: matched infixes are replaced by
// "<label>" and "any" infixes are kept verbatim.
func (a *Automaton) Template(path []Edge) string {
	var sb strings.Builder
	for _, e := range path {
		if e.Label == patterns.Any {
			sb.WriteString(a.Infix(e))
			continue
		}
		sb.WriteByte('<')
		sb.WriteString(e.Label)
		sb.WriteByte('>')
	}
	return sb.String()
}
