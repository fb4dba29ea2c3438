// Package distance implements the pattern distance between two lines.
//
// The distance is an edit distance computed on pattern automata rather than
// on characters: replacing an infix by another infix matched by the same
// pattern costs little when the pattern is sparse (e.g. "ipv4") and almost
// nothing when it is dense (e.g. "any"); inserting or deleting an infix costs
// its length.
package distance

import (
	"container/heap"
	"math"

	"github.com/Aman-CERP/patclust/internal/pa"
)

const (
	// Exceeded is returned when the distance reaches the bound.
	Exceeded = -1
	// Unreachable is returned when the final vertices cannot be reached.
	Unreachable = -2
)

// Infinity is the bound used when no bound is wanted.
var Infinity = math.MaxFloat64

// LCSLength returns the length of the longest common subsequence of a and b.
func LCSLength(a, b string) int {
	if a == b {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// LCSDistance is the insertion/deletion edit distance between a and b.
func LCSDistance(a, b string) int {
	return len(a) + len(b) - 2*LCSLength(a, b)
}

type item struct {
	dist   float64
	i1, i2 int
}

// minHeap orders items by distance, then by positions.
type minHeap []item

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	if h[i].i1 != h[j].i1 {
		return h[i].i1 < h[j].i1
	}
	return h[i].i2 < h[j].i2
}
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)   { *h = append(*h, x.(item)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Distance returns the pattern distance between g1 and g2. densities is
// indexed like the automata labels. The search stops with Exceeded as soon as
// the smallest pending distance reaches maxDist.
//
// From a pair of vertices (i1, i2), for each label k:
//   - both automata follow their k arc; the cost is the LCS distance of the
//     two infixes weighted by densities[k] (0 when the infixes are equal);
//   - g1 alone follows its k arc; the cost is the infix length;
//   - g2 alone follows its k arc; the cost is the infix length.
func Distance(g1, g2 *pa.Automaton, densities []float64, maxDist float64) float64 {
	w1, w2 := g1.Word(), g2.Word()
	n1, n2 := len(w1), len(w2)
	visited := make([]bool, (n1+1)*(n2+1))

	h := &minHeap{{}}
	for h.Len() > 0 {
		cur := heap.Pop(h).(item)
		switch {
		case cur.dist >= maxDist:
			return Exceeded
		case cur.i1 == n1 && cur.i2 == n2:
			return cur.dist
		case visited[cur.i1*(n2+1)+cur.i2]:
			continue
		}
		visited[cur.i1*(n2+1)+cur.i2] = true

		for k, density := range densities {
			j1 := g1.DeltaIndex(cur.i1, k)
			j2 := g2.DeltaIndex(cur.i2, k)
			if j1 >= 0 && j2 >= 0 {
				s1, s2 := w1[cur.i1:j1], w2[cur.i2:j2]
				cost := 0.0
				if s1 != s2 {
					cost = float64(LCSDistance(s1, s2)) * density
				}
				heap.Push(h, item{cur.dist + cost, j1, j2})
			}
			if j1 >= 0 {
				heap.Push(h, item{cur.dist + float64(j1-cur.i1), j1, cur.i2})
			}
			if j2 >= 0 {
				heap.Push(h, item{cur.dist + float64(j2-cur.i2), cur.i1, j2})
			}
		}
	}
	return Unreachable
}

// Normalized divides the pattern distance by len(w1) + len(w2), so that it
// lies in [0, 1]. maxDist is expressed in the same unit and is scaled by the
// same length, so two empty lines always exceed it. Negative sentinels are
// returned unchanged.
func Normalized(g1, g2 *pa.Automaton, densities []float64, maxDist float64) float64 {
	norm := float64(len(g1.Word()) + len(g2.Word()))
	bound := Infinity
	if norm == 0 || maxDist < Infinity/norm {
		bound = maxDist * norm
	}
	d := Distance(g1, g2, densities, bound)
	if d <= 0 {
		return d
	}
	return d / norm
}
