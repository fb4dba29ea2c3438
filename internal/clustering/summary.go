package clustering

import (
	"sort"
)

// Summary describes one cluster.
type Summary struct {
	// ID is the line index of the representative.
	ID             int    `json:"id"`
	Size           int    `json:"size"`
	Members        []int  `json:"members"`
	Representative string `json:"representative"`
	// Template is the best pattern decomposition of the representative.
	Template string `json:"template"`
}

// Members maps each cluster identifier to its ascending line indices.
func Members(clusters []int) map[int][]int {
	out := make(map[int][]int)
	for i, c := range clusters {
		out[c] = append(out[c], i)
	}
	return out
}

// Sizes maps each cluster identifier to its number of lines.
func Sizes(clusters []int) map[int]int {
	out := make(map[int]int)
	for _, c := range clusters {
		out[c]++
	}
	return out
}

// Summarize describes the clusters of r, largest first. densities is indexed
// like the automata labels.
func Summarize(r *Result, densities []float64) []Summary {
	members := Members(r.Clusters)
	out := make([]Summary, 0, len(members))
	for id, ms := range members {
		s := Summary{ID: id, Size: len(ms), Members: ms}
		if id < len(r.Lines) {
			s.Representative = r.Lines[id]
		}
		if id < len(r.Automata) && r.Automata[id] != nil {
			a := r.Automata[id]
			path, _ := a.ShortestPath(densities)
			s.Template = a.Template(path)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}
