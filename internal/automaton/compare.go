package automaton

// Relation describes how the languages of two automata relate.
type Relation int

const (
	// Incomparable means neither language contains the other.
	Incomparable Relation = iota
	// Equal means both automata accept the same words.
	Equal
	// Subset means the first language is strictly included in the second.
	Subset
	// Superset means the first language strictly includes the second.
	Superset
)

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal"
	case Subset:
		return "subset"
	case Superset:
		return "superset"
	default:
		return "incomparable"
	}
}

type statePair struct {
	a, b int
}

// Compare explores the product of a and b and returns the relation between
// L(a) and L(b).
func Compare(a, b *DFA) Relation {
	var alphabet [256]bool
	for _, c := range a.Alphabet() {
		alphabet[c] = true
	}
	for _, c := range b.Alphabet() {
		alphabet[c] = true
	}

	aInB, bInA := true, true
	start := statePair{a.Initial(), b.Initial()}
	seen := map[statePair]bool{start: true}
	queue := []statePair{start}
	for len(queue) > 0 && (aInB || bInA) {
		p := queue[0]
		queue = queue[1:]
		fa, fb := a.IsFinal(p.a), b.IsFinal(p.b)
		if fa && !fb {
			aInB = false
		}
		if fb && !fa {
			bInA = false
		}
		for c, ok := range alphabet {
			if !ok {
				continue
			}
			next := statePair{a.Delta(p.a, byte(c)), b.Delta(p.b, byte(c))}
			if next.a == Bottom && next.b == Bottom {
				continue
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	switch {
	case aInB && bInA:
		return Equal
	case aInB:
		return Subset
	case bInA:
		return Superset
	default:
		return Incomparable
	}
}
