package patterns

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/patclust/internal/automaton"
	"github.com/Aman-CERP/patclust/internal/density"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

// Pattern is a compiled named pattern.
type Pattern struct {
	Name    string
	Regexp  string
	DFA     *automaton.DFA
	Density float64
}

// Env is an immutable set of compiled patterns. It is safe for concurrent use.
type Env struct {
	alphabet []byte
	patterns []Pattern // sorted by name
	labels   map[string]int
}

// Option configures NewEnv.
type Option func(*envOptions)

type envOptions struct {
	alphabet string
	nMax     int
}

// WithAlphabet overrides the alphabet densities are computed against.
func WithAlphabet(alphabet string) Option {
	return func(o *envOptions) { o.alphabet = alphabet }
}

// WithDensityLength overrides the number of word lengths used for densities.
func WithDensityLength(n int) Option {
	return func(o *envOptions) { o.nMax = n }
}

// NewEnv compiles the selected patterns. regexps maps names to expressions;
// names selects a subset (all of regexps when empty). Names missing from
// regexps are resolved against the built-in catalog. The "any" pattern is
// always part of the environment.
func NewEnv(regexps map[string]string, names []string, opts ...Option) (*Env, error) {
	o := envOptions{alphabet: Printable}
	for _, opt := range opts {
		opt(&o)
	}

	if len(names) == 0 {
		for name := range regexps {
			names = append(names, name)
		}
	}
	selected := make(map[string]string, len(names)+1)
	for _, name := range names {
		re, ok := regexps[name]
		if !ok {
			re, ok = catalog[name]
		}
		if !ok {
			return nil, apperrors.New(apperrors.ErrCodeUnknownPattern,
				fmt.Sprintf("unknown pattern %q", name), nil).
				WithDetail("pattern", name).
				WithSuggestion("run 'patclust patterns' to list the built-in patterns")
		}
		selected[name] = re
	}
	if _, ok := selected[Any]; !ok {
		if re, ok := regexps[Any]; ok {
			selected[Any] = re
		} else {
			selected[Any] = ReAny
		}
	}

	sorted := make([]string, 0, len(selected))
	for name := range selected {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	alphabet := []byte(o.alphabet)
	env := &Env{
		alphabet: alphabet,
		patterns: make([]Pattern, len(sorted)),
		labels:   make(map[string]int, len(sorted)),
	}

	var g errgroup.Group
	for i, name := range sorted {
		env.labels[name] = i
		g.Go(func() error {
			dfa, err := automaton.Compile(selected[name])
			if err != nil {
				code := apperrors.ErrCodeInvalidPattern
				if errors.Is(err, automaton.ErrTooManyStates) {
					code = apperrors.ErrCodeAutomatonTooLarge
				}
				return apperrors.New(code,
					fmt.Sprintf("cannot compile pattern %q", name), err).
					WithDetail("pattern", name).
					WithDetail("regexp", selected[name])
			}
			env.patterns[i] = Pattern{
				Name:    name,
				Regexp:  selected[name],
				DFA:     dfa,
				Density: density.Of(dfa, alphabet, o.nMax, nil),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return env, nil
}

// DefaultEnv compiles DefaultNames from the built-in catalog.
func DefaultEnv() (*Env, error) {
	return NewEnv(catalog, DefaultNames)
}

// Names returns the sorted pattern names, "any" included.
func (e *Env) Names() []string {
	out := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = p.Name
	}
	return out
}

// Len returns the number of patterns, "any" included.
func (e *Env) Len() int {
	return len(e.patterns)
}

// Pattern returns the compiled pattern called name.
func (e *Env) Pattern(name string) (Pattern, bool) {
	i, ok := e.labels[name]
	if !ok {
		return Pattern{}, false
	}
	return e.patterns[i], true
}

// Patterns returns the compiled patterns sorted by name.
func (e *Env) Patterns() []Pattern {
	return append([]Pattern(nil), e.patterns...)
}

// Searchable returns the patterns looked for in lines: every pattern but "any".
func (e *Env) Searchable() []Pattern {
	out := make([]Pattern, 0, len(e.patterns))
	for _, p := range e.patterns {
		if p.Name != Any {
			out = append(out, p)
		}
	}
	return out
}

// LabelIndex returns the position of name in Names, or -1.
func (e *Env) LabelIndex(name string) int {
	if i, ok := e.labels[name]; ok {
		return i
	}
	return -1
}

// Density returns the language density of name (1 when unknown).
func (e *Env) Density(name string) float64 {
	if p, ok := e.Pattern(name); ok {
		return p.Density
	}
	return 1
}

// Densities returns the densities ordered like Names.
func (e *Env) Densities() []float64 {
	out := make([]float64, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = p.Density
	}
	return out
}

// Alphabet returns the alphabet densities are computed against.
func (e *Env) Alphabet() []byte {
	return append([]byte(nil), e.alphabet...)
}

// Inclusion records that every word of Sub is also a word of Super.
type Inclusion struct {
	Sub   string
	Super string
}

// Inclusions returns the language inclusions between the patterns, "any"
// excluded. Equal languages yield both directions.
func (e *Env) Inclusions() []Inclusion {
	var out []Inclusion
	ps := e.Searchable()
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			switch automaton.Compare(ps[i].DFA, ps[j].DFA) {
			case automaton.Subset:
				out = append(out, Inclusion{Sub: ps[i].Name, Super: ps[j].Name})
			case automaton.Superset:
				out = append(out, Inclusion{Sub: ps[j].Name, Super: ps[i].Name})
			case automaton.Equal:
				out = append(out,
					Inclusion{Sub: ps[i].Name, Super: ps[j].Name},
					Inclusion{Sub: ps[j].Name, Super: ps[i].Name})
			}
		}
	}
	return out
}

// String renders one line per pattern: name, density and regexp.
func (e *Env) String() string {
	var sb strings.Builder
	for _, p := range e.patterns {
		fmt.Fprintf(&sb, "%-12s %.6g %s\n", p.Name, p.Density, p.Regexp)
	}
	return sb.String()
}
