package automaton

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"sort"
	"strconv"
	"strings"
)

// MaxStates bounds the subset construction.
const MaxStates = 1 << 14

// ErrTooManyStates is returned when determinization exceeds MaxStates.
var ErrTooManyStates = errors.New("automaton too large")

// Compile parses expr and builds the equivalent DFA.
// The whole input is matched: there is no implicit ".*" around expr.
// Anchors and word boundaries are not supported.
//
// Log fields are separated by blanks, so \s stands for [ \t] and \S for
// [^ \t], not for the wider Perl classes.
func Compile(expr string) (*DFA, error) {
	re, err := syntax.Parse(blankClasses(expr), syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expr, err)
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	for _, inst := range prog.Inst {
		if inst.Op == syntax.InstEmptyWidth {
			return nil, fmt.Errorf("compile %q: empty-width assertions are not supported", expr)
		}
	}
	return determinize(prog)
}

// blankClasses rewrites \s and \S to the blank classes. Inside a bracket
// expression \s becomes its two members; \S is left to the parser there.
func blankClasses(expr string) string {
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr):
			next := expr[i+1]
			i++
			switch {
			case next == 's' && inClass:
				sb.WriteString(` \t`)
			case next == 's':
				sb.WriteString(`[ \t]`)
			case next == 'S' && !inClass:
				sb.WriteString(`[^ \t]`)
			default:
				sb.WriteByte(c)
				sb.WriteByte(next)
			}
			continue
		case c == '[' && !inClass:
			inClass = true
			sb.WriteByte(c)
			if i+1 < len(expr) && expr[i+1] == '^' {
				sb.WriteByte('^')
				i++
			}
			// A leading ']' is a literal member.
			if i+1 < len(expr) && expr[i+1] == ']' {
				sb.WriteByte(']')
				i++
			}
			continue
		case c == '[' && inClass && strings.HasPrefix(expr[i:], "[:"):
			if end := strings.Index(expr[i+2:], ":]"); end >= 0 {
				sb.WriteString(expr[i : i+2+end+2])
				i += 2 + end + 1
				continue
			}
		case c == ']' && inClass:
			inClass = false
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *DFA {
	d, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return d
}

// nfaState is an epsilon-closed set of rune-consuming instructions.
type nfaState struct {
	pcs   []uint32
	final bool
}

func (s nfaState) key() string {
	var sb strings.Builder
	if s.final {
		sb.WriteByte('F')
	}
	for _, pc := range s.pcs {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatUint(uint64(pc), 10))
	}
	return sb.String()
}

// closure follows epsilon instructions from the given program counters.
func closure(prog *syntax.Prog, from []uint32) nfaState {
	seen := make(map[uint32]bool)
	stack := append([]uint32(nil), from...)
	var st nfaState
	for len(stack) > 0 {
		pc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[pc] {
			continue
		}
		seen[pc] = true
		inst := &prog.Inst[pc]
		switch inst.Op {
		case syntax.InstAlt, syntax.InstAltMatch:
			stack = append(stack, inst.Out, inst.Arg)
		case syntax.InstCapture, syntax.InstNop:
			stack = append(stack, inst.Out)
		case syntax.InstMatch:
			st.final = true
		case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
			st.pcs = append(st.pcs, pc)
		}
	}
	sort.Slice(st.pcs, func(i, j int) bool { return st.pcs[i] < st.pcs[j] })
	return st
}

func matchByte(inst *syntax.Inst, b byte) bool {
	r := rune(b)
	switch inst.Op {
	case syntax.InstRuneAny:
		return true
	case syntax.InstRuneAnyNotNL:
		return r != '\n'
	default:
		return inst.MatchRune(r)
	}
}

func determinize(prog *syntax.Prog) (*DFA, error) {
	d := &DFA{}
	index := make(map[string]int)
	var queue []nfaState

	add := func(st nfaState) (int, error) {
		k := st.key()
		if q, ok := index[k]; ok {
			return q, nil
		}
		if d.NumStates() >= MaxStates {
			return Bottom, fmt.Errorf("%w: more than %d states", ErrTooManyStates, MaxStates)
		}
		q := d.AddState()
		d.SetFinal(q, st.final)
		index[k] = q
		queue = append(queue, st)
		return q, nil
	}

	if _, err := add(closure(prog, []uint32{uint32(prog.Start)})); err != nil {
		return nil, err
	}
	for q := 0; q < len(queue); q++ {
		st := queue[q]
		for c := 0; c < 256; c++ {
			var next []uint32
			for _, pc := range st.pcs {
				inst := &prog.Inst[pc]
				if matchByte(inst, byte(c)) {
					next = append(next, inst.Out)
				}
			}
			if len(next) == 0 {
				continue
			}
			target := closure(prog, next)
			if len(target.pcs) == 0 && !target.final {
				continue
			}
			r, err := add(target)
			if err != nil {
				return nil, err
			}
			d.AddTransition(q, byte(c), r)
		}
	}
	return d, nil
}
