// Package patterns holds the catalog of named regular expressions used to
// describe log lines and the compiled environment built from it.
package patterns

import (
	"sort"
	"strings"
)

// Building blocks.
const (
	Re0To32   = `(3[0-2]|[0-2]?[0-9])`
	Re0To128  = `(12[0-8]|1[0-1][0-9]|([0-9]{1,2}))`
	Re0To255  = `(25[0-5]|(2[0-4]|[0-1]{0,1}[0-9]){0,1}[0-9])`
	ReSign    = `(-|[+])?`
	ReHexa    = `[0-9a-fA-F]+`
	ReUint    = `[0-9]+`
	ReInt     = ReSign + ReUint
	ReFloat   = ReSign + ReUint + `([.]` + ReUint + `)?`
	ReIPv4    = `((` + Re0To255 + `[.]){3}` + Re0To255 + `)`
	ReSpaces  = `\s+`
	ReWord    = `\S+`
	ReAny     = `(\S|\s)+`
	ReAlnum   = `[a-zA-Z0-9]+`
	ReLetters = `[a-zA-Z]+`
	RePath    = `(/[-/:._a-zA-Z0-9]+)`
)

// Derived expressions.
var (
	ReApproxFloat = `~?` + ReFloat
	ReBool        = `0|1`
	ReDelimiter   = `[-+=*@~#]+`
	ReGeneralInt  = ReSign + `[0-9]{1,3}(,[0-9]{3})*`
	ReIPv6        = MakeIPv6(true, true)
	ReNetIPv4     = ReIPv4 + "/" + Re0To32
	ReNetIPv6     = ReIPv6 + "/" + Re0To128
)

// MakeHexDigit returns a class matching one hexadecimal digit.
func MakeHexDigit(lower, upper bool) string {
	var sb strings.Builder
	sb.WriteString("[0-9")
	if lower {
		sb.WriteString("a-f")
	}
	if upper {
		sb.WriteString("A-F")
	}
	sb.WriteString("]")
	return sb.String()
}

// MakeIPv6 returns a permissive IPv6 expression: groups of up to four
// hexadecimal digits separated by at least two colons.
func MakeIPv6(lower, upper bool) string {
	hex4 := MakeHexDigit(lower, upper) + "{0,4}"
	return "((" + hex4 + ")?(:" + hex4 + ")+:" + hex4 + ")"
}

// Any is the name of the catch-all pattern. It labels the gaps between
// matched infixes and is never searched for.
const Any = "any"

var catalog = map[string]string{
	"alnum":        ReAlnum,
	Any:            ReAny,
	"approx_float": ReApproxFloat,
	"bool":         ReBool,
	"delimiter":    ReDelimiter,
	"float":        ReFloat,
	"general_int":  ReGeneralInt,
	"hexa":         ReHexa,
	"int":          ReInt,
	"ipv4":         ReIPv4,
	"ipv6":         ReIPv6,
	"letters":      ReLetters,
	"net_ipv4":     ReNetIPv4,
	"net_ipv6":     ReNetIPv6,
	"path":         RePath,
	"spaces":       ReSpaces,
	"uint":         ReUint,
	"word":         ReWord,
}

// DefaultNames is the pattern selection used when none is configured.
var DefaultNames = []string{Any, "float", "hexa", "int", "ipv4", "spaces", "uint", "word"}

// Catalog returns a copy of the built-in name -> regex map.
func Catalog() map[string]string {
	out := make(map[string]string, len(catalog))
	for k, v := range catalog {
		out[k] = v
	}
	return out
}

// Lookup returns the built-in regex for name.
func Lookup(name string) (string, bool) {
	re, ok := catalog[name]
	return re, ok
}

// Names returns the sorted built-in pattern names.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for k := range catalog {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Printable holds the 100 printable ASCII characters (whitespace included)
// densities are computed against.
const Printable = "0123456789" +
	"abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" +
	" \t\n\r\x0b\x0c"

// Separators are excluded from the "any" automaton built by automaton.Any.
const Separators = " \t\n"
