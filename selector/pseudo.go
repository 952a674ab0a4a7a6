package selector

import "strings"

// PseudoKind says how normalization treats a pseudo-class or pseudo-element.
type PseudoKind int

const (
	// PseudoUnknown is anything not listed below, selectors using it are
	// never pruned.
	PseudoUnknown PseudoKind = iota
	// PseudoDynamic depends on user interaction or element state, it is
	// removed and rule is considered used when base element exists.
	PseudoDynamic
	// PseudoStructural is evaluated against static document tree.
	PseudoStructural
	// PseudoElement has no node of its own, element it decorates is matched.
	PseudoElement
)

func (k PseudoKind) String() string {
	switch k {
	case PseudoDynamic:
		return "dynamic"
	case PseudoStructural:
		return "structural"
	case PseudoElement:
		return "element"
	default:
		return "unknown"
	}
}

// pseudoTable lists single colon pseudo tokens. Functional ones are keyed
// with trailing parenthesis. Double colon tokens are always pseudo-elements.
var pseudoTable = map[string]PseudoKind{
	// user action and element state
	"hover":             PseudoDynamic,
	"focus":             PseudoDynamic,
	"focus-within":      PseudoDynamic,
	"focus-visible":     PseudoDynamic,
	"active":            PseudoDynamic,
	"visited":           PseudoDynamic,
	"link":              PseudoDynamic,
	"any-link":          PseudoDynamic,
	"target":            PseudoDynamic,
	"target-within":     PseudoDynamic,
	"checked":           PseudoDynamic,
	"indeterminate":     PseudoDynamic,
	"default":           PseudoDynamic,
	"disabled":          PseudoDynamic,
	"enabled":           PseudoDynamic,
	"valid":             PseudoDynamic,
	"invalid":           PseudoDynamic,
	"user-valid":        PseudoDynamic,
	"user-invalid":      PseudoDynamic,
	"required":          PseudoDynamic,
	"optional":          PseudoDynamic,
	"in-range":          PseudoDynamic,
	"out-of-range":      PseudoDynamic,
	"read-only":         PseudoDynamic,
	"read-write":        PseudoDynamic,
	"placeholder-shown": PseudoDynamic,
	"autofill":          PseudoDynamic,
	"blank":             PseudoDynamic,
	"fullscreen":        PseudoDynamic,
	"modal":             PseudoDynamic,
	"open":              PseudoDynamic,
	"closed":            PseudoDynamic,
	"playing":           PseudoDynamic,
	"paused":            PseudoDynamic,
	"popover-open":      PseudoDynamic,
	"defined":           PseudoDynamic,
	"current":           PseudoDynamic,
	"past":              PseudoDynamic,
	"future":            PseudoDynamic,

	// static tree structure
	"root":              PseudoStructural,
	"empty":             PseudoStructural,
	"first-child":       PseudoStructural,
	"last-child":        PseudoStructural,
	"only-child":        PseudoStructural,
	"first-of-type":     PseudoStructural,
	"last-of-type":      PseudoStructural,
	"only-of-type":      PseudoStructural,
	"nth-child(":        PseudoStructural,
	"nth-last-child(":   PseudoStructural,
	"nth-of-type(":      PseudoStructural,
	"nth-last-of-type(": PseudoStructural,
	"lang(":             PseudoStructural,
	"not(":              PseudoStructural,
	"has(":              PseudoStructural,

	// CSS2 pseudo-elements written with single colon
	"before":       PseudoElement,
	"after":        PseudoElement,
	"first-line":   PseudoElement,
	"first-letter": PseudoElement,
}

// Classify returns kind of pseudo token name (without leading colons,
// functional names with trailing "(").
func Classify(name string) PseudoKind {
	return pseudoTable[strings.ToLower(name)]
}
