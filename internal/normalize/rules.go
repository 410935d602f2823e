package normalize

import (
	"fmt"
	"regexp"
	"sync"
)

// Canonical street types. Output of the canonicalizer is always one of these
// or the untouched (trimmed) input.
const (
	Avenida      = "Avenida"
	Calle        = "Calle"
	Bulevar      = "Bulevar"
	Circuito     = "Circuito"
	Camino       = "Camino"
	Calzada      = "Calzada"
	Prolongacion = "Prolongación"
	Privada      = "Privada"
	Cerrada      = "Cerrada"
	Callejon     = "Callejón"
	Andador      = "Andador"
	Carretera    = "Carretera"
	Eje          = "Eje"
	Paseo        = "Paseo"
	Anillo       = "Anillo"
	Via          = "Vía"
	Periferico   = "Periférico"
	Viaducto     = "Viaducto"
	Aldea        = "Aldea"
)

var vocabulary = []string{
	Avenida, Calle, Bulevar, Circuito, Camino, Calzada, Prolongacion, Privada, Cerrada,
	Callejon, Andador, Carretera, Eje, Paseo, Anillo, Via, Periferico, Viaducto, Aldea,
}

// Vocabulary returns the canonical street types in rule order.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// IsCanonical reports whether s is exactly one of the canonical street types.
func IsCanonical(s string) bool {
	for _, v := range vocabulary {
		if s == v {
			return true
		}
	}
	return false
}

// separator is the whitespace required between a type token and the name
const separator = `[\s\p{Z}]+`

// TypeRule maps an alternation of folded spellings onto one canonical type.
type TypeRule struct {
	Canonical string `json:"canonical" yaml:"canonical"`
	Pattern   string `json:"pattern" yaml:"pattern"`

	token   *regexp.Regexp
	leading *regexp.Regexp
}

// MatchToken reports whether the folded token is exactly a spelling of this rule.
func (r *TypeRule) MatchToken(foldedToken string) bool {
	return r.token.MatchString(foldedToken)
}

// DefaultRuleSpecs is the ordered rule list. Order is part of the contract:
// several abbreviations are literal prefixes of other types ("c." is Calle,
// "cal" must not swallow "calz" or "callejon").
var DefaultRuleSpecs = []TypeRule{
	{Canonical: Avenida, Pattern: `av(?:\.|enida)?|avda\.?`},
	{Canonical: Calle, Pattern: `cal(?:le|\.?)|c\.`},
	{Canonical: Bulevar, Pattern: `bule?var|boulevard|blvd\.?`},
	{Canonical: Circuito, Pattern: `cto\.?|circuito`},
	{Canonical: Camino, Pattern: `cam(?:ino|\.?)`},
	{Canonical: Calzada, Pattern: `calz(?:ada|\.?)`},
	{Canonical: Prolongacion, Pattern: `prol(?:\.|ongacion|ong\.)?`},
	{Canonical: Privada, Pattern: `priv(?:ada|\.?)`},
	{Canonical: Cerrada, Pattern: `cerr(?:ada|\.?)`},
	{Canonical: Callejon, Pattern: `c(?:jon|allejon)\.?|cjn\.?`},
	{Canonical: Andador, Pattern: `and(?:ador|\.?)`},
	{Canonical: Carretera, Pattern: `carretera|carr\.?|cte\.?`},
	{Canonical: Eje, Pattern: `eje`},
	{Canonical: Paseo, Pattern: `paseo|psje\.?|pseo`},
	{Canonical: Anillo, Pattern: `anillo`},
	{Canonical: Via, Pattern: `via`},
	{Canonical: Periferico, Pattern: `perif(?:erico|\.?)`},
	{Canonical: Viaducto, Pattern: `viad(?:ucto|\.?)`},
	{Canonical: Aldea, Pattern: `aldea`},
}

// RuleTable is an ordered, immutable list of compiled rules.
type RuleTable struct {
	rules []TypeRule
}

// NewRuleTable compiles specs in the given order.
func NewRuleTable(specs []TypeRule) (*RuleTable, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	rules := make([]TypeRule, 0, len(specs))
	for i, spec := range specs {
		if spec.Canonical == "" || spec.Pattern == "" {
			return nil, fmt.Errorf("rule %d: canonical and pattern are required", i)
		}
		token, err := regexp.Compile(`^(?:` + spec.Pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Canonical, err)
		}
		leading, err := regexp.Compile(`^(?P<tipo>` + spec.Pattern + `)` + separator + `(?P<nombre>.+)$`)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Canonical, err)
		}
		rules = append(rules, TypeRule{
			Canonical: spec.Canonical,
			Pattern:   spec.Pattern,
			token:     token,
			leading:   leading,
		})
	}

	return &RuleTable{rules: rules}, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *RuleTable
)

// DefaultRules returns the shared table built from DefaultRuleSpecs.
func DefaultRules() *RuleTable {
	defaultOnce.Do(func() {
		t, err := NewRuleTable(DefaultRuleSpecs)
		if err != nil {
			panic(fmt.Sprintf("default street type rules: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Rules returns a copy of the rules in precedence order.
func (t *RuleTable) Rules() []TypeRule {
	out := make([]TypeRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// canonicalFor returns the canonical type of the first rule whose spelling
// list contains the folded token.
func (t *RuleTable) canonicalFor(foldedToken string) (string, bool) {
	for i := range t.rules {
		if t.rules[i].MatchToken(foldedToken) {
			return t.rules[i].Canonical, true
		}
	}
	return "", false
}
