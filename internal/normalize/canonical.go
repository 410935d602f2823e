package normalize

import "strings"

// Canonicalizer maps a raw street type onto the canonical vocabulary.
type Canonicalizer struct {
	rules     *RuleTable
	extractor *Extractor
}

// NewCanonicalizer returns a canonicalizer sharing rules with its extractor.
func NewCanonicalizer(rules *RuleTable) *Canonicalizer {
	return &Canonicalizer{rules: rules, extractor: NewExtractor(rules)}
}

// Canonicalize returns the canonical label for raw, or raw trimmed when no
// rule recognizes it. A value that carries a trailing name by mistake
// ("Avenida Reforma") is reduced to its leading token first.
func (c *Canonicalizer) Canonicalize(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return t
	}

	token := t
	if ex := c.extractor.Extract(t); ex.Found {
		token = ex.Token
	}

	if canonical, ok := c.rules.canonicalFor(Fold(token)); ok {
		return canonical
	}
	return t
}
