package normalize

import "strings"

// Extraction is the result of looking for a street type at the start of a name.
type Extraction struct {
	// Token is the matched type exactly as written in the input ("Av.", "CALLEJÓN").
	Token string
	// Remainder is the trimmed rest of the input. Without a match it is the
	// whole trimmed input.
	Remainder string
	// Canonical is the canonical type of the rule that matched.
	Canonical string
	// Found is false when no rule matched.
	Found bool
}

// Extractor detects a known street type token at the start of a street name.
type Extractor struct {
	rules *RuleTable
}

// NewExtractor returns an extractor over rules.
func NewExtractor(rules *RuleTable) *Extractor {
	return &Extractor{rules: rules}
}

// Extract splits a leading street type off name. Matching is case- and
// accent-insensitive, the token must be followed by whitespace and a
// non-empty name, and the first rule in table order wins.
func (e *Extractor) Extract(name string) Extraction {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Extraction{Remainder: trimmed}
	}

	f := foldOffsets(trimmed)
	for i := range e.rules.rules {
		rule := &e.rules.rules[i]
		m := rule.leading.FindStringSubmatchIndex(f.text)
		if m == nil {
			continue
		}

		tipo := 2 * rule.leading.SubexpIndex("tipo")
		nombre := 2 * rule.leading.SubexpIndex("nombre")

		tokenEnd := f.original(m[tipo+1])
		nameStart := f.original(m[nombre])

		remainder := strings.TrimSpace(trimmed[nameStart:])
		if remainder == "" {
			continue
		}

		return Extraction{
			Token:     trimmed[:tokenEnd],
			Remainder: remainder,
			Canonical: rule.Canonical,
			Found:     true,
		}
	}

	return Extraction{Remainder: trimmed}
}
