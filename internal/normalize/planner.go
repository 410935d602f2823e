package normalize

import "strings"

// AddressRecord is one row of the address table as seen by the planner.
// Columns other than the two street fields are never loaded into it.
type AddressRecord struct {
	ID         string
	TypeVia    string
	StreetName string

	// NULL in the store; the string field is "" in that case.
	TypeViaNull    bool
	StreetNameNull bool
}

// MutationPlan is the planner's decision for one record.
type MutationPlan struct {
	ID      string `json:"id"`
	OldType string `json:"old_tipo_via"`
	OldName string `json:"old_calle"`
	NewType string `json:"tipo_via"`
	NewName string `json:"calle"`
	Changed bool   `json:"changed"`

	OldTypeNull bool `json:"-"`
	OldNameNull bool `json:"-"`
}

// Planner decides the final (type, name) pair of a record.
type Planner struct {
	extractor     *Extractor
	canonicalizer *Canonicalizer
}

// NewPlanner builds a planner whose extractor and canonicalizer share rules.
func NewPlanner(rules *RuleTable) *Planner {
	return &Planner{
		extractor:     NewExtractor(rules),
		canonicalizer: NewCanonicalizer(rules),
	}
}

// Plan applies the priority rule to rec:
//
//  1. a type found at the start of the street name always wins over TypeVia;
//  2. otherwise TypeVia is canonicalized and the name only trimmed;
//  3. when TypeVia and the name hold the same text, extraction from the name
//     is attempted again (it cannot succeed where step 1 failed, and stays as
//     a guard should step 1 ever be narrowed).
//
// The plan is marked changed when either trimmed field differs.
func (p *Planner) Plan(rec AddressRecord) MutationPlan {
	plan := MutationPlan{
		ID:          rec.ID,
		OldType:     rec.TypeVia,
		OldName:     rec.StreetName,
		OldTypeNull: rec.TypeViaNull,
		OldNameNull: rec.StreetNameNull,
	}

	plan.NewType, plan.NewName = p.resolve(rec.TypeVia, rec.StreetName)
	plan.Changed = strings.TrimSpace(plan.NewType) != strings.TrimSpace(rec.TypeVia) ||
		strings.TrimSpace(plan.NewName) != strings.TrimSpace(rec.StreetName)

	return plan
}

// PlanPair is Plan for a bare pair of values.
func (p *Planner) PlanPair(typeVia, streetName string) MutationPlan {
	return p.Plan(AddressRecord{TypeVia: typeVia, StreetName: streetName})
}

func (p *Planner) resolve(typeVia, streetName string) (string, string) {
	if ex := p.extractor.Extract(streetName); ex.Found {
		return p.canonicalizer.Canonicalize(ex.Token), ex.Remainder
	}

	newType := p.canonicalizer.Canonicalize(typeVia)
	newName := strings.TrimSpace(streetName)

	if isDirtyDuplicate(typeVia, streetName) {
		if ex := p.extractor.Extract(streetName); ex.Found {
			return p.canonicalizer.Canonicalize(ex.Token), ex.Remainder
		}
	}

	return newType, newName
}

// isDirtyDuplicate spots rows where the type column was filled with a copy of
// the street name.
func isDirtyDuplicate(typeVia, streetName string) bool {
	return strings.EqualFold(strings.TrimSpace(typeVia), strings.TrimSpace(streetName))
}
