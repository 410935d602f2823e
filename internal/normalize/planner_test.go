package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan(t *testing.T) {
	p := NewPlanner(DefaultRules())

	tests := []struct {
		name        string
		typeVia     string
		streetName  string
		wantType    string
		wantName    string
		wantChanged bool
	}{
		{"type in name wins over column", "Calle", "Avenida Reforma", Avenida, "Reforma", true},
		{"already clean", "Privada", "Las Flores", Privada, "Las Flores", false},
		{"abbreviated column", "Av.", "Reforma", Avenida, "Reforma", true},
		{"bulevar abbreviation", "Blvd", "Kukulcán", Bulevar, "Kukulcán", true},
		{"empty column, type in name", "", "C. Juárez", Calle, "Juárez", true},
		{"dirty duplicate", "Avenida Reforma", "Avenida Reforma", Avenida, "Reforma", true},
		{"bare type in name is left alone", "Calle", "Calle", Calle, "Calle", false},
		{"whitespace only differences", " Privada ", "Las Flores ", Privada, "Las Flores", false},
		{"unknown type kept", "Xyz", "Reforma", "Xyz", "Reforma", false},
		{"both empty", "", "", "", "", false},
		{"accent-insensitive name", "", "PROLONGACIÓN Hidalgo", Prolongacion, "Hidalgo", true},
		{"callejon precedence", "Calle", "Callejón del Beso", Callejon, "del Beso", true},
		{"calzada precedence", "Calle", "Calz. de Tlalpan", Calzada, "de Tlalpan", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.PlanPair(tt.typeVia, tt.streetName)
			assert.Equal(t, tt.wantType, plan.NewType)
			assert.Equal(t, tt.wantName, plan.NewName)
			assert.Equal(t, tt.wantChanged, plan.Changed)
			assert.Equal(t, tt.typeVia, plan.OldType)
			assert.Equal(t, tt.streetName, plan.OldName)
		})
	}
}

func TestPlanCarriesRecordIdentity(t *testing.T) {
	p := NewPlanner(DefaultRules())

	plan := p.Plan(AddressRecord{ID: "42", StreetName: "Av. Juárez", TypeViaNull: true})
	assert.Equal(t, "42", plan.ID)
	assert.True(t, plan.OldTypeNull)
	assert.False(t, plan.OldNameNull)
	assert.Equal(t, Avenida, plan.NewType)
	assert.Equal(t, "Juárez", plan.NewName)
}

func TestPlanIdempotent(t *testing.T) {
	p := NewPlanner(DefaultRules())

	records := [][2]string{
		{"Calle", "Avenida Reforma"},
		{"Av.", "Insurgentes"},
		{"", "Priv. Los Pinos"},
		{"blvd", "Kukulcán"},
		{"Xyz", "Reforma"},
		{"Cjon", "del Beso"},
		{"Avenida Reforma", "Avenida Reforma"},
	}

	for _, r := range records {
		first := p.PlanPair(r[0], r[1])
		second := p.PlanPair(first.NewType, first.NewName)
		assert.False(t, second.Changed, "%q/%q replanned to %q/%q", first.NewType, first.NewName, second.NewType, second.NewName)
	}
}

func TestPlanClosure(t *testing.T) {
	p := NewPlanner(DefaultRules())

	// a recognized type in either field always lands on the vocabulary
	records := [][2]string{
		{"av", "Reforma"},
		{"Cerr.", "Olivos"},
		{"", "Eje 5 Sur"},
		{"Xyz", "Paseo de la Reforma"},
		{"Circuito", "Interior"},
	}
	for _, r := range records {
		assert.True(t, IsCanonical(p.PlanPair(r[0], r[1]).NewType), r)
	}
}

func TestPlanSingleStep(t *testing.T) {
	p := NewPlanner(DefaultRules())

	// stacked prefixes lose one token per run
	plan := p.PlanPair("", "Calle Av. Reforma")
	assert.Equal(t, Calle, plan.NewType)
	assert.Equal(t, "Av. Reforma", plan.NewName)
}
