package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	tests := []struct {
		name          string
		input         string
		wantFound     bool
		wantToken     string
		wantRemainder string
		wantCanonical string
	}{
		{"full type", "Avenida Reforma", true, "Avenida", "Reforma", Avenida},
		{"abbreviation with dot and padding", "  av. Insurgentes Sur ", true, "av.", "Insurgentes Sur", Avenida},
		{"avda variant", "Avda. Juárez", true, "Avda.", "Juárez", Avenida},
		{"bare c dot is calle", "C. Juárez", true, "C.", "Juárez", Calle},
		{"calzada not taken by calle", "Calzada de Tlalpan", true, "Calzada", "de Tlalpan", Calzada},
		{"callejon accented", "Callejón del Beso", true, "Callejón", "del Beso", Callejon},
		{"callejon upper case", "CALLEJÓN del Beso", true, "CALLEJÓN", "del Beso", Callejon},
		{"cjon abbreviation", "Cjon. Tres", true, "Cjon.", "Tres", Callejon},
		{"circuito abbreviation", "Cto. Interior", true, "Cto.", "Interior", Circuito},
		{"carretera abbreviation", "Carr. Federal 57", true, "Carr.", "Federal 57", Carretera},
		{"cte abbreviation", "Cte. 3", true, "Cte.", "3", Carretera},
		{"prolongacion", "Prolongación Hidalgo", true, "Prolongación", "Hidalgo", Prolongacion},
		{"via accented", "Vía Láctea", true, "Vía", "Láctea", Via},
		{"bulevar abbreviation", "Blvd. Kukulcán", true, "Blvd.", "Kukulcán", Bulevar},
		{"periferico", "Periférico Sur", true, "Periférico", "Sur", Periferico},
		{"paseo variant", "Psje. Sol", true, "Psje.", "Sol", Paseo},
		{"eje with number", "Eje 5 Sur", true, "Eje", "5 Sur", Eje},
		{"extra separating spaces", "Privada    Las Flores", true, "Privada", "Las Flores", Privada},
		{"non breaking space separator", "Av\u00a0Reforma", true, "Av", "Reforma", Avenida},
		{"decomposed accent kept in token", "Vi\u0301a Láctea", true, "Vi\u0301a", "Láctea", Via},
		{"type alone has no name", "Calle", false, "", "Calle", ""},
		{"no separator", "Av.Reforma", false, "", "Av.Reforma", ""},
		{"plain name", "Reforma", false, "", "Reforma", ""},
		{"prefix of a word is not a type", "Andes 120", false, "", "Andes 120", ""},
		{"english avenue", "Avenue Foch", false, "", "Avenue Foch", ""},
		{"empty", "   ", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(tt.input)
			assert.Equal(t, tt.wantFound, got.Found)
			assert.Equal(t, tt.wantToken, got.Token)
			assert.Equal(t, tt.wantRemainder, got.Remainder)
			assert.Equal(t, tt.wantCanonical, got.Canonical)
		})
	}
}

func TestExtractReconstruction(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	inputs := []string{
		"Avenida Reforma",
		"C. Juárez",
		"Callejón del Beso",
		"CALZ. Ermita Iztapalapa",
		"Priv. Los Pinos 12",
		"Vía Láctea",
		" Paseo de la Reforma ",
		"Anillo Periférico",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := ex.Extract(in)
			require.True(t, got.Found)
			assert.Equal(t, strings.TrimSpace(in), got.Token+" "+got.Remainder)
		})
	}
}

func TestExtractUnmatchedKeepsInput(t *testing.T) {
	ex := NewExtractor(DefaultRules())

	for _, in := range []string{"Insurgentes", "  Niños Héroes  ", "12 de Octubre", "Av."} {
		got := ex.Extract(in)
		assert.False(t, got.Found, in)
		assert.Equal(t, strings.TrimSpace(in), got.Remainder)
	}
}

func TestFoldOffsetsMapBackToOriginal(t *testing.T) {
	f := foldOffsets("ÁÉ x")
	assert.Equal(t, "ae x", f.text)
	assert.Equal(t, 0, f.original(0))
	assert.Equal(t, 2, f.original(1))
	assert.Equal(t, 4, f.original(2))
	assert.Equal(t, len("ÁÉ x"), f.original(len(f.text)))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "prolongacion", Fold("Prolongación"))
	assert.Equal(t, "callejon", Fold("CALLEJÓN"))
	assert.Equal(t, "via", Fold("Vía"))
	assert.Equal(t, "av.", Fold("Av."))
	assert.Equal(t, "", Fold(""))
}
