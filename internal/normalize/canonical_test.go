package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	c := NewCanonicalizer(DefaultRules())

	tests := []struct {
		input string
		want  string
	}{
		{"Av.", Avenida},
		{"av", Avenida},
		{"AVENIDA", Avenida},
		{"Avda", Avenida},
		{" calle ", Calle},
		{"c.", Calle},
		{"Cal", Calle},
		{"Calz", Calzada},
		{"Calzada", Calzada},
		{"Callejon", Callejon},
		{"cjon", Callejon},
		{"Cjn.", Callejon},
		{"Blvd", Bulevar},
		{"Boulevard", Bulevar},
		{"Buvar", "Buvar"},
		{"Prolongacion", Prolongacion},
		{"PROL.", Prolongacion},
		{"Via", Via},
		{"Priv", Privada},
		{"And.", Andador},
		{"Carr", Carretera},
		{"Perif.", Periferico},
		{"Viad", Viaducto},
		{"Avenida Reforma", Avenida},
		{"Xyz", "Xyz"},
		{"  Xyz  ", "Xyz"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Canonicalize(tt.input))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := NewCanonicalizer(DefaultRules())

	for _, v := range Vocabulary() {
		assert.Equal(t, v, c.Canonicalize(v), "canonical value %q must map to itself", v)
	}

	inputs := []string{"av.", "C.", "Calz.", "cjon", "blvd", "prolongación", "xyz", "Avenida Reforma", " priv. ", "Vía"}
	for _, in := range inputs {
		once := c.Canonicalize(in)
		assert.Equal(t, once, c.Canonicalize(once), in)
	}
}

func TestCanonicalizeClosure(t *testing.T) {
	c := NewCanonicalizer(DefaultRules())

	for _, in := range []string{"av", "Cto", "cam.", "Cerr", "eje", "paseo", "ANILLO", "aldea", "Psje"} {
		assert.True(t, IsCanonical(c.Canonicalize(in)), in)
	}
}

func TestNewRuleTable(t *testing.T) {
	t.Run("default table compiles", func(t *testing.T) {
		table, err := NewRuleTable(DefaultRuleSpecs)
		require.NoError(t, err)
		assert.Equal(t, len(DefaultRuleSpecs), table.Len())
		assert.Equal(t, Avenida, table.Rules()[0].Canonical)
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := NewRuleTable(nil)
		assert.Error(t, err)
	})

	t.Run("missing pattern", func(t *testing.T) {
		_, err := NewRuleTable([]TypeRule{{Canonical: Calle}})
		assert.Error(t, err)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewRuleTable([]TypeRule{{Canonical: Calle, Pattern: `cal(`}})
		assert.Error(t, err)
	})

	t.Run("custom groups do not shift captures", func(t *testing.T) {
		table, err := NewRuleTable([]TypeRule{{Canonical: Calle, Pattern: `(c)(alle)`}})
		require.NoError(t, err)

		got := NewExtractor(table).Extract("Calle Madero")
		require.True(t, got.Found)
		assert.Equal(t, "Calle", got.Token)
		assert.Equal(t, "Madero", got.Remainder)
	})

	t.Run("rule order decides", func(t *testing.T) {
		table, err := NewRuleTable([]TypeRule{
			{Canonical: Calzada, Pattern: `calz(?:ada)?`},
			{Canonical: Calle, Pattern: `cal(?:le|z)?`},
		})
		require.NoError(t, err)
		assert.Equal(t, Calzada, NewCanonicalizer(table).Canonicalize("calz"))
	})
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical(Prolongacion))
	assert.False(t, IsCanonical("Prolongacion"))
	assert.False(t, IsCanonical("avenida"))
	assert.Len(t, Vocabulary(), 19)
}
