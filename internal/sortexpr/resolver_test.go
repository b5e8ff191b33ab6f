package sortexpr

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/itemsort/internal/items"
)

func TestResolve_Terms(t *testing.T) {
	r := NewResolver()

	cases := []struct {
		formula string
		label   string
		terms   []items.Term
	}{
		{"str", "STR", []items.Term{{Coefficient: 1, Field: "bonuses.str"}}},
		{"STR + dex", "STR + DEX", []items.Term{{Coefficient: 1, Field: "bonuses.str"}, {Coefficient: 1, Field: "bonuses.dex"}}},
		{"2*luk - crit", "2 * LUK - Crit", []items.Term{{Coefficient: 2, Field: "bonuses.luk"}, {Coefficient: -1, Field: "bonuses.crit"}}},
		{"-dark + mdef", "-Darkness + Melee Def", []items.Term{{Coefficient: -1, Field: "resists.darkness"}, {Coefficient: 1, Field: "bonuses.melee def"}}},
		{"str + str", "2 * STR", []items.Term{{Coefficient: 2, Field: "bonuses.str"}}},
		{"dmg", "Damage", []items.Term{{Coefficient: 1, Field: "damage"}}},
		{"0.5 * all + fire", "0.5 * All + Fire", []items.Term{{Coefficient: 0.5, Field: "resists.all"}, {Coefficient: 1, Field: "resists.fire"}}},
	}
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			expr, err := r.Resolve(tc.formula)
			require.NoError(t, err)
			require.Equal(t, tc.label, expr.Label)
			require.Equal(t, tc.terms, expr.Terms)
		})
	}
}

func TestResolve_LabelResolvesToSameExpression(t *testing.T) {
	r := NewResolver()
	for _, f := range []string{"str", "2*luk - crit + wis", "-dark + mdef", "pierce def - 3 * ice", "level"} {
		first, err := r.Resolve(f)
		require.NoError(t, err)
		again, err := r.Resolve(first.Label)
		require.NoError(t, err, f)
		require.Equal(t, first.Terms, again.Terms)
		require.Equal(t, first.Label, again.Label)
	}
}

func TestResolve_Errors(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("  ")
	require.ErrorIs(t, err, ErrEmptyFormula)

	_, err = r.Resolve("str + mana")
	require.ErrorIs(t, err, ErrUnknownStat)

	_, err = r.Resolve("x*str")
	require.ErrorIs(t, err, ErrBadCoefficient)

	_, err = r.Resolve("str - str")
	require.ErrorIs(t, err, ErrZeroExpression)

	_, err = r.Resolve("0.3*str - 0.1*str - 0.2*str")
	require.ErrorIs(t, err, ErrZeroExpression)

	for _, f := range []string{"1e90*str", "-2e6*dex", "0.0001*luk", "1e-90*str", "900000*str + 900000*str"} {
		_, err = r.Resolve(f)
		require.ErrorIs(t, err, ErrCoefficientRange, f)
	}

	_, err = r.Resolve("str +")
	require.ErrorIs(t, err, ErrUnknownStat)
}

func TestUnaliasElement(t *testing.T) {
	e, ok := UnaliasElement(" Dark ")
	require.True(t, ok)
	require.Equal(t, "darkness", e)

	e, ok = UnaliasElement("lightning")
	require.True(t, ok)
	require.Equal(t, "energy", e)

	_, ok = UnaliasElement("all")
	require.False(t, ok)
	_, ok = UnaliasElement("str")
	require.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	expr, err := NewResolver().Resolve("2*str - fire + damage")
	require.NoError(t, err)
	rec := items.ItemRecord{
		Damage:  []float64{10, 20},
		Bonuses: []items.Stat{{Key: "str", Value: 5}},
		Resists: []items.Stat{{Key: "fire", Value: 3}},
	}
	require.Equal(t, 2*5.0-3+15, expr.Evaluate(rec))
	require.Zero(t, expr.Evaluate(items.ItemRecord{}))
}
