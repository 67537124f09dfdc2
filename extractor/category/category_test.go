package category

import (
	"testing"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/stretchr/testify/assert"
)

func TestCategorize_DefaultTable(t *testing.T) {
	c := Default()

	cases := map[string]common.Category{
		"Grocery Store Purchase": common.Shopping,
		"KFC Gulberg Lahore":     common.Food,
		"UBER TRIP HELP.UBER":    common.Transport,
		"Electric bill LESCO":    common.Utilities,
		"Funds transfer to Ali":  common.Transfer,
		"Netflix subscription":   common.Other,
	}
	for desc, want := range cases {
		if got := c.Categorize(desc); got != want {
			t.Errorf("Expected %s for %q, got %s", want, desc, got)
		}
	}
}

func TestCategorize_DeclarationOrderWins(t *testing.T) {
	c := Default()

	// matches Food and Transport; Food is declared first
	assert.Equal(t, common.Food, c.Categorize("Pizza delivered by bus"))
	// "eat" inside "great" still counts, and Food precedes Shopping
	assert.Equal(t, common.Food, c.Categorize("Great Mall Outlet"))
}

func TestCategorize_CustomRules(t *testing.T) {
	c := New([]Rule{
		{Category: common.Health, Keywords: []string{"pharmacy", " "}},
		{Category: common.Education, Keywords: []string{"school", "pharmacy"}},
	})

	assert.Equal(t, common.Health, c.Categorize("City Pharmacy"))
	assert.Equal(t, common.Education, c.Categorize("School fees"))
	assert.Equal(t, common.Other, c.Categorize("Anything else"))
}

func TestCategorize_EmptyRules(t *testing.T) {
	assert.Equal(t, common.Other, New(nil).Categorize("Pizza"))
}

func TestNormalize(t *testing.T) {
	cases := map[string]common.Category{
		"shopping":        common.Shopping,
		" Entertainment ": common.Entertainment,
		"Food & Dining":   common.Food,
		"Healthcare":      common.Health,
		"Travel & Hotels": common.Travel,
	}
	for name, want := range cases {
		got, ok := Normalize(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	got, ok := Normalize("garbage")
	assert.False(t, ok)
	assert.Equal(t, common.Other, got)

	_, ok = Normalize("")
	assert.False(t, ok)
}
