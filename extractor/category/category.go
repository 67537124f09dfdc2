// Package category assigns a fixed-taxonomy category to a description.
package category

import (
	"strings"
	"sync"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Rule binds keywords to a category. Rules are evaluated in slice order.
type Rule struct {
	Category common.Category `mapstructure:"name"`
	Keywords []string        `mapstructure:"keywords"`
}

// DefaultRules is the built-in table. Order decides ties.
var DefaultRules = []Rule{
	{common.Food, []string{"food", "restaurant", "cafe", "pizza", "kfc", "mcdonald", "eat"}},
	{common.Shopping, []string{"amazon", "shop", "store", "mall", "daraz", "purchase"}},
	{common.Transport, []string{"uber", "careem", "fuel", "petrol", "bus", "metro", "transport"}},
	{common.Utilities, []string{"electric", "gas", "water", "internet", "ptcl", "jazz", "zong", "bill"}},
	{common.Transfer, []string{"transfer", "sent to", "received from"}},
}

// Categorizer matches every keyword in one pass and picks the matching
// rule that was declared first.
type Categorizer struct {
	rules   []Rule
	matcher *ahocorasick.Matcher
	owner   []int // pattern index -> rule index
	mu      sync.Mutex
}

func New(rules []Rule) *Categorizer {
	c := &Categorizer{rules: rules}

	seen := map[string]bool{}
	var patterns []string
	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			patterns = append(patterns, kw)
			c.owner = append(c.owner, i)
		}
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return c
}

func Default() *Categorizer {
	return New(DefaultRules)
}

// Categorize returns Other when nothing matches.
func (c *Categorizer) Categorize(description string) common.Category {
	if c.matcher == nil {
		return common.Other
	}

	c.mu.Lock()
	hits := c.matcher.Match([]byte(strings.ToLower(description)))
	c.mu.Unlock()

	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(c.owner) {
			continue
		}
		if best == -1 || c.owner[idx] < best {
			best = c.owner[idx]
		}
	}
	if best == -1 {
		return common.Other
	}
	return c.rules[best].Category
}

// Normalize maps a free-form category name, such as one returned by a
// language model, onto the taxonomy.
func Normalize(name string) (common.Category, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.Other, false
	}
	for _, cat := range common.Taxonomy {
		if strings.EqualFold(name, string(cat)) {
			return cat, true
		}
	}
	for _, cat := range common.Taxonomy {
		if cat == common.Other {
			continue
		}
		if fuzzy.MatchFold(string(cat), name) {
			return cat, true
		}
	}
	return common.Other, false
}
