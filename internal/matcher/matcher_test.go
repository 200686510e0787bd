package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindBrands(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		brands   []string
		expected []string
	}{
		{
			name:     "Case insensitive",
			text:     "I love ASANA",
			brands:   []string{"Asana"},
			expected: []string{"Asana"},
		},
		{
			name:     "Substring is not a mention",
			text:     "Asanaville is nice",
			brands:   []string{"Asana"},
			expected: []string{},
		},
		{
			name:     "Input order is preserved",
			text:     "Trello beats Notion, but Asana wins",
			brands:   []string{"Asana", "Jira", "Notion", "Trello"},
			expected: []string{"Asana", "Notion", "Trello"},
		},
		{
			name:     "Special characters are literal",
			text:     "Try Monday.com or C++ tooling",
			brands:   []string{"Monday.com", "C++", "Mondayxcom"},
			expected: []string{"Monday.com", "C++"},
		},
		{
			name:     "Dot does not act as wildcard",
			text:     "Mondayxcom is not a brand",
			brands:   []string{"Monday.com"},
			expected: []string{},
		},
		{
			name:     "Punctuation around names",
			text:     "**Notion** (great), \"ClickUp\".",
			brands:   []string{"Notion", "ClickUp"},
			expected: []string{"Notion", "ClickUp"},
		},
		{
			name:     "Multi word brand",
			text:     "Zoho CRM is popular",
			brands:   []string{"Zoho CRM", "Zoho"},
			expected: []string{"Zoho CRM", "Zoho"},
		},
		{
			name:     "Duplicate brands collapse",
			text:     "notion notion",
			brands:   []string{"Notion", "notion", " NOTION "},
			expected: []string{"Notion"},
		},
		{
			name:     "Empty text",
			text:     "",
			brands:   []string{"Asana"},
			expected: []string{},
		},
		{
			name:     "Empty brands",
			text:     "Asana",
			brands:   nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindBrands(tt.text, tt.brands))
		})
	}
}

func TestFindBrands_Subset(t *testing.T) {
	brands := []string{"Asana", "Notion", "Jira"}
	found := FindBrands("Notion, Jira, Linear and Basecamp are all fine", brands)

	for _, b := range found {
		assert.Contains(t, brands, b)
	}
	assert.Equal(t, []string{"Notion", "Jira"}, found)
}

func TestMentions(t *testing.T) {
	assert.True(t, Mentions("we use hubspot daily", "HubSpot"))
	assert.False(t, Mentions("hubspotter", "HubSpot"))
	assert.False(t, Mentions("anything", "  "))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"Notion", "asana"}, Normalize([]string{" Notion", "", "asana", "notion", "Asana"}))
	assert.Nil(t, Normalize(nil))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"Notion", "Asana"}, "asana"))
	assert.False(t, Contains([]string{"Notion"}, "Asana"))
}

func TestMatcher_Find(t *testing.T) {
	m := New([]string{"Notion", " asana ", "Monday.com", "notion"})

	responses := []struct {
		text     string
		expected []string
	}{
		{"Notion and Asana are popular", []string{"Notion", "asana"}},
		{"Try monday.com today", []string{"Monday.com"}},
		{"Mondaycom is not a brand", []string{}},
		{"", []string{}},
	}

	for _, tt := range responses {
		assert.Equal(t, tt.expected, m.Find(tt.text), tt.text)
		assert.Equal(t, FindBrands(tt.text, []string{"Notion", " asana ", "Monday.com", "notion"}), m.Find(tt.text), tt.text)
	}
}

func TestPattern_ReusedAcrossCalls(t *testing.T) {
	first := pattern("ClickUp")
	assert.Same(t, first, pattern("ClickUp"))
	assert.Same(t, first, pattern("clickup"))
	assert.Same(t, first, New([]string{"CLICKUP"}).patterns[0])
}

func TestPattern_CacheIsBounded(t *testing.T) {
	for i := 0; i < maxCachedPatterns+50; i++ {
		assert.True(t, Mentions(fmt.Sprintf("uses brand-%d daily", i), fmt.Sprintf("brand-%d", i)))
	}

	cache.RLock()
	defer cache.RUnlock()
	assert.LessOrEqual(t, len(cache.patterns), maxCachedPatterns)
}
