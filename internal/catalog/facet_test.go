package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Home & Garden", "home and garden"},
		{"home and garden", "home and garden"},
		{"  HOME&GARDEN ", "home and garden"},
		{"Home  &  Gärden", "home and garden"},
		{"Café-Tables", "cafe tables"},
		{"Living Room / Den", "living room den"},
		{"Office!!!", "office"},
		{"***", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestSplitFacets(t *testing.T) {
	assert.Equal(t, []string{"Living Room", "Office"}, SplitFacets("Office, Living Room"))
	assert.Equal(t, []string{"Oak"}, SplitFacets(" Oak ,Oak,,"))
	assert.Empty(t, SplitFacets(" , "))
}

func TestCollectFacets(t *testing.T) {
	stored := []string{"Office, Living Room", "Bedroom", "Living Room, Bedroom"}
	assert.Equal(t, []string{"Bedroom", "Living Room", "Office"}, CollectFacets(stored))
	assert.Nil(t, CollectFacets(nil))
}

func TestCategoryIndexFirstSeen(t *testing.T) {
	idx := NewCategoryIndex([]string{"Home & Garden", "Office", "home and garden", "HOME AND GARDEN"}, LabelFirstSeen)

	a, ok := idx.Lookup("home and garden")
	require.True(t, ok)
	b, ok := idx.Lookup("Home & Garden")
	require.True(t, ok)

	assert.Equal(t, "Home & Garden", a.Label)
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"Home & Garden", "home and garden", "HOME AND GARDEN"}, a.Variants)
	assert.Equal(t, []string{"Home & Garden", "Office"}, idx.Labels())

	_, ok = idx.Lookup("Kitchen")
	assert.False(t, ok)
}

func TestCategoryIndexAlphabetical(t *testing.T) {
	idx := NewCategoryIndex([]string{"home and garden", "Home & Garden"}, LabelAlphabetical)
	c, ok := idx.Lookup("HOME & GARDEN")
	require.True(t, ok)
	assert.Equal(t, "Home & Garden", c.Label)
}

func TestParseLabelPolicy(t *testing.T) {
	p, err := ParseLabelPolicy("alphabetical")
	require.NoError(t, err)
	assert.Equal(t, LabelAlphabetical, p)

	p, err = ParseLabelPolicy("")
	require.NoError(t, err)
	assert.Equal(t, LabelFirstSeen, p)

	_, err = ParseLabelPolicy("most_frequent")
	assert.Error(t, err)
}
