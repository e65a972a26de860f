package querybuilder

import (
	"strings"
	"testing"

	"github.com/compintel/discovery/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EmptyProject(t *testing.T) {
	queries := Build(nil)
	require.Len(t, queries, 1)
	assert.Equal(t, "startup company", queries[0])
}

func TestBuild_NoVerticalFallsBackToName(t *testing.T) {
	p := &models.Project{Name: "Acme Analytics"}
	queries := Build(p)
	require.Len(t, queries, 1)
	assert.Equal(t, "Acme Analytics competitors", queries[0])
}

func TestBuild_NeobankFrancophoneAfrica(t *testing.T) {
	// spec.md §8 scenario 1: "mobile-first challenger bank for francophone
	// Africa" names no specific West African country, so geography must
	// resolve to the generic "Africa" bucket, not "West Africa".
	p := &models.Project{
		Name:        "Kudi",
		Description: "mobile-first challenger bank for francophone Africa",
	}
	queries := Build(p)
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "neobank")
	assert.Contains(t, queries[0], "Africa")
	assert.NotContains(t, queries[0], "West Africa")
	assert.Contains(t, queries[0], "startup")
}

func TestBuild_NeobankNotMisclassifiedAsFintech(t *testing.T) {
	p := &models.Project{
		Description: "a challenger bank offering payments and savings accounts",
	}
	queries := Build(p)
	require.NotEmpty(t, queries)
	assert.Contains(t, queries[0], "neobank")
	assert.NotContains(t, strings.ToLower(queries[0]), "fintech")
}

func TestBuild_RegionMajorityWestAfrica(t *testing.T) {
	p := &models.Project{
		Description: "a fintech company",
		Regions:     []string{"NG", "GH", "US"},
	}
	queries := Build(p)
	require.NotEmpty(t, queries)
	assert.Contains(t, queries[0], "West Africa")
}

func TestBuild_CapsAtFiveQueries(t *testing.T) {
	p := &models.Project{
		Description: "a logistics startup",
		Keywords:    []string{"one", "two", "three", "four", "five", "six"},
		Regions:     []string{"NG"},
		Industries:  []string{"Logistics"},
	}
	queries := Build(p)
	assert.LessOrEqual(t, len(queries), 5)
	assert.GreaterOrEqual(t, len(queries), 1)
}

func TestBuild_AllOutputsNonEmpty(t *testing.T) {
	p := &models.Project{
		Description: "an agritech marketplace for smallholder farmers",
		Keywords:    []string{"farming", "produce"},
		Regions:     []string{"KE", "UG"},
	}
	queries := Build(p)
	for _, q := range queries {
		assert.NotEmpty(t, q)
	}
}

func TestRegionName(t *testing.T) {
	assert.Equal(t, "Nigeria", RegionName("ng"))
	assert.Equal(t, "XX", RegionName("xx"))
}
