package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-master/internal/models"
)

func TestBuilderPopulatesRequiredFields(t *testing.T) {
	p := models.NewBuilder("2301.12345", "Attention Is All You Need", "https://arxiv.org/abs/2301.12345", models.SourceArxiv).
		WithAuthors("Ann Lee", "Bo Park").
		WithDOI("10.1000/xyz123").
		Build()

	assert.Equal(t, "2301.12345", p.PaperID)
	assert.NotEmpty(t, p.Title)
	assert.NotEmpty(t, p.URL)
	assert.Equal(t, models.SourceArxiv, p.Source)
	assert.Equal(t, []string{"Ann Lee", "Bo Park"}, p.AuthorList())
}

func TestPrimaryIDPrefersDOI(t *testing.T) {
	p := models.NewBuilder("arxiv:2301.12345", "Title", "https://x", models.SourceArxiv).WithDOI("10.1/abc").Build()
	assert.Equal(t, "10.1/abc", p.PrimaryID())

	p2 := models.NewBuilder("arxiv:2301.12345", "Title", "https://x", models.SourceArxiv).Build()
	assert.Equal(t, "arxiv:2301.12345", p2.PrimaryID())
}

func TestCanonicalDOIStripsPrefixes(t *testing.T) {
	assert.Equal(t, "10.1/abc", models.CanonicalDOI("DOI:10.1/ABC"))
	assert.Equal(t, "10.1/abc", models.CanonicalDOI("https://doi.org/10.1/ABC"))
	assert.Equal(t, "10.1/abc", models.CanonicalDOI("  10.1/abc  "))
}

func TestSplitHelpersTrimAndDropEmpty(t *testing.T) {
	p := models.NewBuilder("id", "t", "u", models.SourceArxiv).
		WithAuthorsJoined(" Alice ; ; Bob;Carol ").
		Build()
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, p.AuthorList())
}

func TestOtherSourceRoundTrips(t *testing.T) {
	s := models.OtherSource("preprints-xyz")
	assert.False(t, s.IsKnown())
	assert.Equal(t, "preprints-xyz", s.String())
}
