package arxiv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-master/internal/models"
)

func TestNormalizeIDStripsPrefixAndVersion(t *testing.T) {
	assert.Equal(t, "2301.12345", normalizeID("arXiv:2301.12345v2"))
	assert.Equal(t, "2301.12345", normalizeID("http://arxiv.org/abs/2301.12345v1"))
	assert.Equal(t, "2301.12345", normalizeID("2301.12345"))
}

func TestArxivSortFallsBackPerSpecQuirk(t *testing.T) {
	sb, _ := arxivSort(models.SortTitle)
	assert.Equal(t, SortByLastUpdated, sb)

	sb, _ = arxivSort(models.SortAuthor)
	assert.Equal(t, SortByLastUpdated, sb)

	sb, _ = arxivSort(models.SortCitationCount)
	assert.Equal(t, SortByRelevance, sb)

	sb, _ = arxivSort(models.SortDate)
	assert.Equal(t, SortBySubmittedDate, sb)
}

func TestBuildQueryIncludesDateRangeForYear(t *testing.T) {
	p := New(nil, "")
	q := p.buildQuery(models.SearchQuery{Query: "transformers", Year: "2023"})
	assert.Contains(t, q, "submittedDate:[20230101 TO 20231231]")
	assert.Contains(t, q, "all:\"transformers\"")
}

func TestBuildQueryDefaultsWhenEmpty(t *testing.T) {
	p := New(nil, "")
	assert.Equal(t, "cat:cs.*", p.buildQuery(models.SearchQuery{}))
}

func TestParseFeedSkipsEntriesMissingTitle(t *testing.T) {
	p := New(nil, "")
	feed := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.12345v1</id>
    <title>Attention Is All You Need</title>
    <summary>We propose a new architecture.</summary>
    <author><name>Ann Lee</name></author>
    <category term="cs.LG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.99999v1</id>
    <title></title>
  </entry>
</feed>`)

	papers, err := p.parseFeed(feed)
	assert.NoError(t, err)
	assert.Len(t, papers, 1)
	assert.Equal(t, "2301.12345", papers[0].PaperID)
	assert.Equal(t, models.SourceArxiv, papers[0].Source)
	assert.Equal(t, []string{"Ann Lee"}, papers[0].AuthorList())
}
