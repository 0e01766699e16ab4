package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-master/internal/dedup"
	"research-master/internal/models"
)

func paper(source models.Source, title string, authors string, doi string) models.Paper {
	b := models.NewBuilder(title, title, "https://x/"+title, source).WithAuthorsJoined(authors)
	if doi != "" {
		b = b.WithDOI(doi)
	}
	return b.Build()
}

func TestDeduplicateByDOI(t *testing.T) {
	papers := []models.Paper{
		paper(models.SourceArxiv, "Attention Is All You Need", "Ann Lee", "10.1/abc"),
		paper(models.SourceSemanticScholar, "Attention IS all you need!!", "Ann Lee", "10.1/ABC"),
	}

	res := dedup.Deduplicate(papers, dedup.First)
	assert.Len(t, res.Kept, 1)
	assert.Equal(t, "Attention Is All You Need", res.Kept[0].Title)
}

func TestDeduplicateSameProviderNeverMatches(t *testing.T) {
	papers := []models.Paper{
		paper(models.SourceArxiv, "Same Title", "A", "10.1/x"),
		paper(models.SourceArxiv, "Same Title", "A", "10.1/x"),
	}
	res := dedup.Deduplicate(papers, dedup.First)
	assert.Len(t, res.Kept, 2)
}

func TestDeduplicateByNormalizedTitleAndAuthorOverlap(t *testing.T) {
	papers := []models.Paper{
		paper(models.SourceArxiv, "Deep Learning: A Survey!", "Bob Smith; Carol Jones", ""),
		paper(models.SourceOpenAlex, "deep learning a survey", "carol jones", ""),
	}
	res := dedup.Deduplicate(papers, dedup.Last)
	assert.Len(t, res.Kept, 1)
	assert.Equal(t, "deep learning a survey", res.Kept[0].Title)
}

func TestDeduplicateMarkRetainsAllButReportsGroups(t *testing.T) {
	papers := []models.Paper{
		paper(models.SourceArxiv, "X", "A", "10.1/same"),
		paper(models.SourceSemanticScholar, "X", "A", "10.1/same"),
	}
	res := dedup.Deduplicate(papers, dedup.Mark)
	assert.Len(t, res.Kept, 2)
	assert.Len(t, res.Groups, 1)
}

func TestDeduplicateNoMatchWhenAuthorsDisjointAndTitleBelowThreshold(t *testing.T) {
	papers := []models.Paper{
		paper(models.SourceArxiv, "Graph Neural Networks for Chemistry", "Dana White", ""),
		paper(models.SourceOpenAlex, "Quantum Computing Basics", "Evan Blue", ""),
	}
	res := dedup.Deduplicate(papers, dedup.First)
	assert.Len(t, res.Kept, 2)
}
