// Package dedup implements cross-provider paper deduplication (C10): a
// fast-path bucket scan followed by Jaro-Winkler title similarity, grouped
// union-find style and reduced per a chosen strategy.
package dedup

import (
	"regexp"
	"strings"

	"research-master/internal/models"
)

// Strategy selects how a duplicate group is reduced.
type Strategy string

const (
	First Strategy = "first"
	Last  Strategy = "last"
	Mark  Strategy = "mark"
)

const titleSimilarityThreshold = 0.95

// Result is the outcome of Deduplicate: Kept holds the surviving papers (in
// original relative order) and Groups holds every detected duplicate group
// as index sets into the original input slice.
type Result struct {
	Kept   []models.Paper
	Groups [][]int
}

// Deduplicate groups candidate duplicates in papers and reduces each group
// per strategy, following spec.md §4.10 exactly.
func Deduplicate(papers []models.Paper, strategy Strategy) Result {
	n := len(papers)
	assigned := make([]bool, n)
	groupOf := make([]int, n)
	for i := range groupOf {
		groupOf[i] = -1
	}

	doiBuckets := make(map[string][]int)
	titleBuckets := make(map[string][]int)
	for i, p := range papers {
		if p.DOI != nil && *p.DOI != "" {
			key := strings.ToLower(strings.TrimSpace(*p.DOI))
			doiBuckets[key] = append(doiBuckets[key], i)
		}
		titleBuckets[normalizeTitle(p.Title)] = append(titleBuckets[normalizeTitle(p.Title)], i)
	}

	var groups [][]int
	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		group := []int{i}
		for j := i + 1; j < n; j++ {
			if assigned[j] {
				continue
			}
			if isDuplicate(papers, i, j, doiBuckets, titleBuckets) {
				group = append(group, j)
				assigned[j] = true
			}
		}
		if len(group) >= 2 {
			assigned[i] = true
			groups = append(groups, group)
		}
	}

	kept := reduce(papers, groups, strategy)
	return Result{Kept: kept, Groups: groups}
}

// isDuplicate applies spec.md §4.10's three candidacy rules. Candidates from
// the same provider are never duplicates. The DOI and normalized-title rules
// also require the pair to share the matching bucket; the Jaro-Winkler rule
// compares any remaining pair directly, without a bucket check.
func isDuplicate(papers []models.Paper, i, j int, doiBuckets, titleBuckets map[string][]int) bool {
	a, b := papers[i], papers[j]
	if a.Source == b.Source {
		return false
	}

	if a.DOI != nil && b.DOI != nil && *a.DOI != "" && *b.DOI != "" {
		if strings.EqualFold(strings.TrimSpace(*a.DOI), strings.TrimSpace(*b.DOI)) {
			if sameBucket(doiBuckets, strings.ToLower(strings.TrimSpace(*a.DOI)), i, j) {
				return true
			}
		}
	}

	normA, normB := normalizeTitle(a.Title), normalizeTitle(b.Title)
	if normA != "" && normA == normB && sameBucket(titleBuckets, normA, i, j) {
		if authorsOverlap(a, b) {
			return true
		}
	}

	titleA := strings.ToLower(strings.TrimSpace(a.Title))
	titleB := strings.ToLower(strings.TrimSpace(b.Title))
	if titleA != "" && titleB != "" && jaroWinkler(titleA, titleB) >= titleSimilarityThreshold {
		if authorsOverlap(a, b) {
			return true
		}
	}

	return false
}

func sameBucket(buckets map[string][]int, key string, i, j int) bool {
	bucket, ok := buckets[key]
	if !ok {
		return false
	}
	hasI, hasJ := false, false
	for _, idx := range bucket {
		if idx == i {
			hasI = true
		}
		if idx == j {
			hasJ = true
		}
	}
	return hasI && hasJ
}

func authorsOverlap(a, b models.Paper) bool {
	setA := authorSet(a)
	setB := authorSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return true
	}
	for name := range setA {
		if setB[name] {
			return true
		}
	}
	return false
}

func authorSet(p models.Paper) map[string]bool {
	set := make(map[string]bool)
	for _, a := range p.AuthorList() {
		set[strings.ToLower(strings.TrimSpace(a))] = true
	}
	return set
}

var nonAlnumSpace = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var collapseSpace = regexp.MustCompile(`\s+`)

// normalizeTitle strips everything that is not alphanumeric or whitespace,
// then collapses whitespace to single spaces, per spec.md §4.10.
func normalizeTitle(title string) string {
	lower := strings.ToLower(title)
	stripped := nonAlnumSpace.ReplaceAllString(lower, "")
	return strings.TrimSpace(collapseSpace.ReplaceAllString(stripped, " "))
}

func reduce(papers []models.Paper, groups [][]int, strategy Strategy) []models.Paper {
	toDrop := make(map[int]bool)
	for _, group := range groups {
		switch strategy {
		case Last:
			maxIdx := group[0]
			for _, idx := range group {
				if idx > maxIdx {
					maxIdx = idx
				}
			}
			for _, idx := range group {
				if idx != maxIdx {
					toDrop[idx] = true
				}
			}
		case Mark:
			// retain all; caller consults Result.Groups to flag duplicates
		default: // First
			minIdx := group[0]
			for _, idx := range group {
				if idx < minIdx {
					minIdx = idx
				}
			}
			for _, idx := range group {
				if idx != minIdx {
					toDrop[idx] = true
				}
			}
		}
	}

	kept := make([]models.Paper, 0, len(papers))
	for i, p := range papers {
		if !toDrop[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// jaroWinkler computes the Jaro-Winkler similarity of a and b in [0, 1].
// Hand-rolled: no Jaro-Winkler implementation appears anywhere in the
// reference pack (only an edit-distance Levenshtein library, a different
// metric), so this follows the textbook algorithm directly.
func jaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	ar, br := []rune(a), []rune(b)
	la, lb := len(ar), len(br)
	if la == 0 || lb == 0 {
		return 0
	}

	matchDistance := max(la, lb)/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)
	matches := 0

	for i := 0; i < la; i++ {
		start := max(0, i-matchDistance)
		end := min(lb, i+matchDistance+1)
		for j := start; j < end; j++ {
			if bMatches[j] || ar[i] != br[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if ar[i] != br[k] {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	jaro := (m/float64(la) + m/float64(lb) + (m-float64(transpositions))/m) / 3.0

	prefix := 0
	for i := 0; i < min(4, min(la, lb)); i++ {
		if ar[i] != br[i] {
			break
		}
		prefix++
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}
