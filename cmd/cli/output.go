package main

import (
	"encoding/json"
	"fmt"

	"research-master/internal/models"
)

// printResult renders v per --output: json is always valid, table/plain
// fall back to a compact per-paper summary when v is a recognized shape,
// and otherwise degrade to json, mirroring spec.md §6's "auto" default.
func printResult(v interface{}) error {
	switch outputFormat {
	case "json":
		return printJSON(v)
	case "table", "plain":
		if printed := printTabular(v); printed {
			return nil
		}
		return printJSON(v)
	default: // auto
		if printed := printTabular(v); printed {
			return nil
		}
		return printJSON(v)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printTabular(v interface{}) bool {
	switch r := v.(type) {
	case models.SearchResponse:
		printPapers(r.Papers)
		fmt.Printf("%d of %d results from %s\n", len(r.Papers), r.TotalResults, r.Source)
		return true
	case models.Paper:
		printPapers([]models.Paper{r})
		return true
	}
	return false
}

func printPapers(papers []models.Paper) {
	for _, p := range papers {
		fmt.Printf("%-24s %s\n", p.PaperID, p.Title)
		if p.DOI != nil && *p.DOI != "" {
			fmt.Printf("  doi: %s\n", *p.DOI)
		}
	}
}
