// Package cli provides output formatting for the vectorizer CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/docfold/vectorizer/internal/models"
	"github.com/docfold/vectorizer/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format string from a CLI flag.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, query string, results []models.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"query":   query,
			"results": results,
			"count":   len(results),
		})
	case OutputCompact:
		for i, r := range results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", i+1, r.SimilarityScore, r.DocumentName, utils.Truncate(r.Text, 80))
		}
		return nil
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []models.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Type: %s\n", i+1, r.SimilarityScore, r.FileType)
		fmt.Fprintf(w, "Document: %s", r.DocumentName)
		if r.PageNumber != nil {
			fmt.Fprintf(w, " (page %d)", *r.PageNumber)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, 200))
	}
}

// WriteIngestResults writes one line per processed document, or JSON.
func WriteIngestResults(w io.Writer, results []*models.IngestResult, failed int, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"documents": results,
			"failed":    failed,
		})
	}
	total := 0
	for _, r := range results {
		fmt.Fprintf(w, "%s: %d chunk(s) stored in %s\n", r.DocumentName, r.TotalChunks, r.Store)
		total += r.TotalChunks
	}
	fmt.Fprintf(w, "Processed %d document(s), %d chunk(s) total", len(results), total)
	if failed > 0 {
		fmt.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteStatistics writes corpus statistics. File types are printed in a
// stable order.
func WriteStatistics(w io.Writer, stats *models.Statistics, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "total_chunks:  %d\n", stats.TotalChunks)
	types := make([]string, 0, len(stats.ByFileType))
	for ft := range stats.ByFileType {
		types = append(types, string(ft))
	}
	sort.Strings(types)
	for _, ft := range types {
		fmt.Fprintf(w, "%-13s %d\n", ft+":", stats.ByFileType[models.FileType(ft)])
	}
	return nil
}
