package reporter

import "github.com/ethanolivertroy/license-audit/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report renders the completed inventory
	Report(inv *models.Inventory) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case models.FormatJSON:
		return &JSONReporter{}
	case models.FormatMarkdown:
		return &MarkdownReporter{}
	default:
		return &TextReporter{}
	}
}
