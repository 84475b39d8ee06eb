package reporter

import (
	"bytes"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// MarkdownReporter outputs the inventory as a markdown table
type MarkdownReporter struct{}

// Report generates a title, a summary and one table row per package
func (r *MarkdownReporter) Report(inv *models.Inventory) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("License Compliance Report")
	md.PlainText("")
	md.PlainTextf("%d packages, %d with unknown license.", inv.Len(), inv.UnknownCount())
	if licenses := inv.Licenses(); len(licenses) > 0 {
		md.PlainText("")
		md.PlainTextf("Licenses found: %s", strings.Join(licenses, ", "))
	}
	md.PlainText("")

	rows := make([][]string, 0, inv.Len())
	for _, dep := range inv.Dependencies() {
		rows = append(rows, []string{
			dep.Name,
			dep.DisplayVersion(),
			dep.DisplayLicense(),
			dep.DisplayHomepage(),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Package", "Version", "License", "Homepage"},
		Rows:   rows,
	})

	if err := md.Build(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
