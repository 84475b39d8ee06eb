package reporter

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// TextReporter outputs the inventory as a human-readable report
type TextReporter struct{}

// Report generates one block per package, in discovery order
func (r *TextReporter) Report(inv *models.Inventory) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("License Compliance Report:\n")
	for _, dep := range inv.Dependencies() {
		sb.WriteString(fmt.Sprintf("\nPackage: %s\n", dep.Name))
		sb.WriteString(fmt.Sprintf("  Version: %s\n", dep.DisplayVersion()))
		sb.WriteString(fmt.Sprintf("  License: %s\n", dep.DisplayLicense()))
		sb.WriteString(fmt.Sprintf("  Homepage: %s\n", dep.DisplayHomepage()))
	}

	return []byte(sb.String()), nil
}
