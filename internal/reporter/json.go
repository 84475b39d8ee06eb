package reporter

import (
	"bytes"
	"encoding/json"

	"github.com/ethanolivertroy/license-audit/internal/models"
)

// jsonIndent is the per-level indentation of the JSON report
const jsonIndent = "    "

// JSONReporter outputs the inventory as a JSON object keyed by package name
type JSONReporter struct{}

// jsonRecord fixes the field order of each package entry. Homepage is nil
// when the metadata had no Home-page line and points at "" when it had an
// empty one.
type jsonRecord struct {
	Version  string  `json:"version"`
	License  string  `json:"license"`
	Homepage *string `json:"homepage,omitempty"`
}

// Report generates JSON output. Keys appear in discovery order, which a Go
// map cannot preserve, so the outer object is assembled by hand.
func (r *JSONReporter) Report(inv *models.Inventory) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, dep := range inv.Dependencies() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n" + jsonIndent)

		key, err := marshal(dep.Name, "")
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")

		record := jsonRecord{Version: dep.Version, License: dep.License}
		if dep.HasHomepage || dep.Homepage != "" {
			record.Homepage = &dep.Homepage
		}
		value, err := marshal(record, jsonIndent)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	if inv.Len() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	return buf.Bytes(), nil
}

// marshal encodes v without HTML escaping so homepage URLs stay readable
func marshal(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, jsonIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
